package handler

import (
	"net/http"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/order"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/payment"
)

type quoteLineView struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	Size         string `json:"size"`
	Color        string `json:"color"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	LineTotal    string `json:"line_total"`
	OfferApplied bool   `json:"offer_applied"`
}

type quoteView struct {
	Lines          []quoteLineView `json:"lines"`
	ItemsSubtotal  string          `json:"items_subtotal"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	CouponDiscount string          `json:"coupon_discount"`
	TaxAmount      string          `json:"tax_amount"`
	DeliveryFee    string          `json:"delivery_fee"`
	FinalTotal     string          `json:"final_total"`
}

func toQuoteView(q *order.Quote) quoteView {
	view := quoteView{
		Lines:          make([]quoteLineView, 0, len(q.Lines)),
		ItemsSubtotal:  q.ItemsSubtotal.StringFixed(2),
		CouponCode:     q.CouponCode,
		CouponDiscount: q.CouponDiscount.StringFixed(2),
		TaxAmount:      q.TaxAmount.StringFixed(2),
		DeliveryFee:    q.DeliveryFee.StringFixed(2),
		FinalTotal:     q.FinalTotal.StringFixed(2),
	}
	for _, l := range q.Lines {
		view.Lines = append(view.Lines, quoteLineView{
			ProductID:    l.ProductID,
			Name:         l.Name,
			Size:         l.Size,
			Color:        l.Color,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice.StringFixed(2),
			LineTotal:    l.LineTotal.StringFixed(2),
			OfferApplied: l.OfferApplied,
		})
	}
	return view
}

type couponRequest struct {
	CouponCode string `json:"coupon_code"`
}

// PreValidate prices the current cart with an optional coupon and returns
// the authoritative totals. Purely informational: nothing is reserved,
// redeemed, or persisted.
func (h *Handler) PreValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req couponRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID := UserFrom(ctx)
	items, err := h.carts.Get(ctx, userID)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	q, err := h.assembler.Assemble(ctx, userID, items, req.CouponCode, h.deliveryFee)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toQuoteView(q))
}

type createPaymentOrderResponse struct {
	GatewayOrderRef string    `json:"gateway_order_ref"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	Quote           quoteView `json:"quote"`
}

// CreatePaymentOrder assembles the cart server-side and opens a gateway
// session for the derived total. The client never supplies an amount.
func (h *Handler) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req couponRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID := UserFrom(ctx)
	items, err := h.carts.Get(ctx, userID)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	q, err := h.assembler.Assemble(ctx, userID, items, req.CouponCode, h.deliveryFee)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	sess, err := h.payments.Open(ctx, userID, q)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, createPaymentOrderResponse{
		GatewayOrderRef: sess.GatewayOrderRef,
		Amount:          sess.Amount.StringFixed(2),
		Currency:        sess.Currency,
		Quote:           toQuoteView(q),
	})
}

type verifyPaymentRequest struct {
	GatewayOrderRef  string `json:"gateway_order_ref"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// VerifyPayment settles a gateway payment proof into a committed order.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.GatewayOrderRef == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		writeError(ctx, w, http.StatusBadRequest, "gateway_order_ref, gateway_payment_id and signature are required")
		return
	}

	o, err := h.settler.Settle(ctx, UserFrom(ctx), payment.Proof{
		GatewayOrderRef:  req.GatewayOrderRef,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, toOrderView(o))
}
