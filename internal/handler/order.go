package handler

import (
	"net/http"
	"time"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/order"
)

type orderView struct {
	ID                string          `json:"id"`
	Lines             []quoteLineView `json:"lines"`
	ItemsSubtotal     string          `json:"items_subtotal"`
	CouponCode        string          `json:"coupon_code,omitempty"`
	CouponDiscount    string          `json:"coupon_discount"`
	TaxAmount         string          `json:"tax_amount"`
	DeliveryFee       string          `json:"delivery_fee"`
	FinalTotal        string          `json:"final_total"`
	PaymentMethod     string          `json:"payment_method"`
	PaymentStatus     string          `json:"payment_status"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	CreatedAt         time.Time       `json:"created_at"`
}

func toOrderView(o *order.Order) orderView {
	view := orderView{
		ID:                o.ID,
		Lines:             make([]quoteLineView, 0, len(o.Lines)),
		ItemsSubtotal:     o.ItemsSubtotal.StringFixed(2),
		CouponCode:        o.CouponCode,
		CouponDiscount:    o.CouponDiscount.StringFixed(2),
		TaxAmount:         o.TaxAmount.StringFixed(2),
		DeliveryFee:       o.DeliveryFee.StringFixed(2),
		FinalTotal:        o.FinalTotal.StringFixed(2),
		PaymentMethod:     string(o.PaymentMethod),
		PaymentStatus:     string(o.PaymentStatus),
		FulfillmentStatus: string(o.FulfillmentStatus),
		CreatedAt:         o.CreatedAt,
	}
	for _, l := range o.Lines {
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

type placeOrderRequest struct {
	PaymentMethod string `json:"payment_method"`
	CouponCode    string `json:"coupon_code"`
}

// PlaceOrder commits a cash-on-delivery order from the current cart. Gateway
// payments never come through here; they go through the payment endpoints.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req placeOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PaymentMethod != string(order.PaymentCashOnDelivery) {
		writeError(ctx, w, http.StatusBadRequest, "only cod orders are accepted here; use the payment endpoints for gateway checkout")
		return
	}

	o, err := h.orders.PlaceCashOrder(ctx, UserFrom(ctx), req.CouponCode)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, toOrderView(o))
}

// ListOrders returns the user's order history, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.orders.History(ctx, UserFrom(ctx))
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	views := make([]orderView, 0, len(list))
	for i := range list {
		views = append(views, toOrderView(&list[i]))
	}
	writeJSON(ctx, w, http.StatusOK, views)
}
