// Package handler exposes the storefront HTTP API. Handlers translate wire
// requests into domain calls and map domain errors onto stable status codes;
// nothing here does its own pricing or validation beyond decoding.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/cart"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/coupon"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/order"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/payment"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/product"
)

// QuoteAssembler derives an authoritative quote for a user's items.
type QuoteAssembler interface {
	Assemble(ctx context.Context, userID string, items []cart.Item, couponCode string, deliveryFee decimal.Decimal) (*order.Quote, error)
}

// SessionOpener creates gateway payment sessions.
type SessionOpener interface {
	Open(ctx context.Context, userID string, q *order.Quote) (*payment.Session, error)
}

// PaymentSettler verifies proofs and commits orders.
type PaymentSettler interface {
	Settle(ctx context.Context, userID string, p payment.Proof) (*order.Order, error)
}

// OrderService covers the non-gateway order operations.
type OrderService interface {
	PlaceCashOrder(ctx context.Context, userID, couponCode string) (*order.Order, error)
	History(ctx context.Context, userID string) ([]order.Order, error)
}

// Handler carries the domain services behind the HTTP API.
type Handler struct {
	products    product.Repository
	carts       cart.Repository
	assembler   QuoteAssembler
	payments    SessionOpener
	settler     PaymentSettler
	orders      OrderService
	deliveryFee decimal.Decimal
}

// NewHandler creates a Handler over the given services.
func NewHandler(
	products product.Repository,
	carts cart.Repository,
	assembler QuoteAssembler,
	payments SessionOpener,
	settler PaymentSettler,
	orders OrderService,
	deliveryFee decimal.Decimal,
) *Handler {
	return &Handler{
		products:    products,
		carts:       carts,
		assembler:   assembler,
		payments:    payments,
		settler:     settler,
		orders:      orders,
		deliveryFee: deliveryFee,
	}
}

// Routes mounts the API under /api. Both middlewares are given by the
// caller: the API key check authenticates the client application, requireUser
// extracts the acting user.
func (h *Handler) Routes(authenticate, requireUser func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/products", h.ListProducts)
		r.Get("/products/{productID}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/cart", h.GetCart)
			r.Post("/cart", h.UpsertCartItem)
			r.Put("/cart", h.UpsertCartItem)
			r.Delete("/cart", h.RemoveCartItem)

			r.Post("/payment/pre-validate", h.PreValidate)
			r.Post("/payment/create-order", h.CreatePaymentOrder)
			r.Post("/payment/verify-payment", h.VerifyPayment)

			r.Post("/orders", h.PlaceOrder)
			r.Get("/orders", h.ListOrders)
		})
	})
	return r
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(ctx).Error("encode response", zap.Error(err))
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	writeJSON(ctx, w, status, errorResponse{Code: status, Message: msg})
}

// writeDomainError maps domain errors onto status codes. Unknown errors are
// logged and masked as 500.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		iqErr    *order.InvalidQuantityError
		pnfErr   *order.ProductNotFoundError
		uvErr    *order.UnknownVariantError
		stockErr *order.InsufficientStockError
	)
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		writeError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.As(err, &iqErr), errors.As(err, &pnfErr), errors.As(err, &uvErr):
		writeError(ctx, w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &stockErr):
		writeError(ctx, w, http.StatusConflict, err.Error())
	case errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrBelowMinimum),
		errors.Is(err, coupon.ErrGlobalLimitReached),
		errors.Is(err, coupon.ErrUserLimitReached):
		writeError(ctx, w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, product.ErrNotFound):
		writeError(ctx, w, http.StatusNotFound, err.Error())
	case errors.Is(err, payment.ErrUnknownSession):
		writeError(ctx, w, http.StatusNotFound, err.Error())
	case errors.Is(err, payment.ErrInvalidSignature), errors.Is(err, payment.ErrTotalMismatch):
		writeError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, payment.ErrNeedsReconciliation):
		// Payment went through but the order did not; the client must not
		// retry, support will resolve it.
		writeError(ctx, w, http.StatusConflict, err.Error())
	case errors.Is(err, payment.ErrGatewayUnavailable):
		writeError(ctx, w, http.StatusBadGateway, err.Error())
	default:
		zctx.From(ctx).Error("unhandled domain error", zap.Error(err))
		writeError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
