package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/cart"
)

type cartItemView struct {
	ProductID      string `json:"product_id"`
	Size           string `json:"size"`
	Color          string `json:"color"`
	Quantity       int    `json:"quantity"`
	DisplayedPrice string `json:"displayed_price"`
}

type upsertCartRequest struct {
	ProductID      string          `json:"product_id"`
	Size           string          `json:"size"`
	Color          string          `json:"color"`
	Quantity       int             `json:"quantity"`
	DisplayedPrice decimal.Decimal `json:"displayed_price"`
}

// GetCart returns the user's cart lines.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.carts.Get(ctx, UserFrom(ctx))
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	views := make([]cartItemView, 0, len(items))
	for _, it := range items {
		views = append(views, cartItemView{
			ProductID:      it.ProductID,
			Size:           it.Size,
			Color:          it.Color,
			Quantity:       it.Quantity,
			DisplayedPrice: it.DisplayedPrice.StringFixed(2),
		})
	}
	writeJSON(ctx, w, http.StatusOK, views)
}

// UpsertCartItem adds a line or replaces the quantity of an existing one.
// The variant must exist and zero or negative quantities are rejected here,
// before anything is stored.
func (h *Handler) UpsertCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req upsertCartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeError(ctx, w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Quantity < 1 {
		writeError(ctx, w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	p, err := h.products.GetByID(ctx, req.ProductID)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	if _, ok := p.VariantStock(req.Size, req.Color); !ok {
		writeError(ctx, w, http.StatusUnprocessableEntity, "unknown size/color for product "+req.ProductID)
		return
	}

	item := cart.Item{
		ProductID:      req.ProductID,
		Size:           req.Size,
		Color:          req.Color,
		Quantity:       req.Quantity,
		DisplayedPrice: req.DisplayedPrice,
	}
	if err := h.carts.Upsert(ctx, UserFrom(ctx), item); err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveCartItem deletes one line (identified by query parameters) or, with
// no product_id given, clears the whole cart.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserFrom(ctx)

	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		if err := h.carts.Clear(ctx, userID); err != nil {
			writeDomainError(ctx, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	size := r.URL.Query().Get("size")
	color := r.URL.Query().Get("color")
	if err := h.carts.Remove(ctx, userID, productID, size, color); err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
