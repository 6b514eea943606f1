package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/product"
)

type variantView struct {
	Size  string `json:"size"`
	Color string `json:"color"`
	Stock int    `json:"stock"`
}

type offerView struct {
	Kind        string `json:"kind"`
	Value       string `json:"value"`
	MinQuantity int    `json:"min_quantity,omitempty"`
}

type productView struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Brand    string        `json:"brand,omitempty"`
	Category string        `json:"category,omitempty"`
	Price    string        `json:"price"`
	ImageURL string        `json:"image_url,omitempty"`
	Variants []variantView `json:"variants"`
	Offer    *offerView    `json:"offer,omitempty"`
}

// toProductView renders a product. The offer is included only when it is
// actually in force right now; a stored-but-lapsed offer is invisible.
func toProductView(p *product.Product, now time.Time) productView {
	view := productView{
		ID:       p.ID,
		Name:     p.Name,
		Brand:    p.Brand,
		Category: p.Category,
		Price:    p.Price.StringFixed(2),
		ImageURL: p.ImageURL,
		Variants: make([]variantView, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		view.Variants = append(view.Variants, variantView{Size: v.Size, Color: v.Color, Stock: v.Stock})
	}
	if p.Offer.EffectiveAt(now) {
		view.Offer = &offerView{
			Kind:        string(p.Offer.Kind),
			Value:       p.Offer.Value.String(),
			MinQuantity: p.Offer.MinQuantity,
		}
	}
	return view
}

// ListProducts returns the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	products, err := h.products.List(ctx)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	now := time.Now()
	views := make([]productView, 0, len(products))
	for i := range products {
		views = append(views, toProductView(&products[i], now))
	}
	writeJSON(ctx, w, http.StatusOK, views)
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.products.GetByID(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toProductView(p, time.Now()))
}
