package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a read-only catalog snapshot consumed by pricing. Stock is
// tracked per variant.
type Product struct {
	ID       string
	Name     string
	Brand    string
	Category string
	Price    decimal.Decimal
	ImageURL string
	Variants []Variant
	Offer    *Offer
}

// Variant is a purchasable size/color combination with its own stock count.
type Variant struct {
	Size  string
	Color string
	Stock int
}

// VariantStock returns the current stock for the given size/color selection.
// The second return value reports whether the variant exists at all.
func (p *Product) VariantStock(size, color string) (int, bool) {
	for _, v := range p.Variants {
		if v.Size == size && v.Color == color {
			return v.Stock, true
		}
	}
	return 0, false
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
