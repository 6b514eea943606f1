// Package cart holds the per-user cart contract. A cart belongs to exactly
// one user; the price stored with a line is only what the client last saw,
// never an input to billing.
package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Item is a single cart line: a product reference with a variant selection.
// DisplayedPrice is advisory only; authoritative pricing always re-reads the
// catalog.
type Item struct {
	ProductID      string
	Size           string
	Color          string
	Quantity       int
	DisplayedPrice decimal.Decimal
}

// Repository defines persistence operations for carts. Clear also runs
// inside the settlement transaction via the order committer; the standalone
// method exists for explicit cart emptying.
type Repository interface {
	Get(ctx context.Context, userID string) ([]Item, error)
	Upsert(ctx context.Context, userID string, item Item) error
	Remove(ctx context.Context, userID, productID, size, color string) error
	Clear(ctx context.Context, userID string) error
}
