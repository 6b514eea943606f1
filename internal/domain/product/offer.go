package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferKind enumerates the supported product-level discount strategies.
type OfferKind string

const (
	// OfferPercentage reduces the unit price by a percentage of itself.
	OfferPercentage OfferKind = "percentage"
	// OfferFixed reduces the unit price by a fixed amount, floored at zero.
	OfferFixed OfferKind = "fixed"
	// OfferBogo grants free units once the minimum quantity is reached.
	OfferBogo OfferKind = "bogo"
	// OfferBundle grants free units for multi-product bundles.
	OfferBundle OfferKind = "bundle"
)

// Offer is a product-scoped, time- and usage-bounded discount rule.
type Offer struct {
	Active      bool
	Kind        OfferKind
	Value       decimal.Decimal
	StartsAt    *time.Time
	EndsAt      *time.Time
	MinQuantity int
	MaxUses     int
	Uses        int
}

// EffectiveAt reports whether the offer is actually in force at the given
// time. The stored Active flag is necessary but not sufficient: the validity
// window and the usage cap are re-evaluated on every read because the flag
// can go stale between writes.
func (o *Offer) EffectiveAt(now time.Time) bool {
	if o == nil || !o.Active {
		return false
	}
	if o.StartsAt != nil && now.Before(*o.StartsAt) {
		return false
	}
	if o.EndsAt != nil && now.After(*o.EndsAt) {
		return false
	}
	if o.MaxUses > 0 && o.Uses >= o.MaxUses {
		return false
	}
	return true
}
