// Package pricing computes authoritative line prices from current product
// and offer state. Everything here is pure: no clocks other than the one
// passed in, no storage, no counters.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/product"
)

var hundred = decimal.NewFromInt(100)

// QuantityPolicy decides how many units are free for quantity-conditional
// offers (bogo, bundle) once the minimum quantity is met. The exact
// multiplier is a product decision, so it is injected rather than hard-coded.
type QuantityPolicy func(kind product.OfferKind, value decimal.Decimal, quantity, minQuantity int) int

// FreeUnitsPerSet is the default QuantityPolicy: for every full minQuantity
// units in the line, the offer's value (interpreted as a unit count) is
// granted for free. The result is clamped to [0, quantity].
func FreeUnitsPerSet(_ product.OfferKind, value decimal.Decimal, quantity, minQuantity int) int {
	if minQuantity <= 0 {
		minQuantity = 1
	}
	sets := quantity / minQuantity
	free := sets * int(value.IntPart())
	if free < 0 {
		free = 0
	}
	if free > quantity {
		free = quantity
	}
	return free
}

// Line is the result of pricing a single cart line.
type Line struct {
	// UnitPrice is the per-unit price after percentage/fixed offers. For
	// quantity-conditional offers it stays at the base price and the
	// discount shows up in LineTotal instead.
	UnitPrice decimal.Decimal
	// LineTotal is the full price for the requested quantity. Not rounded;
	// rounding happens once, at the order edge.
	LineTotal decimal.Decimal
	// OfferApplied reports whether an effectively active offer changed the price.
	OfferApplied bool
}

// Quote prices quantity units of p under its offer as of now. An offer that
// is not effectively active is ignored entirely. The unit price never goes
// below zero.
func Quote(p *product.Product, now time.Time, quantity int, policy QuantityPolicy) Line {
	unit := p.Price
	qty := decimal.NewFromInt(int64(quantity))
	offer := p.Offer

	if !offer.EffectiveAt(now) {
		return Line{UnitPrice: unit, LineTotal: unit.Mul(qty)}
	}

	switch offer.Kind {
	case product.OfferPercentage:
		unit = unit.Sub(unit.Mul(offer.Value).Div(hundred))
		if unit.IsNegative() {
			unit = decimal.Zero
		}
		return Line{UnitPrice: unit, LineTotal: unit.Mul(qty), OfferApplied: true}

	case product.OfferFixed:
		unit = unit.Sub(offer.Value)
		if unit.IsNegative() {
			unit = decimal.Zero
		}
		return Line{UnitPrice: unit, LineTotal: unit.Mul(qty), OfferApplied: true}

	case product.OfferBogo, product.OfferBundle:
		if offer.MinQuantity > 0 && quantity < offer.MinQuantity {
			return Line{UnitPrice: unit, LineTotal: unit.Mul(qty)}
		}
		if policy == nil {
			policy = FreeUnitsPerSet
		}
		free := policy(offer.Kind, offer.Value, quantity, offer.MinQuantity)
		if free < 0 {
			free = 0
		}
		if free > quantity {
			free = quantity
		}
		paid := decimal.NewFromInt(int64(quantity - free))
		return Line{UnitPrice: unit, LineTotal: unit.Mul(paid), OfferApplied: free > 0}

	default:
		return Line{UnitPrice: unit, LineTotal: unit.Mul(qty)}
	}
}
