package order

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/cart"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/coupon"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/pricing"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/product"
)

var hundred = decimal.NewFromInt(100)

// CouponEvaluator is the read-only coupon check the assembler runs against
// the computed subtotal.
type CouponEvaluator interface {
	Evaluate(ctx context.Context, code string, subtotal decimal.Decimal, userID string) (*coupon.Result, error)
}

// Quote is an authoritative order total: the single source of truth for how
// much to charge, plus the frozen lines that will be stored verbatim if the
// order is committed.
type Quote struct {
	Lines          []Line
	ItemsSubtotal  decimal.Decimal
	CouponCode     string
	CouponDiscount decimal.Decimal
	FreeShipping   bool
	TaxAmount      decimal.Decimal
	DeliveryFee    decimal.Decimal
	FinalTotal     decimal.Decimal
	// Fingerprint is a content hash of the lines and coupon; settlement uses
	// it to detect cart drift between session creation and payment proof.
	Fingerprint string
}

// Assembler recomputes an order total from current catalog and coupon state.
// It never trusts prices carried in the cart, and it mutates nothing: it can
// be called any number of times (preview, pre-validate, and again inside
// settlement) with identical results for unchanged backing state.
type Assembler struct {
	products product.Repository
	coupons  CouponEvaluator
	policy   pricing.QuantityPolicy
	taxRate  decimal.Decimal
	now      func() time.Time
}

// NewAssembler creates an Assembler. taxRate is a percentage applied to the
// discounted subtotal.
func NewAssembler(products product.Repository, coupons CouponEvaluator, taxRate decimal.Decimal, policy pricing.QuantityPolicy) *Assembler {
	return &Assembler{
		products: products,
		coupons:  coupons,
		policy:   policy,
		taxRate:  taxRate,
		now:      time.Now,
	}
}

// Assemble prices the given cart lines against the current catalog, applies
// an optional coupon, tax, and the delivery fee, and returns the
// authoritative total. Any missing product, unknown variant, stock shortfall,
// or invalid coupon rejects the whole assembly; there is no best-effort
// partial result.
func (a *Assembler) Assemble(ctx context.Context, userID string, items []cart.Item, couponCode string, deliveryFee decimal.Decimal) (*Quote, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]string, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := a.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]*product.Product, len(fetched))
	for i := range fetched {
		byID[fetched[i].ID] = &fetched[i]
	}

	now := a.now()
	lines := make([]Line, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}

		stock, ok := p.VariantStock(item.Size, item.Color)
		if !ok {
			return nil, &UnknownVariantError{ProductID: p.ID, Size: item.Size, Color: item.Color}
		}
		if stock < item.Quantity {
			return nil, &InsufficientStockError{
				ProductID: p.ID, Size: item.Size, Color: item.Color,
				Requested: item.Quantity, Available: stock,
			}
		}

		priced := pricing.Quote(p, now, item.Quantity, a.policy)
		lineTotal := priced.LineTotal.Round(2)
		lines = append(lines, Line{
			ProductID:    p.ID,
			Name:         p.Name,
			Brand:        p.Brand,
			ImageURL:     p.ImageURL,
			Size:         item.Size,
			Color:        item.Color,
			Quantity:     item.Quantity,
			UnitPrice:    priced.UnitPrice.Round(2),
			LineTotal:    lineTotal,
			OfferApplied: priced.OfferApplied,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	q := &Quote{
		Lines:          lines,
		ItemsSubtotal:  subtotal,
		CouponDiscount: decimal.Zero,
		DeliveryFee:    deliveryFee,
	}

	// An invalid coupon fails the whole assembly. Silently dropping it would
	// present the client a price it did not ask for.
	if couponCode != "" {
		res, err := a.coupons.Evaluate(ctx, couponCode, subtotal, userID)
		if err != nil {
			return nil, err
		}
		q.CouponCode = res.Code
		q.CouponDiscount = decimal.Min(res.Discount, subtotal).Round(2)
		q.FreeShipping = res.FreeShipping
	}

	if q.FreeShipping {
		q.DeliveryFee = decimal.Zero
	}

	taxable := subtotal.Sub(q.CouponDiscount)
	q.TaxAmount = taxable.Mul(a.taxRate).Div(hundred).Round(2)
	q.FinalTotal = taxable.Add(q.TaxAmount).Add(q.DeliveryFee).Round(2)
	q.Fingerprint = fingerprint(lines, q.CouponCode)

	return q, nil
}

// fingerprint hashes the frozen lines and coupon code into a stable content
// reference for the payment session.
func fingerprint(lines []Line, couponCode string) string {
	h := sha256.New()
	for _, l := range lines {
		fmt.Fprintf(h, "%s|%s|%s|%d|%s\n", l.ProductID, l.Size, l.Color, l.Quantity, l.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(h, "coupon=%s", couponCode)
	return hex.EncodeToString(h.Sum(nil))
}
