package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Evaluator decides whether a coupon is redeemable for a given user and
// subtotal, and computes the discount. Evaluation is strictly read-only:
// a user who previews a price a hundred times consumes nothing.
type Evaluator struct {
	coupons     Repository
	redemptions RedemptionCounter
	now         func() time.Time
}

// NewEvaluator creates an Evaluator backed by the given repositories.
func NewEvaluator(coupons Repository, redemptions RedemptionCounter) *Evaluator {
	return &Evaluator{coupons: coupons, redemptions: redemptions, now: time.Now}
}

// Evaluate runs the eligibility gates in a fixed order (first failure wins):
// existence and active status, validity window, minimum order, global cap,
// per-user cap. On success it returns the computed discount.
func (e *Evaluator) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal, userID string) (*Result, error) {
	c, err := e.coupons.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}
	if c.Status != StatusActive {
		return nil, ErrInactive
	}

	now := e.now()
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return nil, ErrExpired
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return nil, ErrExpired
	}

	if subtotal.LessThan(c.MinOrder) {
		return nil, ErrBelowMinimum
	}

	if c.TotalLimit > 0 && c.UsageCount >= c.TotalLimit {
		return nil, ErrGlobalLimitReached
	}

	if c.PerUserLimit > 0 {
		used, err := e.redemptions.CountCouponRedemptions(ctx, userID, c.Code)
		if err != nil {
			return nil, errors.Wrap(err, "count redemptions")
		}
		if used >= c.PerUserLimit {
			return nil, ErrUserLimitReached
		}
	}

	return apply(c, subtotal)
}

func apply(c *Coupon, subtotal decimal.Decimal) (*Result, error) {
	res := &Result{Code: c.Code, Discount: decimal.Zero, Description: c.Description}

	switch c.Kind {
	case KindPercentage:
		res.Discount = subtotal.Mul(c.Value).Div(hundred)
	case KindFixed:
		res.Discount = decimal.Min(c.Value, subtotal)
	case KindFreeShipping:
		res.FreeShipping = true
	default:
		return nil, errors.Errorf("unsupported coupon kind: %q", c.Kind)
	}

	if res.Discount.IsNegative() {
		res.Discount = decimal.Zero
	}
	return res, nil
}
