package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind enumerates the supported coupon discount strategies.
type Kind string

const (
	// KindPercentage applies a percentage of the order subtotal.
	KindPercentage Kind = "percentage"
	// KindFixed applies a fixed monetary discount capped at the subtotal.
	KindFixed Kind = "fixed"
	// KindFreeShipping waives the delivery fee; it is not a subtotal discount.
	KindFreeShipping Kind = "free_shipping"
)

// Status is the stored lifecycle state of a coupon.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusExpired  Status = "expired"
)

// Rejection reasons, ordered the same way Evaluate checks them. The first
// failing gate wins so callers always get a deterministic reason.
var (
	ErrNotFound           = errors.New("coupon not found")
	ErrInactive           = errors.New("coupon is not active")
	ErrExpired            = errors.New("coupon expired")
	ErrBelowMinimum       = errors.New("order subtotal below coupon minimum")
	ErrGlobalLimitReached = errors.New("coupon usage limit reached")
	ErrUserLimitReached   = errors.New("coupon already used by this user")
)

// Coupon is an order-scoped promotional code with global and per-user caps.
type Coupon struct {
	Code         string
	Kind         Kind
	Value        decimal.Decimal
	MinOrder     decimal.Decimal
	TotalLimit   int
	PerUserLimit int
	UsageCount   int
	Status       Status
	StartsAt     *time.Time
	ExpiresAt    *time.Time
	Description  string
}

// Result is a successful evaluation: the monetary discount on the subtotal
// plus whether the delivery fee is waived.
type Result struct {
	Code         string
	Discount     decimal.Decimal
	FreeShipping bool
	Description  string
}

// Repository provides coupon lookup. Usage counters are mutated only at
// commit time, through the order commit path, never here.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}

// RedemptionCounter reports how many committed orders of a user reference a
// coupon code. Deriving the per-user count from orders avoids counter drift.
type RedemptionCounter interface {
	CountCouponRedemptions(ctx context.Context, userID, code string) (int, error)
}
