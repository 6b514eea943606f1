// Package payment opens gateway payment sessions for authoritative totals
// and settles verified payments into committed orders.
package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle state of a payment session.
type SessionStatus string

const (
	// SessionOpen means the session awaits a payment proof.
	SessionOpen SessionStatus = "open"
	// SessionConsumed means a proof was accepted for settlement. Terminal.
	SessionConsumed SessionStatus = "consumed"
	// SessionFailed means verification or total re-derivation failed. Terminal.
	SessionFailed SessionStatus = "failed"
	// SessionAbandoned means no proof arrived before the timeout. Terminal.
	SessionAbandoned SessionStatus = "abandoned"
)

var (
	// ErrSessionNotFound is returned for a gateway order reference that was
	// never opened here.
	ErrSessionNotFound = errors.New("payment session not found")
	// ErrSessionConsumed is returned when the session already left the open
	// state: a duplicate callback, a replay, or a late proof.
	ErrSessionConsumed = errors.New("payment session already consumed")
)

// Session correlates a gateway transaction with the authoritative total it
// was opened for and a fingerprint of the cart/coupon state behind it.
type Session struct {
	ID              string
	GatewayOrderRef string
	UserID          string
	Amount          decimal.Decimal
	Currency        string
	CouponCode      string
	Fingerprint     string
	Status          SessionStatus
	CreatedAt       time.Time
}

// SessionStore persists payment sessions. Consume must be a conditional
// transition (open -> consumed) so that duplicate settlement callbacks for
// the same session serialize: exactly one caller wins.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	// Consume transitions the session to consumed and returns it. Returns
	// ErrSessionNotFound for unknown refs, ErrSessionConsumed when the
	// session is no longer open.
	Consume(ctx context.Context, gatewayOrderRef string) (*Session, error)
	SetStatus(ctx context.Context, gatewayOrderRef string, status SessionStatus) error
	// AbandonOlderThan marks still-open sessions created before the cutoff as
	// abandoned, returning how many were transitioned.
	AbandonOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
