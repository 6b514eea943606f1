package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/order"
)

// Manager opens payment sessions with the gateway. The amount is always
// taken from a server-assembled quote, never from anything a client sent.
type Manager struct {
	gateway  Gateway
	sessions SessionStore
	currency string
	now      func() time.Time
}

// NewManager creates a Manager charging in the given currency.
func NewManager(gateway Gateway, sessions SessionStore, currency string) *Manager {
	return &Manager{
		gateway:  gateway,
		sessions: sessions,
		currency: currency,
		now:      time.Now,
	}
}

// Open creates a gateway session for the quote's final total and persists the
// correlation record settlement will need. Staleness of the quote is not
// checked here; settlement re-derives the total and catches drift.
func (m *Manager) Open(ctx context.Context, userID string, q *order.Quote) (*Session, error) {
	ref, err := m.gateway.CreateSession(ctx, q.FinalTotal, m.currency)
	if err != nil {
		if errors.Is(err, ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, errors.Wrap(err, "create gateway session")
	}

	s := &Session{
		ID:              uuid.New().String(),
		GatewayOrderRef: ref,
		UserID:          userID,
		Amount:          q.FinalTotal,
		Currency:        m.currency,
		CouponCode:      q.CouponCode,
		Fingerprint:     q.Fingerprint,
		Status:          SessionOpen,
		CreatedAt:       m.now(),
	}
	if err := m.sessions.Create(ctx, s); err != nil {
		return nil, errors.Wrap(err, "persist payment session")
	}
	return s, nil
}
