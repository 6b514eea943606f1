package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	ref string
	err error
}

func (g stubGateway) CreateSession(_ context.Context, _ decimal.Decimal, _ string) (string, error) {
	return g.ref, g.err
}

func (stubGateway) VerifySignature(_, _, _ string) bool { return true }

func TestManagerOpen(t *testing.T) {
	store := newFakeSessionStore()
	m := NewManager(stubGateway{ref: "order_abc"}, store, "INR")

	q := testQuote("1809")
	q.CouponCode = "SAVE10"
	sess, err := m.Open(context.Background(), "u1", q)

	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "order_abc", sess.GatewayOrderRef)
	assert.Equal(t, "u1", sess.UserID)
	assert.True(t, sess.Amount.Equal(decimal.RequireFromString("1809")))
	assert.Equal(t, "INR", sess.Currency)
	assert.Equal(t, "SAVE10", sess.CouponCode)
	assert.Equal(t, q.Fingerprint, sess.Fingerprint)
	assert.Equal(t, SessionOpen, store.status("order_abc"))
}

func TestManagerOpen_GatewayDown(t *testing.T) {
	m := NewManager(stubGateway{err: ErrGatewayUnavailable}, newFakeSessionStore(), "INR")

	_, err := m.Open(context.Background(), "u1", testQuote("100"))
	require.ErrorIs(t, err, ErrGatewayUnavailable)
}
