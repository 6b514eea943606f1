package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/payment"
)

const (
	createSessionSQL = `INSERT INTO payment_sessions
		(gateway_order_ref, id, user_id, amount, currency, coupon_code, fingerprint, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	// The WHERE status = 'open' guard is the replay protection: under
	// concurrent callbacks only one UPDATE matches.
	consumeSessionSQL = `UPDATE payment_sessions SET status = $2
		WHERE gateway_order_ref = $1 AND status = $3
		RETURNING gateway_order_ref, id, user_id, amount, currency, coupon_code, fingerprint, status, created_at`

	sessionExistsSQL = `SELECT EXISTS (SELECT 1 FROM payment_sessions WHERE gateway_order_ref = $1)`

	setSessionStatusSQL = `UPDATE payment_sessions SET status = $2 WHERE gateway_order_ref = $1`

	abandonSessionsSQL = `UPDATE payment_sessions SET status = $1
		WHERE status = $2 AND created_at < $3`
)

var _ payment.SessionStore = (*SessionStore)(nil)

// SessionStore implements payment.SessionStore backed by PostgreSQL.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore returns a SessionStore that uses the given pool.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Create persists a new open payment session.
func (s *SessionStore) Create(ctx context.Context, sess *payment.Session) error {
	_, err := s.pool.Exec(ctx, createSessionSQL,
		sess.GatewayOrderRef, sess.ID, sess.UserID, sess.Amount, sess.Currency,
		sess.CouponCode, sess.Fingerprint, sess.Status, sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating payment session %q: %w", sess.ID, err)
	}
	return nil
}

// Consume atomically flips an open session to consumed and returns it.
// A session that exists but is no longer open yields ErrSessionConsumed; an
// unknown reference yields ErrSessionNotFound.
func (s *SessionStore) Consume(ctx context.Context, gatewayOrderRef string) (*payment.Session, error) {
	rows, err := s.pool.Query(ctx, consumeSessionSQL,
		gatewayOrderRef, payment.SessionConsumed, payment.SessionOpen)
	if err != nil {
		return nil, fmt.Errorf("consuming payment session %q: %w", gatewayOrderRef, err)
	}

	sess, err := pgx.CollectExactlyOneRow(rows, scanSession)
	if err == nil {
		return &sess, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("consuming payment session %q: %w", gatewayOrderRef, err)
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, sessionExistsSQL, gatewayOrderRef).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking payment session %q: %w", gatewayOrderRef, err)
	}
	if exists {
		return nil, payment.ErrSessionConsumed
	}
	return nil, payment.ErrSessionNotFound
}

// SetStatus moves a session to a terminal status unconditionally.
func (s *SessionStore) SetStatus(ctx context.Context, gatewayOrderRef string, status payment.SessionStatus) error {
	_, err := s.pool.Exec(ctx, setSessionStatusSQL, gatewayOrderRef, status)
	if err != nil {
		return fmt.Errorf("updating payment session %q: %w", gatewayOrderRef, err)
	}
	return nil
}

// AbandonOlderThan marks open sessions created before the cutoff as
// abandoned and reports how many were affected.
func (s *SessionStore) AbandonOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, abandonSessionsSQL,
		payment.SessionAbandoned, payment.SessionOpen, cutoff)
	if err != nil {
		return 0, fmt.Errorf("abandoning stale payment sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSession(row pgx.CollectableRow) (payment.Session, error) {
	var sess payment.Session
	err := row.Scan(&sess.GatewayOrderRef, &sess.ID, &sess.UserID, &sess.Amount,
		&sess.Currency, &sess.CouponCode, &sess.Fingerprint, &sess.Status, &sess.CreatedAt)
	return sess, err
}
