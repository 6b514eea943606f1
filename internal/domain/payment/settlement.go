package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/cart"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/coupon"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/order"
)

var (
	// ErrUnknownSession is returned for an absent or already-settled session.
	// Duplicate callbacks for the same payment land here, which is what makes
	// settlement idempotent.
	ErrUnknownSession = errors.New("unknown or already settled payment session")
	// ErrInvalidSignature is returned when the gateway proof does not verify.
	ErrInvalidSignature = errors.New("invalid payment signature")
	// ErrTotalMismatch is returned when the re-derived server total no longer
	// matches the amount the session was opened for: price manipulation or
	// state drift between session creation and payment.
	ErrTotalMismatch = errors.New("order total mismatch")
	// ErrNeedsReconciliation is returned when payment was verified but the
	// commit lost a stock or coupon race. The order is persisted with a
	// reconciliation flag for a downstream refund/backorder workflow.
	ErrNeedsReconciliation = errors.New("payment captured but order requires manual reconciliation")
)

// Proof is the gateway's payment confirmation forwarded by the client.
type Proof struct {
	GatewayOrderRef  string
	GatewayPaymentID string
	Signature        string
}

// TotalAssembler re-derives an authoritative quote from current state.
type TotalAssembler interface {
	Assemble(ctx context.Context, userID string, items []cart.Item, couponCode string, deliveryFee decimal.Decimal) (*order.Quote, error)
}

// Settler verifies payment proofs and commits orders. Every claimed amount
// and payload from the client is ignored; only the session record, the
// gateway signature, and a fresh assembly decide the outcome.
type Settler struct {
	sessions    SessionStore
	gateway     Gateway
	assembler   TotalAssembler
	carts       cart.Repository
	orders      order.Repository
	committer   order.Committer
	deliveryFee decimal.Decimal
	now         func() time.Time
}

// NewSettler creates a Settler. deliveryFee must come from the same source
// the session-opening path used, so that re-derived totals are comparable.
func NewSettler(
	sessions SessionStore,
	gateway Gateway,
	assembler TotalAssembler,
	carts cart.Repository,
	orders order.Repository,
	committer order.Committer,
	deliveryFee decimal.Decimal,
) *Settler {
	return &Settler{
		sessions:    sessions,
		gateway:     gateway,
		assembler:   assembler,
		carts:       carts,
		orders:      orders,
		committer:   committer,
		deliveryFee: deliveryFee,
		now:         time.Now,
	}
}

// Settle runs the settlement gates in order: consume the session exactly
// once, verify the proof signature, re-derive the total from current cart and
// coupon state, then commit stock, coupon usage, order, and cart clearing as
// one transaction.
func (s *Settler) Settle(ctx context.Context, userID string, p Proof) (*order.Order, error) {
	lg := zctx.From(ctx)

	// Gate 1: exactly-once session consumption. A replayed or foreign session
	// never reaches verification.
	sess, err := s.sessions.Consume(ctx, p.GatewayOrderRef)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionConsumed) {
			return nil, ErrUnknownSession
		}
		return nil, errors.Wrap(err, "consume session")
	}
	if sess.UserID != userID {
		lg.Warn("settlement attempt against another user's session",
			zap.String("session_id", sess.ID),
			zap.String("session_user", sess.UserID),
			zap.String("caller", userID),
		)
		return nil, ErrUnknownSession
	}

	// Gate 2: cryptographic proof verification.
	if !s.gateway.VerifySignature(p.GatewayOrderRef, p.GatewayPaymentID, p.Signature) {
		lg.Warn("payment proof signature rejected",
			zap.String("session_id", sess.ID),
			zap.String("gateway_order_ref", p.GatewayOrderRef),
			zap.String("gateway_payment_id", p.GatewayPaymentID),
		)
		s.failSession(ctx, p.GatewayOrderRef)
		return nil, ErrInvalidSignature
	}

	// Gate 3: re-derive the total from the current cart, not from anything
	// the client claimed. Any drift since session creation rejects here.
	items, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "read cart")
	}
	q, err := s.assembler.Assemble(ctx, userID, items, sess.CouponCode, s.deliveryFee)
	if err != nil {
		// Pricing rejections (stock drop, coupon no longer valid, product
		// gone) surface verbatim so the client knows what changed.
		lg.Warn("settlement re-assembly failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		s.failSession(ctx, p.GatewayOrderRef)
		return nil, err
	}
	if !q.FinalTotal.Equal(sess.Amount) || q.Fingerprint != sess.Fingerprint {
		lg.Warn("settlement total drifted from session",
			zap.String("session_id", sess.ID),
			zap.String("session_amount", sess.Amount.String()),
			zap.String("server_total", q.FinalTotal.String()),
		)
		s.failSession(ctx, p.GatewayOrderRef)
		return nil, ErrTotalMismatch
	}

	o := s.buildOrder(userID, q, sess, p)
	if err := s.committer.Commit(ctx, o); err != nil {
		var stockErr *order.InsufficientStockError
		if errors.As(err, &stockErr) ||
			errors.Is(err, coupon.ErrGlobalLimitReached) ||
			errors.Is(err, coupon.ErrUserLimitReached) {
			// Payment is already captured; losing the race here is the one
			// case that must not vanish. Persist the order flagged for manual
			// reconciliation instead of rolling the money situation under the rug.
			o.FulfillmentStatus = order.FulfillmentReconciliation
			if createErr := s.orders.Create(ctx, o); createErr != nil {
				return nil, errors.Wrap(createErr, "persist reconciliation order")
			}
			lg.Error("settlement lost commit race after captured payment",
				zap.String("order_id", o.ID),
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
			return nil, errors.Wrapf(ErrNeedsReconciliation, "order %s", o.ID)
		}
		return nil, errors.Wrap(err, "commit order")
	}

	return o, nil
}

func (s *Settler) buildOrder(userID string, q *order.Quote, sess *Session, p Proof) *order.Order {
	return &order.Order{
		ID:                uuid.New().String(),
		UserID:            userID,
		Lines:             q.Lines,
		ItemsSubtotal:     q.ItemsSubtotal,
		CouponCode:        q.CouponCode,
		CouponDiscount:    q.CouponDiscount,
		TaxAmount:         q.TaxAmount,
		DeliveryFee:       q.DeliveryFee,
		FinalTotal:        q.FinalTotal,
		PaymentMethod:     order.PaymentGateway,
		PaymentStatus:     order.PaymentPaid,
		FulfillmentStatus: order.FulfillmentConfirmed,
		GatewayOrderRef:   sess.GatewayOrderRef,
		GatewayPaymentID:  p.GatewayPaymentID,
		GatewaySignature:  p.Signature,
		CreatedAt:         s.now(),
	}
}

// failSession marks the session terminally failed so the same proof cannot
// be retried. Best effort: the replay guard in Settle already holds.
func (s *Settler) failSession(ctx context.Context, ref string) {
	if err := s.sessions.SetStatus(ctx, ref, SessionFailed); err != nil {
		zctx.From(ctx).Error("mark session failed", zap.String("gateway_order_ref", ref), zap.Error(err))
	}
}
