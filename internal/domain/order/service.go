package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/cart"
)

// Service handles the pay-on-delivery path. It bypasses the gateway but runs
// the exact same pricing and atomicity gates as settlement: assemble from
// current state immediately before commit, then commit stock, coupon usage,
// order, and cart clear together.
type Service struct {
	assembler   *Assembler
	carts       cart.Repository
	committer   Committer
	orders      Repository
	deliveryFee decimal.Decimal
	now         func() time.Time
}

// NewService creates an order Service.
func NewService(assembler *Assembler, carts cart.Repository, committer Committer, orders Repository, deliveryFee decimal.Decimal) *Service {
	return &Service{
		assembler:   assembler,
		carts:       carts,
		committer:   committer,
		orders:      orders,
		deliveryFee: deliveryFee,
		now:         time.Now,
	}
}

// PlaceCashOrder assembles the user's cart synchronously and commits the
// order with payment pending. A lost stock or coupon race is an ordinary
// rejection here: no money has moved yet.
func (s *Service) PlaceCashOrder(ctx context.Context, userID, couponCode string) (*Order, error) {
	items, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "read cart")
	}

	q, err := s.assembler.Assemble(ctx, userID, items, couponCode, s.deliveryFee)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:                uuid.New().String(),
		UserID:            userID,
		Lines:             q.Lines,
		ItemsSubtotal:     q.ItemsSubtotal,
		CouponCode:        q.CouponCode,
		CouponDiscount:    q.CouponDiscount,
		TaxAmount:         q.TaxAmount,
		DeliveryFee:       q.DeliveryFee,
		FinalTotal:        q.FinalTotal,
		PaymentMethod:     PaymentCashOnDelivery,
		PaymentStatus:     PaymentPending,
		FulfillmentStatus: FulfillmentPending,
		CreatedAt:         s.now(),
	}
	if err := s.committer.Commit(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// History returns the user's committed orders, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]Order, error) {
	list, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return list, nil
}
