package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCouponRepo struct {
	coupon *Coupon
	err    error
}

func (m *mockCouponRepo) FindByCode(_ context.Context, _ string) (*Coupon, error) {
	return m.coupon, m.err
}

type mockRedemptions struct {
	count int
	err   error
}

func (m *mockRedemptions) CountCouponRedemptions(_ context.Context, _, _ string) (int, error) {
	return m.count, m.err
}

func newEvaluator(repo *mockCouponRepo, red *mockRedemptions, now time.Time) *Evaluator {
	e := NewEvaluator(repo, red)
	e.now = func() time.Time { return now }
	return e
}

func TestEvaluate(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	pastTime := fixedNow.Add(-24 * time.Hour)
	futureTime := fixedNow.Add(24 * time.Hour)

	tests := []struct {
		name         string
		coupon       *Coupon
		repoErr      error
		userUses     int
		subtotal     string
		wantDiscount string
		wantShipping bool
		wantErr      error
	}{
		{
			name:    "unknown code",
			repoErr: ErrNotFound,
			subtotal: "1000",
			wantErr: ErrNotFound,
		},
		{
			name:     "inactive status",
			coupon:   &Coupon{Code: "OFF10", Kind: KindPercentage, Value: decimal.NewFromInt(10), Status: StatusInactive},
			subtotal: "1000",
			wantErr:  ErrInactive,
		},
		{
			name:     "expired status stored as expired",
			coupon:   &Coupon{Code: "OFF10", Kind: KindPercentage, Value: decimal.NewFromInt(10), Status: StatusExpired},
			subtotal: "1000",
			wantErr:  ErrInactive,
		},
		{
			name:     "not yet started",
			coupon:   &Coupon{Code: "SOON", Kind: KindPercentage, Value: decimal.NewFromInt(10), Status: StatusActive, StartsAt: &futureTime},
			subtotal: "1000",
			wantErr:  ErrExpired,
		},
		{
			name:     "past expiry",
			coupon:   &Coupon{Code: "OLD", Kind: KindPercentage, Value: decimal.NewFromInt(10), Status: StatusActive, ExpiresAt: &pastTime},
			subtotal: "1000",
			wantErr:  ErrExpired,
		},
		{
			name: "below minimum order",
			coupon: &Coupon{
				Code: "BIG", Kind: KindFixed, Value: decimal.NewFromInt(200),
				MinOrder: decimal.NewFromInt(500), Status: StatusActive,
			},
			subtotal: "499.99",
			wantErr:  ErrBelowMinimum,
		},
		{
			name: "global limit reached",
			coupon: &Coupon{
				Code: "LIMITED", Kind: KindPercentage, Value: decimal.NewFromInt(10),
				TotalLimit: 100, UsageCount: 100, Status: StatusActive,
			},
			subtotal: "1000",
			wantErr:  ErrGlobalLimitReached,
		},
		{
			name: "per-user limit reached",
			coupon: &Coupon{
				Code: "ONCE", Kind: KindPercentage, Value: decimal.NewFromInt(10),
				PerUserLimit: 1, Status: StatusActive,
			},
			userUses: 1,
			subtotal: "1000",
			wantErr:  ErrUserLimitReached,
		},
		{
			name: "percentage discount",
			coupon: &Coupon{
				Code: "OFF10", Kind: KindPercentage, Value: decimal.NewFromInt(10),
				Status: StatusActive,
			},
			subtotal:     "1800",
			wantDiscount: "180",
		},
		{
			name: "fixed discount with min order satisfied",
			coupon: &Coupon{
				Code: "FLAT200", Kind: KindFixed, Value: decimal.NewFromInt(200),
				MinOrder: decimal.NewFromInt(500), Status: StatusActive,
			},
			subtotal:     "1800",
			wantDiscount: "200",
		},
		{
			name: "fixed discount capped at subtotal",
			coupon: &Coupon{
				Code: "FLAT500", Kind: KindFixed, Value: decimal.NewFromInt(500),
				Status: StatusActive,
			},
			subtotal:     "300",
			wantDiscount: "300",
		},
		{
			name: "free shipping waives fee without subtotal discount",
			coupon: &Coupon{
				Code: "SHIPFREE", Kind: KindFreeShipping, Status: StatusActive,
				Value: decimal.Zero,
			},
			subtotal:     "1000",
			wantDiscount: "0",
			wantShipping: true,
		},
		{
			name: "unlimited coupon ignores usage count",
			coupon: &Coupon{
				Code: "FOREVER", Kind: KindFixed, Value: decimal.NewFromInt(50),
				TotalLimit: 0, UsageCount: 99999, Status: StatusActive,
			},
			subtotal:     "1000",
			wantDiscount: "50",
		},
		{
			name: "per-user limit with remaining uses succeeds",
			coupon: &Coupon{
				Code: "TWICE", Kind: KindFixed, Value: decimal.NewFromInt(50),
				PerUserLimit: 2, Status: StatusActive,
			},
			userUses:     1,
			subtotal:     "1000",
			wantDiscount: "50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEvaluator(
				&mockCouponRepo{coupon: tt.coupon, err: tt.repoErr},
				&mockRedemptions{count: tt.userUses},
				fixedNow,
			)

			got, err := e.Evaluate(context.Background(), "CODE", decimal.RequireFromString(tt.subtotal), "u1")

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, decimal.RequireFromString(tt.wantDiscount).Equal(got.Discount),
				"expected discount %s, got %s", tt.wantDiscount, got.Discount)
			assert.Equal(t, tt.wantShipping, got.FreeShipping)
		})
	}
}

// Quantified invariant: regardless of subtotal or clock, a coupon at its
// global cap is never valid.
func TestEvaluate_NeverValidAtGlobalCap(t *testing.T) {
	subtotals := []string{"0", "0.01", "500", "99999.99"}
	offsets := []time.Duration{-48 * time.Hour, 0, 48 * time.Hour}

	for _, sub := range subtotals {
		for _, off := range offsets {
			e := newEvaluator(
				&mockCouponRepo{coupon: &Coupon{
					Code: "CAP", Kind: KindPercentage, Value: decimal.NewFromInt(10),
					TotalLimit: 1, UsageCount: 1, Status: StatusActive,
				}},
				&mockRedemptions{},
				time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC).Add(off),
			)

			_, err := e.Evaluate(context.Background(), "CAP", decimal.RequireFromString(sub), "u1")
			assert.ErrorIs(t, err, ErrGlobalLimitReached, "subtotal=%s offset=%s", sub, off)
		}
	}
}

func TestEvaluate_RedemptionCounterNotConsultedWithoutPerUserLimit(t *testing.T) {
	e := newEvaluator(
		&mockCouponRepo{coupon: &Coupon{
			Code: "OPEN", Kind: KindFixed, Value: decimal.NewFromInt(10), Status: StatusActive,
		}},
		&mockRedemptions{err: assert.AnError},
		time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	)

	got, err := e.Evaluate(context.Background(), "OPEN", decimal.NewFromInt(100), "u1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(got.Discount))
}
