package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/coupon"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, user_id, items, items_subtotal, coupon_code, coupon_discount, tax_amount,
		 delivery_fee, final_total, payment_method, payment_status, fulfillment_status,
		 gateway_order_ref, gateway_payment_id, gateway_signature, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	listOrdersSQL = `SELECT id, user_id, items, items_subtotal, coupon_code, coupon_discount,
		tax_amount, delivery_fee, final_total, payment_method, payment_status,
		fulfillment_status, gateway_order_ref, gateway_payment_id, gateway_signature, created_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	countRedemptionsSQL = `SELECT COUNT(*) FROM coupon_redemptions
		WHERE coupon_code = $1 AND user_id = $2`

	// The stock >= quantity predicate makes the decrement a compare-and-set:
	// under concurrent commits only one transaction wins the last units.
	decrementStockSQL = `UPDATE product_variants SET stock = stock - $4
		WHERE product_id = $1 AND size = $2 AND color = $3 AND stock >= $4`

	currentStockSQL = `SELECT stock FROM product_variants
		WHERE product_id = $1 AND size = $2 AND color = $3`

	lockCouponSQL = `SELECT total_limit, per_user_limit, usage_count
		FROM coupons WHERE code = $1 FOR UPDATE`

	incrementCouponUsageSQL = `UPDATE coupons SET usage_count = usage_count + 1 WHERE code = $1`

	insertRedemptionSQL = `INSERT INTO coupon_redemptions (order_id, coupon_code, user_id)
		VALUES ($1, $2, $3)`
)

var (
	_ order.Repository = (*OrderRepository)(nil)
	_ order.Committer  = (*OrderRepository)(nil)
)

// OrderRepository implements order.Repository and order.Committer backed by
// PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists an order without touching stock or coupon state. It exists
// for the reconciliation path, where payment is already captured and the
// commit race was lost.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}
	_, err = r.pool.Exec(ctx, createOrderSQL, orderArgs(o, itemsJSON)...)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// CountCouponRedemptions reports how many committed orders of the user
// redeemed the given coupon code.
func (r *OrderRepository) CountCouponRedemptions(ctx context.Context, userID, code string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, countRedemptionsSQL, code, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting redemptions of %q for user %q: %w", code, userID, err)
	}
	return n, nil
}

// Commit atomically decrements stock for every order line, redeems the
// coupon, inserts the order, and clears the user's cart. Any losing
// compare-and-set rolls the whole transaction back.
func (r *OrderRepository) Commit(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning commit transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	for _, l := range o.Lines {
		tag, err := tx.Exec(ctx, decrementStockSQL, l.ProductID, l.Size, l.Color, l.Quantity)
		if err != nil {
			return fmt.Errorf("decrementing stock for %q: %w", l.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return r.stockError(ctx, tx, l)
		}
	}

	if o.CouponCode != "" {
		if err := redeemCoupon(ctx, tx, o); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, createOrderSQL, orderArgs(o, itemsJSON)...); err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	if _, err := tx.Exec(ctx, clearCartSQL, o.UserID); err != nil {
		return fmt.Errorf("clearing cart for user %q: %w", o.UserID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// stockError builds the typed rejection for a failed stock decrement,
// reading the current count for the error detail.
func (r *OrderRepository) stockError(ctx context.Context, tx pgx.Tx, l order.Line) error {
	var available int
	err := tx.QueryRow(ctx, currentStockSQL, l.ProductID, l.Size, l.Color).Scan(&available)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("reading stock for %q: %w", l.ProductID, err)
	}
	return &order.InsufficientStockError{
		ProductID: l.ProductID,
		Size:      l.Size,
		Color:     l.Color,
		Requested: l.Quantity,
		Available: available,
	}
}

// redeemCoupon enforces the usage caps under a row lock, bumps the global
// counter, and records the redemption. The per-user count is derived from
// redemption rows inside the same transaction, so two concurrent orders of
// one user cannot both slip under the cap.
func redeemCoupon(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	var totalLimit, perUserLimit, usageCount int
	err := tx.QueryRow(ctx, lockCouponSQL, o.CouponCode).Scan(&totalLimit, &perUserLimit, &usageCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.ErrNotFound
		}
		return fmt.Errorf("locking coupon %q: %w", o.CouponCode, err)
	}
	if totalLimit > 0 && usageCount >= totalLimit {
		return coupon.ErrGlobalLimitReached
	}
	if perUserLimit > 0 {
		var used int
		if err := tx.QueryRow(ctx, countRedemptionsSQL, o.CouponCode, o.UserID).Scan(&used); err != nil {
			return fmt.Errorf("counting redemptions of %q: %w", o.CouponCode, err)
		}
		if used >= perUserLimit {
			return coupon.ErrUserLimitReached
		}
	}

	if _, err := tx.Exec(ctx, incrementCouponUsageSQL, o.CouponCode); err != nil {
		return fmt.Errorf("incrementing usage of coupon %q: %w", o.CouponCode, err)
	}
	if _, err := tx.Exec(ctx, insertRedemptionSQL, o.ID, o.CouponCode, o.UserID); err != nil {
		return fmt.Errorf("recording redemption of coupon %q: %w", o.CouponCode, err)
	}
	return nil
}

func orderArgs(o *order.Order, itemsJSON []byte) []any {
	return []any{
		o.ID, o.UserID, itemsJSON, o.ItemsSubtotal, o.CouponCode, o.CouponDiscount,
		o.TaxAmount, o.DeliveryFee, o.FinalTotal, o.PaymentMethod, o.PaymentStatus,
		o.FulfillmentStatus, o.GatewayOrderRef, o.GatewayPaymentID, o.GatewaySignature,
		o.CreatedAt,
	}
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &itemsJSON, &o.ItemsSubtotal, &o.CouponCode,
		&o.CouponDiscount, &o.TaxAmount, &o.DeliveryFee, &o.FinalTotal,
		&o.PaymentMethod, &o.PaymentStatus, &o.FulfillmentStatus,
		&o.GatewayOrderRef, &o.GatewayPaymentID, &o.GatewaySignature, &o.CreatedAt)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Lines); err != nil {
		return o, fmt.Errorf("unmarshaling order lines: %w", err)
	}
	return o, nil
}
