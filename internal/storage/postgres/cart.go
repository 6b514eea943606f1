package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/cart"
)

const (
	getCartSQL = `SELECT product_id, size, color, quantity, displayed_price
		FROM cart_items WHERE user_id = $1 ORDER BY added_at, product_id`

	upsertCartItemSQL = `INSERT INTO cart_items (user_id, product_id, size, color, quantity, displayed_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, product_id, size, color)
		DO UPDATE SET quantity = EXCLUDED.quantity, displayed_price = EXCLUDED.displayed_price`

	removeCartItemSQL = `DELETE FROM cart_items
		WHERE user_id = $1 AND product_id = $2 AND size = $3 AND color = $4`

	clearCartSQL = `DELETE FROM cart_items WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get returns all cart lines for a user in insertion order.
func (r *CartRepository) Get(ctx context.Context, userID string) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, getCartSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("getting cart for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var it cart.Item
		err := row.Scan(&it.ProductID, &it.Size, &it.Color, &it.Quantity, &it.DisplayedPrice)
		return it, err
	})
}

// Upsert inserts the line or replaces the quantity of an existing one.
func (r *CartRepository) Upsert(ctx context.Context, userID string, item cart.Item) error {
	_, err := r.pool.Exec(ctx, upsertCartItemSQL,
		userID, item.ProductID, item.Size, item.Color, item.Quantity, item.DisplayedPrice)
	if err != nil {
		return fmt.Errorf("upserting cart item for user %q: %w", userID, err)
	}
	return nil
}

// Remove deletes a single cart line. Removing an absent line is a no-op.
func (r *CartRepository) Remove(ctx context.Context, userID, productID, size, color string) error {
	_, err := r.pool.Exec(ctx, removeCartItemSQL, userID, productID, size, color)
	if err != nil {
		return fmt.Errorf("removing cart item for user %q: %w", userID, err)
	}
	return nil
}

// Clear removes every line of the user's cart.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, clearCartSQL, userID)
	if err != nil {
		return fmt.Errorf("clearing cart for user %q: %w", userID, err)
	}
	return nil
}
