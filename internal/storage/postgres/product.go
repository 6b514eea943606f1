package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, brand, category, price, image_url
		FROM products ORDER BY id`

	getProductsByIDsSQL = `SELECT id, name, brand, category, price, image_url
		FROM products WHERE id = ANY($1) ORDER BY id`

	getVariantsSQL = `SELECT product_id, size, color, stock
		FROM product_variants WHERE product_id = ANY($1)
		ORDER BY product_id, size, color`

	getOffersSQL = `SELECT product_id, active, kind, value, starts_at, ends_at, min_quantity, max_uses, uses
		FROM offers WHERE product_id = ANY($1)`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
// Every read returns products with their variants and offer attached, so
// pricing always sees a complete snapshot.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns the full catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	if err := r.attach(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	products, err := r.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, product.ErrNotFound
	}
	return &products[0], nil
}

// GetByIDs returns products matching any of the given IDs. Missing IDs are
// simply absent from the result; callers decide whether that is an error.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	if err := r.attach(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// attach loads variants and offers for the given products in two batch
// queries and stitches them onto the product structs.
func (r *ProductRepository) attach(ctx context.Context, products []product.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, len(products))
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		ids[i] = products[i].ID
		byID[products[i].ID] = &products[i]
	}

	rows, err := r.pool.Query(ctx, getVariantsSQL, ids)
	if err != nil {
		return fmt.Errorf("getting product variants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			productID string
			v         product.Variant
		)
		if err := rows.Scan(&productID, &v.Size, &v.Color, &v.Stock); err != nil {
			return fmt.Errorf("scanning variant: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.Variants = append(p.Variants, v)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("getting product variants: %w", err)
	}

	offerRows, err := r.pool.Query(ctx, getOffersSQL, ids)
	if err != nil {
		return fmt.Errorf("getting product offers: %w", err)
	}
	defer offerRows.Close()
	for offerRows.Next() {
		var (
			productID string
			o         product.Offer
		)
		err := offerRows.Scan(&productID, &o.Active, &o.Kind, &o.Value,
			&o.StartsAt, &o.EndsAt, &o.MinQuantity, &o.MaxUses, &o.Uses)
		if err != nil {
			return fmt.Errorf("scanning offer: %w", err)
		}
		if p, ok := byID[productID]; ok {
			offer := o
			p.Offer = &offer
		}
	}
	if err := offerRows.Err(); err != nil {
		return fmt.Errorf("getting product offers: %w", err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.Category, &p.Price, &p.ImageURL)
	return p, err
}
