// Command seed-db loads the product catalog, starter coupons, and an API key
// into the database for local development and integration tests.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/storage/postgres"
)

type variantJSON struct {
	Size  string `json:"size"`
	Color string `json:"color"`
	Stock int    `json:"stock"`
}

type offerJSON struct {
	Kind        string          `json:"kind"`
	Value       decimal.Decimal `json:"value"`
	MinQuantity int             `json:"min_quantity"`
	Active      bool            `json:"active"`
}

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Brand    string          `json:"brand"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
	Variants []variantJSON   `json:"variants"`
	Offer    *offerJSON      `json:"offer"`
}

type couponSeed struct {
	code         string
	kind         string
	value        string
	minOrder     string
	totalLimit   int
	perUserLimit int
	expiresIn    time.Duration
	description  string
}

var couponSeeds = []couponSeed{
	{code: "WELCOME10", kind: "percentage", value: "10", perUserLimit: 1, expiresIn: 90 * 24 * time.Hour, description: "10% off your first order"},
	{code: "FLAT200", kind: "fixed", value: "200", minOrder: "1500", expiresIn: 30 * 24 * time.Hour, description: "Flat 200 off orders over 1500"},
	{code: "SHIPFREE", kind: "free_shipping", value: "0", expiresIn: 60 * 24 * time.Hour, description: "Free delivery"},
	{code: "VIP500", kind: "fixed", value: "500", minOrder: "3000", totalLimit: 100, perUserLimit: 1, expiresIn: 14 * 24 * time.Hour, description: "500 off for the first 100 orders over 3000"},
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or LUXE_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or LUXE_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("LUXE_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("LUXE_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, apiKeyPepper string) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if apiKey != "" {
		if err := seedAPIKey(ctx, pool, apiKey, apiKeyPepper); err != nil {
			return errors.Wrap(err, "seed api key")
		}
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}

	for _, p := range products {
		_, err := pool.Exec(ctx, `INSERT INTO products (id, name, brand, category, price, image_url)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, brand = EXCLUDED.brand, category = EXCLUDED.category,
				price = EXCLUDED.price, image_url = EXCLUDED.image_url`,
			p.ID, p.Name, p.Brand, p.Category, p.Price, p.ImageURL)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		for _, v := range p.Variants {
			_, err := pool.Exec(ctx, `INSERT INTO product_variants (product_id, size, color, stock)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (product_id, size, color) DO UPDATE SET stock = EXCLUDED.stock`,
				p.ID, v.Size, v.Color, v.Stock)
			if err != nil {
				return errors.Wrapf(err, "upsert variant %s/%s/%s", p.ID, v.Size, v.Color)
			}
		}

		if p.Offer != nil {
			_, err := pool.Exec(ctx, `INSERT INTO offers (product_id, active, kind, value, min_quantity)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (product_id) DO UPDATE SET
					active = EXCLUDED.active, kind = EXCLUDED.kind,
					value = EXCLUDED.value, min_quantity = EXCLUDED.min_quantity`,
				p.ID, p.Offer.Active, p.Offer.Kind, p.Offer.Value, p.Offer.MinQuantity)
			if err != nil {
				return errors.Wrapf(err, "upsert offer for %s", p.ID)
			}
		}
	}

	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	now := time.Now()
	for _, c := range couponSeeds {
		minOrder := c.minOrder
		if minOrder == "" {
			minOrder = "0"
		}
		expiresAt := now.Add(c.expiresIn)
		_, err := pool.Exec(ctx, `INSERT INTO coupons
			(code, kind, value, min_order, total_limit, per_user_limit, status, starts_at, expires_at, description)
			VALUES ($1, $2, $3, $4, $5, $6, 'active', $7, $8, $9)
			ON CONFLICT (code) DO UPDATE SET
				kind = EXCLUDED.kind, value = EXCLUDED.value, min_order = EXCLUDED.min_order,
				total_limit = EXCLUDED.total_limit, per_user_limit = EXCLUDED.per_user_limit,
				status = EXCLUDED.status, expires_at = EXCLUDED.expires_at,
				description = EXCLUDED.description`,
			c.code, c.kind, c.value, minOrder, c.totalLimit, c.perUserLimit, now, expiresAt, c.description)
		if err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}
	}

	slog.Info("coupons seeded", slog.Int("count", len(couponSeeds)))
	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	hash := hex.EncodeToString(mac.Sum(nil))

	_, err := pool.Exec(ctx, `INSERT INTO api_keys (id, key_hash, name, active)
		VALUES ('seed', $1, 'seed key', TRUE)
		ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash, active = TRUE`,
		hash)
	if err != nil {
		return errors.Wrap(err, "upsert api key")
	}

	slog.Info("api key seeded")
	return nil
}
