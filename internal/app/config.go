package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Config holds the complete application configuration, loadable from
// environment variables (LUXE_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (LUXE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (LUXE_API_KEY_PEPPER)" flag:"api-key-pepper"`

	Pricing   PricingConfig
	Gateway   GatewayConfig
	Sessions  SessionConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// PricingConfig holds the billing knobs applied to every quote.
type PricingConfig struct {
	TaxRatePercent string `default:"10" usage:"Tax percentage applied to the discounted subtotal" flag:"tax-rate"`
	DeliveryFee    string `default:"49" usage:"Flat delivery fee" flag:"delivery-fee"`
	Currency       string `default:"INR" usage:"Currency code for gateway charges"`
}

// TaxRate returns the tax percentage as a decimal.
func (c PricingConfig) TaxRate() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.TaxRatePercent)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "invalid tax rate %q", c.TaxRatePercent)
	}
	return d, nil
}

// Fee returns the delivery fee as a decimal.
func (c PricingConfig) Fee() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.DeliveryFee)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "invalid delivery fee %q", c.DeliveryFee)
	}
	return d, nil
}

// GatewayConfig holds the payment gateway credentials and endpoint.
type GatewayConfig struct {
	BaseURL   string        `default:"https://api.razorpay.com" usage:"Payment gateway base URL" flag:"gateway-url"`
	KeyID     string        `usage:"Gateway key id (LUXE_GATEWAY_KEY_ID)" flag:"gateway-key-id"`
	KeySecret string        `usage:"Gateway key secret (LUXE_GATEWAY_KEY_SECRET)" flag:"gateway-key-secret"`
	Timeout   time.Duration `default:"10s" usage:"Gateway request timeout"`
}

// SessionConfig controls the stale payment session sweeper.
type SessionConfig struct {
	AbandonAfter  time.Duration `default:"30m" usage:"Age after which open payment sessions are abandoned" flag:"session-abandon-after"`
	SweepInterval time.Duration `default:"5m"  usage:"How often to sweep stale payment sessions" flag:"session-sweep-interval"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "LUXE",
		Files:     []string{"config.yaml", "/etc/luxe/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set LUXE_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's LUXE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
