// Package app wires configuration, storage, domain services, and the HTTP
// server into a runnable application.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/coupon"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/order"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/payment"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/pricing"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/gateway"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/handler"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/storage/postgres"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/pkg/health"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, _ *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	taxRate, err := cfg.Pricing.TaxRate()
	if err != nil {
		return err
	}
	deliveryFee, err := cfg.Pricing.Fee()
	if err != nil {
		return err
	}

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	sessionStore := postgres.NewSessionStore(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)

	// Domain services.
	evaluator := coupon.NewEvaluator(couponRepo, orderRepo)
	assembler := order.NewAssembler(productRepo, evaluator, taxRate, pricing.FreeUnitsPerSet)
	orderService := order.NewService(assembler, cartRepo, orderRepo, orderRepo, deliveryFee)

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:   cfg.Gateway.BaseURL,
		KeyID:     cfg.Gateway.KeyID,
		KeySecret: cfg.Gateway.KeySecret,
		Timeout:   cfg.Gateway.Timeout,
	})
	paymentManager := payment.NewManager(gatewayClient, sessionStore, cfg.Pricing.Currency)
	settler := payment.NewSettler(sessionStore, gatewayClient, assembler, cartRepo, orderRepo, orderRepo, deliveryFee)

	// Periodic sweep of payment sessions that were opened but never settled.
	go sweepSessions(ctx, sessionStore, cfg.Sessions)

	// HTTP handlers.
	h := handler.NewHandler(productRepo, cartRepo, assembler, paymentManager, settler, orderService, deliveryFee)
	security := handler.NewSecurity(apikeyRepo, []byte(cfg.APIKeyPepper))

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes(security.Authenticate, handler.RequireUser))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "X-API-Key", "X-User-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// sweepSessions periodically abandons open payment sessions that outlived
// their useful life, so reconnection storms cannot settle against stale
// quotes.
func sweepSessions(ctx context.Context, store payment.SessionStore, cfg SessionConfig) {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.AbandonOlderThan(ctx, time.Now().Add(-cfg.AbandonAfter))
			if err != nil {
				zctx.From(ctx).Error("sweep payment sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				zctx.From(ctx).Info("abandoned stale payment sessions", zap.Int64("count", n))
			}
		}
	}
}
