// Package app wires the API server together: configuration, storage, domain
// services, HTTP surface, health probes, and graceful shutdown.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/gkpcrackers/storefront/internal/cartstore"
	"github.com/gkpcrackers/storefront/internal/domain/analytics"
	"github.com/gkpcrackers/storefront/internal/domain/order"
	"github.com/gkpcrackers/storefront/internal/domain/wallet"
	"github.com/gkpcrackers/storefront/internal/httpapi"
	"github.com/gkpcrackers/storefront/internal/repository"
	"github.com/gkpcrackers/storefront/pkg/health"
	"github.com/gkpcrackers/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Redis cart session store.
	carts, err := cartstore.New(ctx, cfg.RedisURL, cfg.CartTTL)
	if err != nil {
		return errors.Wrap(err, "create cart store")
	}
	defer func() {
		if err := carts.Close(); err != nil {
			lg.Warn("Closing cart store", zap.Error(err))
		}
	}()

	// Health probes.
	healthSvc := health.New()
	healthSvc.AddReadiness(health.Probe{
		Name:    "postgres",
		Timeout: 5 * time.Second,
		Check: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
	})
	healthSvc.AddReadiness(health.Probe{
		Name:    "redis",
		Timeout: 5 * time.Second,
		Check:   carts.Ping,
	})
	healthSvc.AddLiveness(health.Probe{
		Name:    "goroutines",
		Timeout: time.Second,
		Check:   health.GoroutineCountCheck(10000),
	})
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	catalogRepo := repository.NewCatalogRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	walletRepo := repository.NewWalletRepository(pool)
	referralRepo := repository.NewReferralRepository(pool)
	announcementRepo := repository.NewAnnouncementRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)

	// Domain services.
	ledger := wallet.NewLedger(walletRepo)
	orderService := order.NewService(carts, orderRepo, ledger, settingsRepo)
	analyticsService := analytics.NewService(orderRepo, profileRepo, catalogRepo)

	// HTTP surface.
	apiMetrics, err := httpapi.NewMetrics(m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "register api metrics")
	}
	api := httpapi.NewServer(
		httpapi.Config{
			ImageBaseURL: cfg.ImageBaseURL,
			APIKeyPepper: []byte(cfg.APIKeyPepper),
		},
		catalogRepo,
		profileRepo,
		carts,
		orderService,
		orderRepo,
		ledger,
		referralRepo,
		announcementRepo,
		settingsRepo,
		analyticsService,
		apikeyRepo,
		apiMetrics,
	)

	routeFinder := api.RouteFinder()
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", api.Router())

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
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-API-Key", httpapi.SessionHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
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
