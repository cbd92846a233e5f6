package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/paycrew/contractor-bfa-go/internal/config"
	"github.com/paycrew/contractor-bfa-go/internal/domain"
	"github.com/paycrew/contractor-bfa-go/internal/handler"
	"github.com/paycrew/contractor-bfa-go/internal/infra/cache"
	"github.com/paycrew/contractor-bfa-go/internal/infra/memstore"
	"github.com/paycrew/contractor-bfa-go/internal/infra/notify"
	"github.com/paycrew/contractor-bfa-go/internal/infra/observability"
	"github.com/paycrew/contractor-bfa-go/internal/infra/rates"
	"github.com/paycrew/contractor-bfa-go/internal/infra/resilience"
	"github.com/paycrew/contractor-bfa-go/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("rates_file", cfg.RatesFile),
		zap.Bool("watch_rates", cfg.WatchRates),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("balance_cache_ttl", cfg.BalanceCacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "contractor-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Rates ---
	rateTable, err := rates.New(cfg.RatesFile, logger)
	if err != nil {
		logger.Fatal("failed to load rate table", zap.Error(err))
	}

	// --- Notifier ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("notify-webhook")
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	notifier := notify.NewWebhook(httpClient, cfg.NotifyWebhookURL, cb, resilienceCfg, metrics, logger)

	// --- Store & cache ---
	store := memstore.New()
	balanceCache := cache.New[domain.Balance](cfg.BalanceCacheTTL)

	// --- Services ---
	lifecycleSvc := service.NewLifecycleService(store, notifier, metrics, logger)
	balanceSvc := service.NewBalanceService(store, store, rateTable, notifier, balanceCache, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(lifecycleSvc, balanceSvc, rateTable, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.WatchRates {
		g.Go(func() error {
			return rateTable.Watch(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}

	logger.Info("server stopped")
}
