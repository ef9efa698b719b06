package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/finance-insights-bfa-go/internal/alerting"
	"github.com/boddenberg/finance-insights-bfa-go/internal/config"
	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
	"github.com/boddenberg/finance-insights-bfa-go/internal/handler"
	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/cache"
	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/client"
	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/notify"
	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/observability"
	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/finance-insights-bfa-go/internal/port"
	"github.com/boddenberg/finance-insights-bfa-go/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// Amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Bool("analytics_backend", cfg.AnalyticsBackendURL != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("attempt_timeout", cfg.AttemptTimeout),
		zap.Duration("alert_refire_cooldown", cfg.AlertRefireCooldown),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "finance-insights-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	accountCache := cache.New[[]domain.Account](cfg.CacheTTL,
		cache.WithName("accounts"),
		cache.WithRecorder(metrics),
	)

	// --- Sources ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	sourceCfg := cfg.SourceResilience()
	cb := resilience.NewCircuitBreaker("sources")

	var accounts port.AccountSource
	var transactions port.TransactionSource

	if cfg.UseSupabase {
		logger.Info("using Supabase as data source",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		sb := supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cb,
			sourceCfg,
			logger,
		)
		accounts = sb
		transactions = sb
	} else {
		logger.Info("using HTTP API clients as data source")
		accounts = client.NewAccountsClient(httpClient, cfg.AccountsAPIURL, cb, sourceCfg)
		transactions = client.NewTransactionsClient(httpClient, cfg.TransactionsAPIURL, cb, sourceCfg)
	}

	// --- Analytics backend ---
	invoker := resilience.NewInvoker("analytics", cfg.RemoteResilience(), metrics, logger,
		resilience.WithRateLimit(cfg.RemoteRateLimit, cfg.RemoteRateBurst),
	)

	opts := []service.Option{
		service.WithAccountCache(accountCache),
		service.WithNotifier(notify.NewLogNotifier(logger)),
		service.WithTransactionLimit(cfg.TransactionLimit),
		service.WithTrendDays(cfg.TrendDays),
	}
	if cfg.AnalyticsBackendURL != "" {
		opts = append(opts, service.WithAnalyticsBackend(client.NewAnalyticsClient(httpClient, cfg.AnalyticsBackendURL)))
	} else {
		logger.Warn("analytics backend not configured, insights computed locally")
	}

	// --- Services ---
	store := alerting.NewStore(alerting.WithRefireCooldown(cfg.AlertRefireCooldown))
	svc := service.NewInsightsService(accounts, transactions, invoker, store, metrics, logger, opts...)

	// --- Router ---
	router := handler.NewRouter(svc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
