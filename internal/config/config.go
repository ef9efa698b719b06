package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/resilience"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// External services. An empty AnalyticsBackendURL disables the remote
	// path and every operation is computed locally.
	AccountsAPIURL      string `envconfig:"ACCOUNTS_API_URL" default:"http://localhost:8081"`
	TransactionsAPIURL  string `envconfig:"TRANSACTIONS_API_URL" default:"http://localhost:8082"`
	AnalyticsBackendURL string `envconfig:"ANALYTICS_BACKEND_URL"`

	// HTTP client
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	// Resilience of analytics backend calls
	MaxRetries      int           `envconfig:"MAX_RETRIES" default:"2"`
	InitialBackoff  time.Duration `envconfig:"INITIAL_BACKOFF" default:"1s"`
	AttemptTimeout  time.Duration `envconfig:"ATTEMPT_TIMEOUT" default:"5s"`
	MaxConcurrency  int           `envconfig:"MAX_CONCURRENCY" default:"50"`
	RemoteRateLimit float64       `envconfig:"REMOTE_RATE_LIMIT" default:"0"`
	RemoteRateBurst int           `envconfig:"REMOTE_RATE_BURST" default:"10"`

	// Resilience of account/transaction source calls
	SourceMaxRetries     int           `envconfig:"SOURCE_MAX_RETRIES" default:"2"`
	SourceInitialBackoff time.Duration `envconfig:"SOURCE_INITIAL_BACKOFF" default:"100ms"`

	// Cache
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"30s"`

	// Insights
	TransactionLimit    int           `envconfig:"TRANSACTION_LIMIT" default:"500"`
	TrendDays           int           `envconfig:"TREND_DAYS" default:"30"`
	AlertRefireCooldown time.Duration `envconfig:"ALERT_REFIRE_COOLDOWN" default:"0s"`

	// Observability. Empty disables trace export.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Supabase
	SupabaseURL        string `envconfig:"SUPABASE_URL"`
	SupabaseAnonKey    string `envconfig:"SUPABASE_ANON_KEY"`
	SupabaseServiceKey string `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`
	UseSupabase        bool   `envconfig:"USE_SUPABASE" default:"false"`
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("config: PORT out of range: %d", c.Port)
	case c.MaxRetries < 0 || c.SourceMaxRetries < 0:
		return fmt.Errorf("config: retry counts must not be negative")
	case c.TransactionLimit <= 0:
		return fmt.Errorf("config: TRANSACTION_LIMIT must be positive")
	case c.TrendDays < 1 || c.TrendDays > 365:
		return fmt.Errorf("config: TREND_DAYS must be within 1..365, got %d", c.TrendDays)
	case c.UseSupabase && c.SupabaseURL == "":
		return fmt.Errorf("config: USE_SUPABASE requires SUPABASE_URL")
	}
	return nil
}

// RemoteResilience is the policy of analytics backend calls.
func (c *Config) RemoteResilience() resilience.Config {
	return resilience.Config{
		MaxRetries:     c.MaxRetries,
		InitialBackoff: c.InitialBackoff,
		AttemptTimeout: c.AttemptTimeout,
		MaxConcurrency: c.MaxConcurrency,
	}
}

// SourceResilience is the policy of account and transaction reads.
func (c *Config) SourceResilience() resilience.Config {
	return resilience.Config{
		MaxRetries:     c.SourceMaxRetries,
		InitialBackoff: c.SourceInitialBackoff,
		AttemptTimeout: c.HTTPTimeout,
		MaxConcurrency: c.MaxConcurrency,
	}
}
