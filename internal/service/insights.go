package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/finance-insights-bfa-go/internal/aggregation"
	"github.com/boddenberg/finance-insights-bfa-go/internal/alerting"
	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/observability"
	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/finance-insights-bfa-go/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/insights")

const (
	MinTrendDays = 1
	MaxTrendDays = 365

	defaultTransactionLimit = 500
	defaultTrendDays        = 30
)

// InsightsService serves dashboard, spending, trend, recommendation and
// alert queries. Every read goes to the analytics backend first and falls
// back to computing the answer from the user's accounts and transactions.
type InsightsService struct {
	accounts     port.AccountSource
	transactions port.TransactionSource
	backend      port.AnalyticsBackend
	invoker      *resilience.Invoker
	store        *alerting.Store
	notifier     port.AlertNotifier
	accountCache port.Cache[[]domain.Account]
	metrics      *observability.Metrics
	logger       *zap.Logger

	now              func() time.Time
	noise            aggregation.NoiseFunc
	transactionLimit int
	trendDays        int
}

// Option customizes an InsightsService.
type Option func(*InsightsService)

// WithAnalyticsBackend enables the remote path. Without it every operation
// is computed locally.
func WithAnalyticsBackend(b port.AnalyticsBackend) Option {
	return func(s *InsightsService) { s.backend = b }
}

// WithNotifier delivers newly raised alerts.
func WithNotifier(n port.AlertNotifier) Option {
	return func(s *InsightsService) { s.notifier = n }
}

// WithAccountCache caches account reads per user.
func WithAccountCache(c port.Cache[[]domain.Account]) Option {
	return func(s *InsightsService) { s.accountCache = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *InsightsService) { s.now = now }
}

// WithNoise sets the perturbation of synthesized balance trends.
func WithNoise(n aggregation.NoiseFunc) Option {
	return func(s *InsightsService) { s.noise = n }
}

// WithTransactionLimit bounds how many transactions a snapshot reads.
func WithTransactionLimit(n int) Option {
	return func(s *InsightsService) {
		if n > 0 {
			s.transactionLimit = n
		}
	}
}

// WithTrendDays sets the dashboard trend length.
func WithTrendDays(n int) Option {
	return func(s *InsightsService) {
		if n >= MinTrendDays && n <= MaxTrendDays {
			s.trendDays = n
		}
	}
}

// NewInsightsService creates the service with all dependencies injected.
func NewInsightsService(
	accounts port.AccountSource,
	transactions port.TransactionSource,
	invoker *resilience.Invoker,
	store *alerting.Store,
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts ...Option,
) *InsightsService {
	s := &InsightsService{
		accounts:         accounts,
		transactions:     transactions,
		invoker:          invoker,
		store:            store,
		metrics:          metrics,
		logger:           logger,
		now:              time.Now,
		noise:            aggregation.RandomNoise,
		transactionLimit: defaultTransactionLimit,
		trendDays:        defaultTrendDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================
// Aggregation
// ============================================================

// GetDashboardSummary returns the user's dashboard.
func (s *InsightsService) GetDashboardSummary(ctx context.Context, userID string) (*domain.DashboardSummary, error) {
	ctx, span := tracer.Start(ctx, "InsightsService.GetDashboardSummary")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))
	defer s.observe("dashboard", time.Now())

	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	var remote resilience.RemoteFunc[*domain.DashboardSummary]
	if s.backend != nil {
		remote = func(ctx context.Context) (*domain.DashboardSummary, error) {
			return s.backend.GetDashboardSummary(ctx, userID)
		}
	}

	return resilience.Invoke(ctx, s.invoker, "dashboard", remote,
		func(ctx context.Context) (*domain.DashboardSummary, error) {
			snapshot, err := s.snapshot(ctx, userID)
			if err != nil {
				return nil, err
			}
			return aggregation.Summarize(snapshot, s.now(), s.trendDays, s.noise), nil
		})
}

// GetSpendingBreakdown returns the top spending categories of period.
func (s *InsightsService) GetSpendingBreakdown(ctx context.Context, userID string, period domain.Period) ([]domain.CategoryBreakdown, error) {
	ctx, span := tracer.Start(ctx, "InsightsService.GetSpendingBreakdown")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("period", string(period)))
	defer s.observe("spending", time.Now())

	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if period != domain.PeriodMonth && period != domain.PeriodWeek {
		return nil, &domain.ErrValidation{Field: "period", Message: "must be MONTH or WEEK"}
	}

	var remote resilience.RemoteFunc[[]domain.CategoryBreakdown]
	if s.backend != nil {
		remote = func(ctx context.Context) ([]domain.CategoryBreakdown, error) {
			return s.backend.GetSpendingBreakdown(ctx, userID, period)
		}
	}

	return resilience.Invoke(ctx, s.invoker, "spending", remote,
		func(ctx context.Context) ([]domain.CategoryBreakdown, error) {
			txs, err := s.transactions.GetTransactions(ctx, userID, s.transactionLimit)
			if err != nil {
				s.metrics.IncrExternalError("transactions")
				return nil, fmt.Errorf("transactions fetch: %w", err)
			}
			return aggregation.CategoryBreakdown(txs, aggregation.PeriodWindow(period, s.now())), nil
		})
}

// GetBalanceTrend returns a daily balance series of the given length.
func (s *InsightsService) GetBalanceTrend(ctx context.Context, userID string, days int) (*domain.BalanceTrend, error) {
	ctx, span := tracer.Start(ctx, "InsightsService.GetBalanceTrend")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int("days", days))
	defer s.observe("balance_trend", time.Now())

	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if days < MinTrendDays || days > MaxTrendDays {
		return nil, &domain.ErrValidation{Field: "days", Message: fmt.Sprintf("must be between %d and %d", MinTrendDays, MaxTrendDays)}
	}

	var remote resilience.RemoteFunc[*domain.BalanceTrend]
	if s.backend != nil {
		remote = func(ctx context.Context) (*domain.BalanceTrend, error) {
			return s.backend.GetBalanceTrend(ctx, userID, days)
		}
	}

	return resilience.Invoke(ctx, s.invoker, "balance_trend", remote,
		func(ctx context.Context) (*domain.BalanceTrend, error) {
			accounts, err := s.getAccounts(ctx, userID)
			if err != nil {
				return nil, err
			}
			trend := aggregation.SynthesizeTrend(aggregation.TotalBalance(accounts), days, s.now(), s.noise)
			return &trend, nil
		})
}

// GetRecommendations returns at most aggregation.MaxRecommendations messages.
func (s *InsightsService) GetRecommendations(ctx context.Context, userID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "InsightsService.GetRecommendations")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))
	defer s.observe("recommendations", time.Now())

	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	var remote resilience.RemoteFunc[[]string]
	if s.backend != nil {
		remote = func(ctx context.Context) ([]string, error) {
			return s.backend.GetRecommendations(ctx, userID)
		}
	}

	recs, err := resilience.Invoke(ctx, s.invoker, "recommendations", remote,
		func(ctx context.Context) ([]string, error) {
			snapshot, err := s.snapshot(ctx, userID)
			if err != nil {
				return nil, err
			}
			return aggregation.Recommend(snapshot, s.now()), nil
		})
	if err != nil {
		return nil, err
	}
	if len(recs) > aggregation.MaxRecommendations {
		recs = recs[:aggregation.MaxRecommendations]
	}
	return recs, nil
}

// ============================================================
// Alerts
// ============================================================

// GetActiveAlerts evaluates the alert rules, records newly raised alerts
// and returns every ACTIVE alert of the user.
func (s *InsightsService) GetActiveAlerts(ctx context.Context, userID string) ([]domain.Alert, error) {
	ctx, span := tracer.Start(ctx, "InsightsService.GetActiveAlerts")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))
	defer s.observe("alerts", time.Now())

	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	var remote resilience.RemoteFunc[[]domain.Alert]
	if s.backend != nil {
		remote = func(ctx context.Context) ([]domain.Alert, error) {
			return s.backend.GetAlertCandidates(ctx, userID)
		}
	}

	candidates, err := resilience.Invoke(ctx, s.invoker, "alerts", remote,
		func(ctx context.Context) ([]domain.Alert, error) {
			snapshot, err := s.snapshot(ctx, userID)
			if err != nil {
				return nil, err
			}
			return alerting.Evaluate(snapshot, s.now()), nil
		})
	if err != nil {
		return nil, err
	}

	added := s.store.Merge(userID, alerting.Canonicalize(userID, candidates))
	for _, alert := range added {
		s.metrics.IncrAlertTriggered(alert.AlertType, alert.Severity)
		s.logger.Info("alert triggered",
			zap.String("alert_id", alert.AlertID),
			zap.String("user_id", userID),
			zap.String("severity", string(alert.Severity)),
		)
		s.notify(ctx, alert)
	}
	span.SetAttributes(attribute.Int("alerts.added", len(added)))

	return s.store.Active(userID), nil
}

// ResolveAlert marks an alert RESOLVED. Unknown and already resolved ids are
// accepted silently.
func (s *InsightsService) ResolveAlert(ctx context.Context, alertID string) error {
	_, span := tracer.Start(ctx, "InsightsService.ResolveAlert")
	defer span.End()
	span.SetAttributes(attribute.String("alert.id", alertID))

	if strings.TrimSpace(alertID) == "" {
		return &domain.ErrValidation{Field: "alertId", Message: "is required"}
	}
	if s.store.Resolve(alertID) {
		s.metrics.IncrAlertResolved()
		s.logger.Info("alert resolved", zap.String("alert_id", alertID))
	}
	return nil
}

// GetAlertHistory returns every alert raised for the user, resolved included.
func (s *InsightsService) GetAlertHistory(ctx context.Context, userID string) ([]domain.Alert, error) {
	_, span := tracer.Start(ctx, "InsightsService.GetAlertHistory")
	defer span.End()

	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	return s.store.History(userID), nil
}

func (s *InsightsService) notify(ctx context.Context, alert domain.Alert) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, alert); err != nil {
		s.logger.Warn("alert notification failed",
			zap.String("alert_id", alert.AlertID),
			zap.Error(err),
		)
		return
	}
	s.store.MarkNotified(alert.AlertID)
}

// ============================================================
// Health
// ============================================================

// TrendDays is the default balance trend length.
func (s *InsightsService) TrendDays() int {
	return s.trendDays
}

// Health reports the analytics backend as degraded while its breaker is open.
// A service without a backend is always healthy.
func (s *InsightsService) Health() domain.HealthStatus {
	now := s.now().UTC().Format(time.RFC3339)
	services := []domain.ServiceHealth{
		{Name: "bfa-api", Status: "healthy", LastChecked: now},
	}
	overall := "healthy"
	if s.backend != nil {
		status := "healthy"
		if s.invoker.State() == gobreaker.StateOpen {
			status = "degraded"
			overall = "degraded"
		}
		services = append(services, domain.ServiceHealth{
			Name: s.invoker.Name(), Status: status, LastChecked: now,
		})
	}
	return domain.HealthStatus{Status: overall, Services: services}
}

// ============================================================
// Snapshot
// ============================================================

// snapshot fetches accounts and transactions concurrently.
func (s *InsightsService) snapshot(ctx context.Context, userID string) (domain.Snapshot, error) {
	snapshot := domain.Snapshot{UserID: userID}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		accounts, err := s.getAccounts(gCtx, userID)
		if err != nil {
			return err
		}
		snapshot.Accounts = accounts
		return nil
	})

	g.Go(func() error {
		txs, err := s.transactions.GetTransactions(gCtx, userID, s.transactionLimit)
		if err != nil {
			s.logger.Error("failed to fetch transactions",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			s.metrics.IncrExternalError("transactions")
			return fmt.Errorf("transactions fetch: %w", err)
		}
		snapshot.Transactions = txs
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, err
	}
	return snapshot, nil
}

func (s *InsightsService) getAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	cacheKey := "accounts:" + userID
	if s.accountCache != nil {
		if cached, ok := s.accountCache.Get(cacheKey); ok {
			return cached, nil
		}
	}

	accounts, err := s.accounts.GetAccounts(ctx, userID)
	if err != nil {
		s.logger.Error("failed to fetch accounts",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("accounts")
		return nil, fmt.Errorf("accounts fetch: %w", err)
	}
	if s.accountCache != nil {
		s.accountCache.Set(cacheKey, accounts)
	}
	return accounts, nil
}

func (s *InsightsService) observe(operation string, start time.Time) {
	s.metrics.RecordRequestDuration(operation, time.Since(start))
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &domain.ErrValidation{Field: "userId", Message: "is required"}
	}
	return nil
}
