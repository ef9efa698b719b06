// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

// AccountSource retrieves the accounts owned by a user.
type AccountSource interface {
	GetAccounts(ctx context.Context, userID string) ([]domain.Account, error)
}

// TransactionSource retrieves the most recent transactions of a user.
type TransactionSource interface {
	GetTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
}

// AnalyticsBackend is the remote service that may serve precomputed results.
// Any method may fail or time out; callers fall back to local computation.
type AnalyticsBackend interface {
	GetDashboardSummary(ctx context.Context, userID string) (*domain.DashboardSummary, error)
	GetSpendingBreakdown(ctx context.Context, userID string, period domain.Period) ([]domain.CategoryBreakdown, error)
	GetBalanceTrend(ctx context.Context, userID string, days int) (*domain.BalanceTrend, error)
	GetRecommendations(ctx context.Context, userID string) ([]string, error)
	GetAlertCandidates(ctx context.Context, userID string) ([]domain.Alert, error)
}

// AlertNotifier delivers a newly raised alert to the user.
type AlertNotifier interface {
	Notify(ctx context.Context, alert domain.Alert) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
