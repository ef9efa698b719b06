package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Dashboard & Spending Insights
// ============================================================

// Period selects the window of a spending breakdown.
type Period string

const (
	PeriodMonth Period = "MONTH"
	PeriodWeek  Period = "WEEK"
)

// ParsePeriod accepts "month"/"week" in any case. Empty defaults to MONTH.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(PeriodMonth):
		return PeriodMonth, nil
	case string(PeriodWeek):
		return PeriodWeek, nil
	}
	return "", &ErrValidation{Field: "period", Message: "must be MONTH or WEEK"}
}

// CategoryBreakdown is the spending share of one category.
type CategoryBreakdown struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
	Percentage decimal.Decimal `json:"percentage"`
}

// BalanceTrendPoint is the balance at the start of one day.
type BalanceTrendPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Value     decimal.Decimal `json:"value"`
}

// BalanceTrend is a daily series, oldest first. Synthetic is set when the
// series was interpolated locally instead of read from history.
type BalanceTrend struct {
	Points    []BalanceTrendPoint `json:"points"`
	Synthetic bool                `json:"synthetic"`
}

// RecentTransactionType is the display direction of a transaction.
type RecentTransactionType string

const (
	RecentCredit RecentTransactionType = "CREDIT"
	RecentDebit  RecentTransactionType = "DEBIT"
)

// RecentTransaction is the dashboard projection of a transaction.
type RecentTransaction struct {
	ID          string                `json:"id"`
	Type        RecentTransactionType `json:"type"`
	Amount      decimal.Decimal       `json:"amount"`
	Description string                `json:"description"`
	Date        time.Time             `json:"date"`
}

// DashboardSummary is recomputed on every request.
type DashboardSummary struct {
	UserID                string              `json:"userId"`
	CurrentBalance        decimal.Decimal     `json:"currentBalance"`
	MonthlySpending       decimal.Decimal     `json:"monthlySpending"`
	MonthlyIncome         decimal.Decimal     `json:"monthlyIncome"`
	TransactionsThisMonth int                 `json:"transactionsThisMonth"`
	TopCategories         []CategoryBreakdown `json:"topCategories"`
	BalanceTrend          BalanceTrend        `json:"balanceTrend"`
	RecentTransactions    []RecentTransaction `json:"recentTransactions"`
	GeneratedAt           time.Time           `json:"generatedAt"`
}
