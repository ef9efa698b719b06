package aggregation

import (
	"sort"
	"time"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

// MaxRecentTransactions is the length of the dashboard activity list.
const MaxRecentTransactions = 5

// RecentTransactions returns the latest month transactions, newest first.
func RecentTransactions(txs []domain.Transaction, now time.Time) []domain.RecentTransaction {
	month := MonthWindow(now)

	inMonth := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if month.Contains(tx.Timestamp) {
			inMonth = append(inMonth, tx)
		}
	}
	sort.SliceStable(inMonth, func(i, j int) bool {
		return inMonth[i].Timestamp.Before(inMonth[j].Timestamp)
	})
	if len(inMonth) > MaxRecentTransactions {
		inMonth = inMonth[len(inMonth)-MaxRecentTransactions:]
	}

	recent := make([]domain.RecentTransaction, 0, len(inMonth))
	for i := len(inMonth) - 1; i >= 0; i-- {
		tx := inMonth[i]
		kind := domain.RecentCredit
		if tx.Amount.IsNegative() {
			kind = domain.RecentDebit
		}
		description := tx.Merchant
		if description == "" {
			description = tx.Description
		}
		recent = append(recent, domain.RecentTransaction{
			ID:          tx.ID,
			Type:        kind,
			Amount:      tx.Amount.Abs(),
			Description: description,
			Date:        tx.Timestamp,
		})
	}
	return recent
}

// Summarize builds the dashboard of snapshot as of now.
func Summarize(snapshot domain.Snapshot, now time.Time, trendDays int, noise NoiseFunc) *domain.DashboardSummary {
	balance := TotalBalance(snapshot.Accounts)
	totals := MonthlyTotals(snapshot.Transactions, now)

	return &domain.DashboardSummary{
		UserID:                snapshot.UserID,
		CurrentBalance:        balance,
		MonthlySpending:       totals.Spending,
		MonthlyIncome:         totals.Income,
		TransactionsThisMonth: totals.Count,
		TopCategories:         CategoryBreakdown(snapshot.Transactions, MonthWindow(now)),
		BalanceTrend:          SynthesizeTrend(balance, trendDays, now, noise),
		RecentTransactions:    RecentTransactions(snapshot.Transactions, now),
		GeneratedAt:           now,
	}
}
