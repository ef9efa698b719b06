package aggregation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Totals are the settled month figures of a user.
type Totals struct {
	Spending decimal.Decimal
	Income   decimal.Decimal
	Count    int
}

// TotalBalance sums every account balance.
func TotalBalance(accounts []domain.Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// MonthlyTotals aggregates the completed transactions of now's calendar month.
// Transfers count towards Count but not towards Spending or Income.
func MonthlyTotals(txs []domain.Transaction, now time.Time) Totals {
	month := MonthWindow(now)
	totals := Totals{Spending: decimal.Zero, Income: decimal.Zero}

	for _, tx := range txs {
		if !tx.IsCompleted() || !month.Contains(tx.Timestamp) {
			continue
		}
		totals.Count++
		if tx.IsTransfer() {
			continue
		}
		switch tx.Amount.Sign() {
		case -1:
			totals.Spending = totals.Spending.Add(tx.Amount.Abs())
		case 1:
			totals.Income = totals.Income.Add(tx.Amount)
		}
	}
	return totals
}

// isSpending reports whether tx is a settled, non-transfer debit.
func isSpending(tx domain.Transaction) bool {
	return tx.IsCompleted() && !tx.IsTransfer() && tx.Amount.IsNegative()
}
