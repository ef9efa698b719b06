// Package alerting evaluates the financial alert rules against a snapshot
// and keeps the per-user alert registry.
package alerting

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/finance-insights-bfa-go/internal/aggregation"
	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

// Rule thresholds.
var (
	LowBalanceThreshold      = decimal.NewFromInt(1000)
	LowBalanceCritical       = decimal.NewFromInt(500)
	LowBalanceAverageRatio   = decimal.NewFromFloat(0.1)
	SpendingThreshold        = decimal.NewFromInt(3000)
	SpendingCritical         = decimal.NewFromInt(4500)
	LargeTransactionLimit    = decimal.NewFromInt(5000)
	LargeTransactionCritical = decimal.NewFromInt(10000)
	BudgetOverrunRatio       = decimal.NewFromFloat(1.2)
)

const (
	FrequentTransactionLimit    = 20
	FrequentTransactionCritical = 30
	FrequentTransactionWindow   = 24 * time.Hour
)

// Rule produces at most one candidate alert for a snapshot.
type Rule func(snapshot domain.Snapshot, now time.Time) (domain.Alert, bool)

// Rules lists every rule in evaluation order.
var Rules = []Rule{
	LowBalanceRule,
	SpendingThresholdRule,
	LargeTransactionRule,
	FrequentTransactionsRule,
	BudgetExceededRule,
}

// Evaluate runs every rule against snapshot. The result depends only on its
// inputs, so re-evaluating an unchanged snapshot yields the same candidates.
func Evaluate(snapshot domain.Snapshot, now time.Time) []domain.Alert {
	candidates := make([]domain.Alert, 0, len(Rules))
	for _, rule := range Rules {
		if alert, ok := rule(snapshot, now); ok {
			candidates = append(candidates, alert)
		}
	}
	return candidates
}

// AlertID derives the deterministic id of an alert. entityID is only set for
// per-transaction rules.
func AlertID(alertType domain.AlertType, userID, entityID string) string {
	var prefix string
	switch alertType {
	case domain.AlertLowBalance:
		prefix = "lowbalance"
	case domain.AlertSpendingThreshold:
		prefix = "spending"
	case domain.AlertLargeTransaction:
		prefix = "largetx"
	case domain.AlertFrequentTransactions:
		prefix = "frequent"
	case domain.AlertBudgetExceeded:
		prefix = "budget"
	default:
		prefix = string(alertType)
	}
	if entityID == "" {
		return prefix + ":" + userID
	}
	return prefix + ":" + userID + ":" + entityID
}

// Canonicalize rewrites externally produced candidates so their ids follow
// AlertID and deduplicate like locally evaluated ones. Candidates with an
// unknown type, or a per-transaction candidate without its transaction id,
// are dropped.
func Canonicalize(userID string, candidates []domain.Alert) []domain.Alert {
	out := make([]domain.Alert, 0, len(candidates))
	for _, c := range candidates {
		if !c.AlertType.Known() {
			continue
		}
		if c.AlertType == domain.AlertLargeTransaction {
			if c.EntityID == "" {
				continue
			}
		} else {
			c.EntityID = ""
		}
		c.UserID = userID
		c.AlertID = AlertID(c.AlertType, userID, c.EntityID)
		out = append(out, c)
	}
	return out
}

func newAlert(snapshot domain.Snapshot, alertType domain.AlertType, entityID string, now time.Time) domain.Alert {
	return domain.Alert{
		AlertID:     AlertID(alertType, snapshot.UserID, entityID),
		UserID:      snapshot.UserID,
		AlertType:   alertType,
		EntityID:    entityID,
		Status:      domain.AlertActive,
		TriggeredAt: now,
	}
}

func severity(critical bool) domain.AlertSeverity {
	if critical {
		return domain.SeverityCritical
	}
	return domain.SeverityWarning
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

// LowBalanceRule fires when the total balance is under 1000, or under a
// tenth of the average account balance. Users without accounts are skipped.
func LowBalanceRule(snapshot domain.Snapshot, now time.Time) (domain.Alert, bool) {
	if len(snapshot.Accounts) == 0 {
		return domain.Alert{}, false
	}
	balance := aggregation.TotalBalance(snapshot.Accounts)
	avg := balance.Div(decimal.NewFromInt(int64(len(snapshot.Accounts))))

	low := balance.LessThan(LowBalanceThreshold) ||
		(avg.IsPositive() && balance.LessThan(avg.Mul(LowBalanceAverageRatio)))
	if !low {
		return domain.Alert{}, false
	}

	alert := newAlert(snapshot, domain.AlertLowBalance, "", now)
	alert.Severity = severity(balance.LessThan(LowBalanceCritical))
	alert.Title = "Low balance"
	alert.Message = fmt.Sprintf("Your balance of %s is below the minimum of %s.",
		balance.StringFixed(2), LowBalanceThreshold.StringFixed(2))
	alert.ThresholdValue = ptr(LowBalanceThreshold)
	alert.CurrentValue = balance
	return alert, true
}

// SpendingThresholdRule fires when month spending exceeds 3000.
func SpendingThresholdRule(snapshot domain.Snapshot, now time.Time) (domain.Alert, bool) {
	spending := aggregation.MonthlyTotals(snapshot.Transactions, now).Spending
	if !spending.GreaterThan(SpendingThreshold) {
		return domain.Alert{}, false
	}

	alert := newAlert(snapshot, domain.AlertSpendingThreshold, "", now)
	alert.Severity = severity(spending.GreaterThan(SpendingCritical))
	alert.Title = "High monthly spending"
	alert.Message = fmt.Sprintf("You have spent %s this month, above the %s threshold.",
		spending.StringFixed(2), SpendingThreshold.StringFixed(2))
	alert.ThresholdValue = ptr(SpendingThreshold)
	alert.CurrentValue = spending
	return alert, true
}

// LargeTransactionRule fires for the largest settled month transaction whose
// absolute amount exceeds 5000. Ties go to the lowest transaction id.
func LargeTransactionRule(snapshot domain.Snapshot, now time.Time) (domain.Alert, bool) {
	month := aggregation.MonthWindow(now)

	var largest *domain.Transaction
	for i := range snapshot.Transactions {
		tx := &snapshot.Transactions[i]
		if !tx.IsCompleted() || !month.Contains(tx.Timestamp) {
			continue
		}
		if !tx.Amount.Abs().GreaterThan(LargeTransactionLimit) {
			continue
		}
		if largest == nil {
			largest = tx
			continue
		}
		switch c := tx.Amount.Abs().Cmp(largest.Amount.Abs()); {
		case c > 0, c == 0 && tx.ID < largest.ID:
			largest = tx
		}
	}
	if largest == nil {
		return domain.Alert{}, false
	}

	amount := largest.Amount.Abs()
	alert := newAlert(snapshot, domain.AlertLargeTransaction, largest.ID, now)
	alert.Severity = severity(amount.GreaterThan(LargeTransactionCritical))
	alert.Title = "Large transaction"
	alert.Message = fmt.Sprintf("A transaction of %s was recorded on %s.",
		amount.StringFixed(2), largest.Timestamp.Format("2006-01-02"))
	alert.ThresholdValue = ptr(LargeTransactionLimit)
	alert.CurrentValue = amount
	return alert, true
}

// FrequentTransactionsRule fires when more than 20 transactions of any
// status happened in the trailing 24 hours.
func FrequentTransactionsRule(snapshot domain.Snapshot, now time.Time) (domain.Alert, bool) {
	since := now.Add(-FrequentTransactionWindow)

	count := 0
	for _, tx := range snapshot.Transactions {
		if tx.Timestamp.After(since) && !tx.Timestamp.After(now) {
			count++
		}
	}
	if count <= FrequentTransactionLimit {
		return domain.Alert{}, false
	}

	alert := newAlert(snapshot, domain.AlertFrequentTransactions, "", now)
	alert.Severity = severity(count > FrequentTransactionCritical)
	alert.Title = "Unusual transaction activity"
	alert.Message = fmt.Sprintf("%d transactions in the last 24 hours.", count)
	alert.ThresholdValue = ptr(decimal.NewFromInt(FrequentTransactionLimit))
	alert.CurrentValue = decimal.NewFromInt(int64(count))
	return alert, true
}

// BudgetExceededRule fires when month spending is over 120% of month income.
// It never fires without income.
func BudgetExceededRule(snapshot domain.Snapshot, now time.Time) (domain.Alert, bool) {
	totals := aggregation.MonthlyTotals(snapshot.Transactions, now)
	if !totals.Income.IsPositive() {
		return domain.Alert{}, false
	}
	limit := totals.Income.Mul(BudgetOverrunRatio)
	if !totals.Spending.GreaterThan(limit) {
		return domain.Alert{}, false
	}

	alert := newAlert(snapshot, domain.AlertBudgetExceeded, "", now)
	alert.Severity = domain.SeverityCritical
	alert.Title = "Budget exceeded"
	alert.Message = fmt.Sprintf("Spending of %s exceeds your income of %s by more than 20%%.",
		totals.Spending.StringFixed(2), totals.Income.StringFixed(2))
	alert.ThresholdValue = ptr(limit)
	alert.CurrentValue = totals.Spending
	return alert, true
}
