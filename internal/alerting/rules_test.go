package alerting_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/finance-insights-bfa-go/internal/alerting"
	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

var now = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func account(balance string) domain.Account {
	return domain.Account{ID: "acc-1", OwnerID: "u-1", Type: domain.AccountChecking, Balance: dec(balance)}
}

func completed(id, amount string, cat domain.Category, at time.Time) domain.Transaction {
	return domain.Transaction{
		ID:        id,
		OwnerID:   "u-1",
		AccountID: "acc-1",
		Amount:    dec(amount),
		Category:  cat,
		Status:    domain.StatusCompleted,
		Timestamp: at,
	}
}

func findAlert(alerts []domain.Alert, alertType domain.AlertType) (domain.Alert, bool) {
	for _, a := range alerts {
		if a.AlertType == alertType {
			return a, true
		}
	}
	return domain.Alert{}, false
}

func TestLowBalance_CriticalUnder500(t *testing.T) {
	snapshot := domain.Snapshot{UserID: "u-1", Accounts: []domain.Account{account("400")}}

	alerts := alerting.Evaluate(snapshot, now)

	alert, ok := findAlert(alerts, domain.AlertLowBalance)
	require.True(t, ok)
	assert.Equal(t, "lowbalance:u-1", alert.AlertID)
	assert.Equal(t, domain.SeverityCritical, alert.Severity)
	assert.True(t, dec("400").Equal(alert.CurrentValue))
	assert.True(t, dec("1000").Equal(*alert.ThresholdValue))
	assert.Equal(t, domain.AlertActive, alert.Status)
	assert.Equal(t, now, alert.TriggeredAt)
}

func TestLowBalance_Severity(t *testing.T) {
	tests := []struct {
		balance string
		fires   bool
		want    domain.AlertSeverity
	}{
		{"499.99", true, domain.SeverityCritical},
		{"500", true, domain.SeverityWarning},
		{"999.99", true, domain.SeverityWarning},
		{"1000", false, ""},
	}

	for _, tc := range tests {
		t.Run(tc.balance, func(t *testing.T) {
			snapshot := domain.Snapshot{UserID: "u-1", Accounts: []domain.Account{account(tc.balance)}}
			alert, ok := alerting.LowBalanceRule(snapshot, now)
			assert.Equal(t, tc.fires, ok)
			if ok {
				assert.Equal(t, tc.want, alert.Severity)
			}
		})
	}
}

func TestLowBalance_SkippedWithoutAccounts(t *testing.T) {
	_, ok := alerting.LowBalanceRule(domain.Snapshot{UserID: "u-1"}, now)
	assert.False(t, ok)
}

func TestSpendingThreshold(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		fires  bool
		want   domain.AlertSeverity
	}{
		{"at threshold", "-3000", false, ""},
		{"over threshold", "-3000.01", true, domain.SeverityWarning},
		{"at critical", "-4500", true, domain.SeverityWarning},
		{"over critical", "-4500.01", true, domain.SeverityCritical},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snapshot := domain.Snapshot{
				UserID:       "u-1",
				Transactions: []domain.Transaction{completed("t1", tc.amount, domain.CategoryShopping, now)},
			}
			alert, ok := alerting.SpendingThresholdRule(snapshot, now)
			require.Equal(t, tc.fires, ok)
			if ok {
				assert.Equal(t, "spending:u-1", alert.AlertID)
				assert.Equal(t, tc.want, alert.Severity)
			}
		})
	}
}

func TestLargeTransaction_WarningUnder10000(t *testing.T) {
	snapshot := domain.Snapshot{
		UserID:       "u-1",
		Transactions: []domain.Transaction{completed("tx-7", "-7000", domain.CategoryShopping, now.Add(-time.Hour))},
	}

	alert, ok := findAlert(alerting.Evaluate(snapshot, now), domain.AlertLargeTransaction)

	require.True(t, ok)
	assert.Equal(t, "largetx:u-1:tx-7", alert.AlertID)
	assert.Equal(t, "tx-7", alert.EntityID)
	assert.Equal(t, domain.SeverityWarning, alert.Severity)
	assert.True(t, dec("7000").Equal(alert.CurrentValue))
}

func TestLargeTransaction_PicksLargest(t *testing.T) {
	pending := completed("p", "-50000", domain.CategoryShopping, now)
	pending.Status = domain.StatusPending

	snapshot := domain.Snapshot{
		UserID: "u-1",
		Transactions: []domain.Transaction{
			completed("b", "-6000", domain.CategoryShopping, now),
			completed("c", "12000", domain.CategorySalary, now),
			completed("a", "-12000", domain.CategoryShopping, now),
			completed("old", "-90000", domain.CategoryShopping, now.AddDate(0, -1, 0)),
			pending,
		},
	}

	alert, ok := alerting.LargeTransactionRule(snapshot, now)

	require.True(t, ok)
	assert.Equal(t, "largetx:u-1:a", alert.AlertID)
	assert.Equal(t, domain.SeverityCritical, alert.Severity)
	assert.True(t, dec("12000").Equal(alert.CurrentValue))
}

func TestFrequentTransactions(t *testing.T) {
	build := func(n int) domain.Snapshot {
		s := domain.Snapshot{UserID: "u-1"}
		for i := 0; i < n; i++ {
			tx := completed(fmt.Sprintf("t%d", i), "-1", domain.CategoryFood, now.Add(-time.Duration(i)*time.Minute))
			if i%2 == 0 {
				tx.Status = domain.StatusPending
			}
			s.Transactions = append(s.Transactions, tx)
		}
		// exactly 24h old: outside the trailing window
		s.Transactions = append(s.Transactions, completed("stale", "-1", domain.CategoryFood, now.Add(-alerting.FrequentTransactionWindow)))
		return s
	}

	t.Run("25 is a warning", func(t *testing.T) {
		alert, ok := findAlert(alerting.Evaluate(build(25), now), domain.AlertFrequentTransactions)
		require.True(t, ok)
		assert.Equal(t, "frequent:u-1", alert.AlertID)
		assert.Equal(t, domain.SeverityWarning, alert.Severity)
		assert.True(t, decimal.NewFromInt(25).Equal(alert.CurrentValue))
	})

	t.Run("20 does not fire", func(t *testing.T) {
		_, ok := alerting.FrequentTransactionsRule(build(20), now)
		assert.False(t, ok)
	})

	t.Run("31 is critical", func(t *testing.T) {
		alert, ok := alerting.FrequentTransactionsRule(build(31), now)
		require.True(t, ok)
		assert.Equal(t, domain.SeverityCritical, alert.Severity)
	})
}

func TestBudgetExceeded_NeverWithoutIncome(t *testing.T) {
	snapshot := domain.Snapshot{
		UserID:       "u-1",
		Transactions: []domain.Transaction{completed("t1", "-99999", domain.CategoryShopping, now)},
	}

	_, ok := findAlert(alerting.Evaluate(snapshot, now), domain.AlertBudgetExceeded)
	assert.False(t, ok)
}

func TestBudgetExceeded(t *testing.T) {
	snapshot := domain.Snapshot{
		UserID: "u-1",
		Transactions: []domain.Transaction{
			completed("t1", "1000", domain.CategorySalary, now),
			completed("t2", "-1200.01", domain.CategoryShopping, now),
		},
	}

	alert, ok := alerting.BudgetExceededRule(snapshot, now)

	require.True(t, ok)
	assert.Equal(t, "budget:u-1", alert.AlertID)
	assert.Equal(t, domain.SeverityCritical, alert.Severity)
	assert.True(t, dec("1200").Equal(*alert.ThresholdValue))

	snapshot.Transactions[1].Amount = dec("-1200")
	_, ok = alerting.BudgetExceededRule(snapshot, now)
	assert.False(t, ok)
}

func TestEvaluate_IsDeterministic(t *testing.T) {
	snapshot := domain.Snapshot{
		UserID:   "u-1",
		Accounts: []domain.Account{account("200")},
		Transactions: []domain.Transaction{
			completed("t1", "100", domain.CategorySalary, now),
			completed("t2", "-6000", domain.CategoryShopping, now),
		},
	}

	first := alerting.Evaluate(snapshot, now)
	second := alerting.Evaluate(snapshot, now)

	assert.Equal(t, first, second)
	ids := make([]string, 0, len(first))
	for _, a := range first {
		ids = append(ids, a.AlertID)
	}
	assert.Equal(t, []string{"lowbalance:u-1", "spending:u-1", "largetx:u-1:t2", "budget:u-1"}, ids)
}

func TestCanonicalize(t *testing.T) {
	candidates := []domain.Alert{
		{AlertID: "uuid-1", UserID: "someone-else", AlertType: domain.AlertLowBalance},
		{AlertID: "uuid-2", AlertType: domain.AlertBudgetExceeded, EntityID: "ignored"},
		{AlertID: "uuid-3", AlertType: "OVERDRAFT"},
		{AlertID: "uuid-4", AlertType: domain.AlertLargeTransaction},
		{AlertID: "uuid-5", AlertType: domain.AlertLargeTransaction, EntityID: "tx-1"},
	}

	out := alerting.Canonicalize("u-1", candidates)

	require.Len(t, out, 3)
	assert.Equal(t, "lowbalance:u-1", out[0].AlertID)
	assert.Equal(t, "u-1", out[0].UserID)
	assert.Equal(t, "budget:u-1", out[1].AlertID)
	assert.Empty(t, out[1].EntityID)
	assert.Equal(t, "largetx:u-1:tx-1", out[2].AlertID)
	assert.Equal(t, "uuid-1", candidates[0].AlertID, "input is not mutated")
}

func TestCanonicalize_MatchesLocalEvaluation(t *testing.T) {
	snapshot := domain.Snapshot{UserID: "u-1", Accounts: []domain.Account{account("300")}}
	local := alerting.Evaluate(snapshot, now)
	require.NotEmpty(t, local)

	remote := make([]domain.Alert, len(local))
	for i, a := range local {
		a.AlertID = fmt.Sprintf("remote-%d", i)
		remote[i] = a
	}

	canonical := alerting.Canonicalize("u-1", remote)
	require.Len(t, canonical, len(local))
	for i := range local {
		assert.Equal(t, local[i].AlertID, canonical[i].AlertID)
	}
}
