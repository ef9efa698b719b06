package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

const snapshotJSON = `{
  "userId": "u-cli",
  "accounts": [{"id": "a-1", "ownerId": "u-cli", "type": "CHECKING", "balance": "450.00", "currency": "USD"}],
  "transactions": [
    {"id": "t-1", "ownerId": "u-cli", "amount": "-3200", "category": "SHOPPING", "status": "COMPLETED", "timestamp": "2024-06-10T10:00:00Z"},
    {"id": "t-2", "ownerId": "u-cli", "amount": "-100", "category": "FOOD", "status": "COMPLETED", "timestamp": "2024-06-14T10:00:00Z"}
  ]
}`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshotJSON), 0o600))
	return path
}

func execute(args ...string) (string, error) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEvaluate(t *testing.T) {
	out, err := execute("evaluate", "--snapshot", writeSnapshot(t), "--now", "2024-06-15T12:00:00Z", "--days", "7")
	require.NoError(t, err)

	var report Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, "u-cli", report.Summary.UserID)
	assert.Len(t, report.BalanceTrend.Points, 7)
	assert.True(t, report.BalanceTrend.Synthetic)
	require.Len(t, report.MonthlySpending, 2)
	assert.Equal(t, "SHOPPING", report.MonthlySpending[0].Category)
	require.Len(t, report.WeeklySpending, 2)
	assert.NotEmpty(t, report.Recommendations)

	types := map[domain.AlertType]domain.AlertSeverity{}
	for _, a := range report.AlertCandidates {
		types[a.AlertType] = a.Severity
	}
	assert.Equal(t, domain.SeverityCritical, types[domain.AlertLowBalance])
	assert.Equal(t, domain.SeverityWarning, types[domain.AlertSpendingThreshold])
}

func TestEvaluate_Errors(t *testing.T) {
	path := writeSnapshot(t)

	tests := map[string][]string{
		"missing snapshot":  {"evaluate"},
		"bad now":           {"evaluate", "--snapshot", path, "--now", "yesterday"},
		"days out of range": {"evaluate", "--snapshot", path, "--days", "0"},
		"no such file":      {"evaluate", "--snapshot", filepath.Join(t.TempDir(), "missing.json")},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := execute(args...)
			assert.Error(t, err)
		})
	}
}
