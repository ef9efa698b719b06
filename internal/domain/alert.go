package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Alerts
// ============================================================

// AlertType identifies the rule that raised an alert.
type AlertType string

const (
	AlertLowBalance           AlertType = "LOW_BALANCE"
	AlertSpendingThreshold    AlertType = "SPENDING_THRESHOLD"
	AlertLargeTransaction     AlertType = "LARGE_TRANSACTION"
	AlertFrequentTransactions AlertType = "FREQUENT_TRANSACTIONS"
	AlertBudgetExceeded       AlertType = "BUDGET_EXCEEDED"
)

// AlertSeverity is WARNING or CRITICAL.
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// AlertStatus moves ACTIVE -> RESOLVED only.
type AlertStatus string

const (
	AlertActive   AlertStatus = "ACTIVE"
	AlertResolved AlertStatus = "RESOLVED"
)

// Alert is a rule outcome for one user. AlertID is derived from the rule,
// the user and, for per-transaction rules, the transaction id.
type Alert struct {
	AlertID        string           `json:"alertId"`
	UserID         string           `json:"userId"`
	AlertType      AlertType        `json:"alertType"`
	EntityID       string           `json:"entityId,omitempty"`
	Severity       AlertSeverity    `json:"severity"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	ThresholdValue *decimal.Decimal `json:"thresholdValue,omitempty"`
	CurrentValue   decimal.Decimal  `json:"currentValue"`
	Status         AlertStatus      `json:"status"`
	TriggeredAt    time.Time        `json:"triggeredAt"`
	ResolvedAt     *time.Time       `json:"resolvedAt,omitempty"`
	Notified       bool             `json:"notified"`
}

// Known reports whether t is one of the defined alert types.
func (t AlertType) Known() bool {
	switch t {
	case AlertLowBalance, AlertSpendingThreshold, AlertLargeTransaction,
		AlertFrequentTransactions, AlertBudgetExceeded:
		return true
	}
	return false
}

// IsActive reports whether the alert has not been resolved.
func (a Alert) IsActive() bool {
	return a.Status == AlertActive
}
