// Package notify delivers newly raised alerts.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

// LogNotifier writes each alert to the structured log. It never fails.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier logging under the "notify" name.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

// Notify implements port.AlertNotifier.
func (n *LogNotifier) Notify(_ context.Context, alert domain.Alert) error {
	level := zap.InfoLevel
	if alert.Severity == domain.SeverityCritical {
		level = zap.WarnLevel
	}
	n.logger.Log(level, "alert raised",
		zap.String("alert_id", alert.AlertID),
		zap.String("user_id", alert.UserID),
		zap.String("alert_type", string(alert.AlertType)),
		zap.String("severity", string(alert.Severity)),
		zap.String("current_value", alert.CurrentValue.String()),
		zap.String("message", alert.Message),
	)
	return nil
}
