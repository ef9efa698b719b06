package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

// ============================================================
// Accounts (implements port.AccountSource)
// ============================================================

// accountRow maps the accounts table columns.
type accountRow struct {
	ID       string          `json:"id"`
	OwnerID  string          `json:"owner_id"`
	Type     string          `json:"account_type"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// GetAccounts lists every account owned by userID.
func (c *Client) GetAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	body, err := c.query(ctx, "accounts", url.Values{
		"owner_id": {"eq." + userID},
		"order":    {"created_at.asc"},
	})
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return []domain.Account{}, nil
	}

	var rows []accountRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.ErrMalformedResponse{Service: "supabase/accounts", Err: err}
	}

	accounts := make([]domain.Account, 0, len(rows))
	for _, r := range rows {
		accounts = append(accounts, domain.Account{
			ID:       r.ID,
			OwnerID:  r.OwnerID,
			Type:     domain.AccountType(r.Type),
			Balance:  r.Balance,
			Currency: r.Currency,
		})
	}
	return accounts, nil
}

// ============================================================
// Transactions (implements port.TransactionSource)
// ============================================================

// transactionRow maps the transactions table columns.
type transactionRow struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Status      string          `json:"status"`
	OccurredAt  string          `json:"occurred_at"`
	Merchant    string          `json:"merchant"`
	Description string          `json:"description"`
}

// GetTransactions lists the latest limit transactions of userID.
func (c *Client) GetTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int("limit", limit))

	body, err := c.query(ctx, "transactions", url.Values{
		"owner_id": {"eq." + userID},
		"order":    {"occurred_at.desc"},
		"limit":    {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return []domain.Transaction{}, nil
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.ErrMalformedResponse{Service: "supabase/transactions", Err: err}
	}

	transactions := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		ts, err := parseTimestamp(r.OccurredAt)
		if err != nil {
			c.logger.Warn("skipping transaction with unparseable timestamp",
				zap.String("transaction_id", r.ID),
				zap.String("user_id", userID),
				zap.String("occurred_at", r.OccurredAt),
			)
			continue
		}
		transactions = append(transactions, domain.Transaction{
			ID:          r.ID,
			OwnerID:     r.OwnerID,
			AccountID:   r.AccountID,
			Amount:      r.Amount,
			Category:    domain.Category(r.Category),
			Status:      domain.TransactionStatus(r.Status),
			Timestamp:   ts,
			Merchant:    r.Merchant,
			Description: r.Description,
		})
	}
	return transactions, nil
}

// parseTimestamp accepts RFC 3339, Postgres text timestamps and bare dates.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05Z07:00", "2006-01-02 15:04:05Z07", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
