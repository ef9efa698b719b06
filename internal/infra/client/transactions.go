package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// TransactionsClient fetches transaction data from the Transactions API.
type TransactionsClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewTransactionsClient creates a new TransactionsClient.
func NewTransactionsClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *TransactionsClient {
	return &TransactionsClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// GetTransactions fetches up to limit recent transactions of a user with
// retry, circuit breaker, and tracing.
func (c *TransactionsClient) GetTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionsClient.GetTransactions")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.Int("limit", limit),
	)

	endpoint := fmt.Sprintf("%s/v1/users/%s/transactions?limit=%d", c.baseURL, url.PathEscape(userID), limit)

	result, err := c.cb.Execute(func() (any, error) {
		var transactions []domain.Transaction
		err := resilience.RetryWithBackoff(ctx, c.cfg, func(attemptCtx context.Context) error {
			transactions = nil
			return getJSON(attemptCtx, c.httpClient, "transactions", endpoint,
				&domain.ErrNotFound{Resource: "transactions", ID: userID}, &transactions)
		})
		if err != nil {
			return nil, err
		}
		return transactions, nil
	})

	if err != nil {
		span.RecordError(err)
		return nil, &domain.ErrExternalService{Service: "transactions", Err: err}
	}

	return result.([]domain.Transaction), nil
}
