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

// AccountsClient fetches account data from the Accounts API.
type AccountsClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewAccountsClient creates a new AccountsClient.
func NewAccountsClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *AccountsClient {
	return &AccountsClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// GetAccounts fetches a user's accounts with retry, circuit breaker, and tracing.
func (c *AccountsClient) GetAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "AccountsClient.GetAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	endpoint := fmt.Sprintf("%s/v1/users/%s/accounts", c.baseURL, url.PathEscape(userID))

	result, err := c.cb.Execute(func() (any, error) {
		var accounts []domain.Account
		err := resilience.RetryWithBackoff(ctx, c.cfg, func(attemptCtx context.Context) error {
			accounts = nil
			return getJSON(attemptCtx, c.httpClient, "accounts", endpoint,
				&domain.ErrNotFound{Resource: "accounts", ID: userID}, &accounts)
		})
		if err != nil {
			return nil, err
		}
		return accounts, nil
	})

	if err != nil {
		span.RecordError(err)
		return nil, &domain.ErrExternalService{Service: "accounts", Err: err}
	}

	return result.([]domain.Account), nil
}
