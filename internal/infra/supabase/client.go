// Package supabase reads accounts and transactions from Supabase (PostgREST).
// It is an alternative AccountSource/TransactionSource to the HTTP APIs.
package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client reads the accounts and transactions tables over PostgREST.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

// maxBodyBytes caps how much of a PostgREST response is read.
const maxBodyBytes = 8 << 20

// doGet reads rows from a PostgREST table. A 404 or 204 yields a nil body.
func (c *Client) doGet(ctx context.Context, table string, query url.Values) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "supabase.select")
	defer span.End()
	span.SetAttributes(attribute.String("db.table", table))

	endpoint := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase: build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		c.logger.Error("supabase: credentials rejected",
			zap.String("table", table),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &domain.ErrRemoteStatus{Service: "supabase/" + table, StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("supabase: non-2xx response",
			zap.String("table", table),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return nil, &domain.ErrRemoteStatus{Service: "supabase/" + table, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("supabase: read body: %w", err)
	}
	return body, nil
}

// authorize sets the PostgREST key headers. The service role key, when set,
// bypasses row level security.
func (c *Client) authorize(req *http.Request) {
	token := c.serviceRoleKey
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
}

// query runs doGet under the breaker and the retry policy.
func (c *Client) query(ctx context.Context, table string, q url.Values) ([]byte, error) {
	var body []byte
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func(attemptCtx context.Context) error {
			b, err := c.doGet(attemptCtx, table, q)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/" + table, Err: err}
	}
	return body, nil
}
