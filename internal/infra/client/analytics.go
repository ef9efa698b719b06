package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// errNullPayload rejects a 200 whose body is JSON null.
var errNullPayload = errors.New("null payload")

func nullPayload() error {
	return &domain.ErrMalformedResponse{Service: "analytics", Err: errNullPayload}
}

// AnalyticsClient reads precomputed insights from the analytics backend.
// Each method makes exactly one HTTP call; retries and fallback belong to
// the resilience.Invoker wrapping it.
type AnalyticsClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewAnalyticsClient creates a new AnalyticsClient.
func NewAnalyticsClient(httpClient *http.Client, baseURL string) *AnalyticsClient {
	return &AnalyticsClient{httpClient: httpClient, baseURL: baseURL}
}

func (c *AnalyticsClient) userURL(userID, resource string, query url.Values) string {
	u := fmt.Sprintf("%s/v1/users/%s/%s", c.baseURL, url.PathEscape(userID), resource)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *AnalyticsClient) get(ctx context.Context, span string, userID, resource string, query url.Values, out any) error {
	ctx, s := tracer.Start(ctx, "AnalyticsClient."+span)
	defer s.End()
	s.SetAttributes(attribute.String("user.id", userID))

	if err := getJSON(ctx, c.httpClient, "analytics", c.userURL(userID, resource, query), nil, out); err != nil {
		s.RecordError(err)
		return err
	}
	return nil
}

// GetDashboardSummary fetches the precomputed dashboard.
func (c *AnalyticsClient) GetDashboardSummary(ctx context.Context, userID string) (*domain.DashboardSummary, error) {
	var summary *domain.DashboardSummary
	if err := c.get(ctx, "GetDashboardSummary", userID, "dashboard", nil, &summary); err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, nullPayload()
	}
	return summary, nil
}

// GetSpendingBreakdown fetches the category breakdown for period.
func (c *AnalyticsClient) GetSpendingBreakdown(ctx context.Context, userID string, period domain.Period) ([]domain.CategoryBreakdown, error) {
	var breakdown []domain.CategoryBreakdown
	q := url.Values{"period": {string(period)}}
	if err := c.get(ctx, "GetSpendingBreakdown", userID, "spending", q, &breakdown); err != nil {
		return nil, err
	}
	if breakdown == nil {
		return nil, nullPayload()
	}
	return breakdown, nil
}

// GetBalanceTrend fetches the historical balance series.
func (c *AnalyticsClient) GetBalanceTrend(ctx context.Context, userID string, days int) (*domain.BalanceTrend, error) {
	var trend *domain.BalanceTrend
	q := url.Values{"days": {strconv.Itoa(days)}}
	if err := c.get(ctx, "GetBalanceTrend", userID, "balance-trend", q, &trend); err != nil {
		return nil, err
	}
	if trend == nil {
		return nil, nullPayload()
	}
	if trend.Points == nil {
		trend.Points = []domain.BalanceTrendPoint{}
	}
	return trend, nil
}

// GetRecommendations fetches advisory messages.
func (c *AnalyticsClient) GetRecommendations(ctx context.Context, userID string) ([]string, error) {
	var recommendations []string
	if err := c.get(ctx, "GetRecommendations", userID, "recommendations", nil, &recommendations); err != nil {
		return nil, err
	}
	if recommendations == nil {
		return nil, nullPayload()
	}
	return recommendations, nil
}

// GetAlertCandidates fetches the backend's alert evaluation for a user.
func (c *AnalyticsClient) GetAlertCandidates(ctx context.Context, userID string) ([]domain.Alert, error) {
	var alerts []domain.Alert
	if err := c.get(ctx, "GetAlertCandidates", userID, "alerts", nil, &alerts); err != nil {
		return nil, err
	}
	if alerts == nil {
		return nil, nullPayload()
	}
	return alerts, nil
}
