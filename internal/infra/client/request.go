package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

var tracer = otel.Tracer("client")

// maxBodyBytes bounds how much of a response body is decoded.
const maxBodyBytes = 4 << 20

// getJSON performs one GET and decodes a 200 response into out.
// A 404 becomes *domain.ErrNotFound when notFound is set, any other non-2xx
// becomes *domain.ErrRemoteStatus, and an undecodable body becomes
// *domain.ErrMalformedResponse.
func getJSON(ctx context.Context, httpClient *http.Client, service, url string, notFound *domain.ErrNotFound, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && notFound != nil {
		return notFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &domain.ErrRemoteStatus{Service: service, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return &domain.ErrMalformedResponse{Service: service, Err: err}
	}
	return nil
}
