package resilience

import (
	"context"
	"errors"
	"net/http"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"

	"github.com/sony/gobreaker"
)

// ErrorClass buckets remote failures by how the invoker reacts to them.
type ErrorClass string

const (
	// ClassTransient failures are retried: network errors, timeouts, 5xx.
	ClassTransient ErrorClass = "transient"
	// ClassClient failures are not retried: 4xx, malformed payloads.
	ClassClient ErrorClass = "client"
	// ClassCircuitOpen means the breaker rejected the call without trying.
	ClassCircuitOpen ErrorClass = "circuit_open"
	// ClassCanceled means the caller gave up.
	ClassCanceled ErrorClass = "canceled"
)

// Classify maps an error to its ErrorClass. Unknown errors are treated as
// transport failures and therefore transient.
func Classify(err error) ErrorClass {
	var (
		status    *domain.ErrRemoteStatus
		malformed *domain.ErrMalformedResponse
		notFound  *domain.ErrNotFound
		invalid   *domain.ErrValidation
		circuit   *domain.ErrCircuitOpen
	)

	switch {
	case errors.Is(err, context.Canceled):
		return ClassCanceled
	case errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.As(err, &circuit):
		return ClassCircuitOpen
	case errors.As(err, &status):
		if status.StatusCode >= http.StatusBadRequest && status.StatusCode < http.StatusInternalServerError {
			return ClassClient
		}
		return ClassTransient
	case errors.As(err, &malformed), errors.As(err, &notFound), errors.As(err, &invalid):
		return ClassClient
	default:
		return ClassTransient
	}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return err != nil && Classify(err) == ClassTransient
}
