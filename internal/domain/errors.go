package domain

import "fmt"

// Error types for consistent error handling across the BFA.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrRemoteStatus carries the HTTP status of a failed remote call.
type ErrRemoteStatus struct {
	Service    string
	StatusCode int
}

func (e *ErrRemoteStatus) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

// ErrMalformedResponse indicates a remote body that could not be decoded.
type ErrMalformedResponse struct {
	Service string
	Err     error
}

func (e *ErrMalformedResponse) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Service, e.Err)
}

func (e *ErrMalformedResponse) Unwrap() error {
	return e.Err
}

// ErrFallbackFailed indicates the local recomputation of an operation failed
// after the remote path was abandoned. There is no further fallback.
type ErrFallbackFailed struct {
	Operation string
	Err       error
}

func (e *ErrFallbackFailed) Error() string {
	return fmt.Sprintf("fallback failed for %s: %v", e.Operation, e.Err)
}

func (e *ErrFallbackFailed) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}
