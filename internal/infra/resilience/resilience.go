// Package resilience provides fault-tolerance patterns:
// retry with exponential backoff, circuit breaker, bulkhead, and the
// remote-with-fallback invoker built on top of them.
package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// Config holds resilience parameters.
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialBackoff is the delay before the first retry; it doubles per retry.
	InitialBackoff time.Duration
	// MaxBackoff caps a single delay. Zero means no cap beyond the retry count.
	MaxBackoff time.Duration
	// AttemptTimeout bounds one attempt. Zero disables the per-attempt deadline.
	AttemptTimeout time.Duration
	MaxConcurrency int
}

// DefaultConfig is the remote-call policy: 3 attempts, 1s then 2s apart,
// 5s per attempt.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     2,
		InitialBackoff: time.Second,
		AttemptTimeout: 5 * time.Second,
		MaxConcurrency: 50,
	}
}

// RetryWithBackoff executes fn until it succeeds, fails with a non-transient
// error, or the retry budget is spent. Delays grow as InitialBackoff×2^i with
// no jitter. Each call to fn gets its own deadline when AttemptTimeout is set.
// It respects context cancellation and returns the last error.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	op := func() error {
		attemptCtx, cancel := attemptContext(ctx, cfg)
		defer cancel()

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(ctxErr)
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(op, newBackOff(ctx, cfg))
}

func newBackOff(ctx context.Context, cfg Config) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.InitialBackoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	if cfg.MaxBackoff > 0 {
		exp.MaxInterval = cfg.MaxBackoff
	} else {
		exp.MaxInterval = cfg.InitialBackoff << uint(max(cfg.MaxRetries, 0))
	}
	exp.Reset()

	retries := max(cfg.MaxRetries, 0)
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

func attemptContext(ctx context.Context, cfg Config) (context.Context, context.CancelFunc) {
	if cfg.AttemptTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.AttemptTimeout)
}

// NewCircuitBreaker creates a circuit breaker with sensible defaults.
// Client errors do not count as failures, so a run of 4xx never opens it.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // half-open: allow 3 requests
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     10 * time.Second, // open -> half-open after 10s
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
	})
}

// Bulkhead limits concurrent access to a resource.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead with the given max concurrency.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot is available or context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	<-b.sem
}
