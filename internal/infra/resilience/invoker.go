package resilience

import (
	"context"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/observability"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("resilience")

// RemoteFunc performs one remote call. It is invoked once per attempt.
type RemoteFunc[T any] func(ctx context.Context) (T, error)

// LocalFunc computes the same result from local data.
type LocalFunc[T any] func(ctx context.Context) (T, error)

// Invoker applies one retry/fallback policy to every remote operation of a
// backend. It is safe for concurrent use.
type Invoker struct {
	name     string
	cfg      Config
	cb       *gobreaker.CircuitBreaker
	bulkhead *Bulkhead
	limiter  *rate.Limiter
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// InvokerOption customizes an Invoker.
type InvokerOption func(*Invoker)

// WithRateLimit throttles outbound attempts. rps <= 0 disables the limiter.
func WithRateLimit(rps float64, burst int) InvokerOption {
	return func(inv *Invoker) {
		if rps <= 0 {
			inv.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		inv.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCircuitBreaker replaces the invoker's own breaker.
func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) InvokerOption {
	return func(inv *Invoker) {
		inv.cb = cb
	}
}

// NewInvoker creates an invoker named after the backend it protects.
func NewInvoker(name string, cfg Config, metrics *observability.Metrics, logger *zap.Logger, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		name:    name,
		cfg:     cfg,
		cb:      NewCircuitBreaker(name),
		metrics: metrics,
		logger:  logger,
	}
	if cfg.MaxConcurrency > 0 {
		inv.bulkhead = NewBulkhead(cfg.MaxConcurrency)
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Name is the backend the invoker protects.
func (inv *Invoker) Name() string { return inv.name }

// State reports the circuit breaker state of the backend.
func (inv *Invoker) State() gobreaker.State { return inv.cb.State() }

// Invoke returns the remote result when it succeeds. Transient failures are
// retried per the invoker's Config; once retries are spent, or on a
// non-transient failure, fallback is evaluated instead. A nil remote goes
// straight to fallback. A fallback error is returned as
// *domain.ErrFallbackFailed. Caller cancellation is returned unchanged.
func Invoke[T any](ctx context.Context, inv *Invoker, operation string, remote RemoteFunc[T], fallback LocalFunc[T]) (T, error) {
	ctx, span := tracer.Start(ctx, "Invoker."+operation)
	defer span.End()
	span.SetAttributes(attribute.String("invoker.backend", inv.name))

	var zero T

	reason := "disabled"
	if remote != nil {
		value, err := callRemote(ctx, inv, operation, remote)
		if err == nil {
			span.SetAttributes(attribute.Bool("invoker.fallback", false))
			return value, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		reason = string(Classify(err))
		inv.logger.Warn("remote unavailable, using local fallback",
			zap.String("backend", inv.name),
			zap.String("operation", operation),
			zap.String("error_class", reason),
		)
	}

	span.SetAttributes(
		attribute.Bool("invoker.fallback", true),
		attribute.String("invoker.fallback_reason", reason),
	)
	inv.metrics.IncrFallback(operation, reason)

	value, err := fallback(ctx)
	if err != nil {
		inv.logger.Error("local fallback failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return zero, &domain.ErrFallbackFailed{Operation: operation, Err: err}
	}
	return value, nil
}

func callRemote[T any](ctx context.Context, inv *Invoker, operation string, remote RemoteFunc[T]) (T, error) {
	var result T
	attempt := 0

	err := RetryWithBackoff(ctx, inv.cfg, func(attemptCtx context.Context) error {
		attempt++
		err := inv.guard(attemptCtx, func(c context.Context) error {
			v, err := remote(c)
			if err != nil {
				return err
			}
			result = v
			return nil
		})
		if err != nil {
			inv.metrics.IncrRemoteAttempt(operation, observability.OutcomeFailure)
			inv.logger.Warn("remote attempt failed",
				zap.String("backend", inv.name),
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.String("error_class", string(Classify(err))),
				zap.Error(err),
			)
			return err
		}
		inv.metrics.IncrRemoteAttempt(operation, observability.OutcomeSuccess)
		return nil
	})
	return result, err
}

// guard runs one attempt through the bulkhead, rate limiter and breaker.
func (inv *Invoker) guard(ctx context.Context, fn func(context.Context) error) error {
	if inv.bulkhead != nil {
		if err := inv.bulkhead.Acquire(ctx); err != nil {
			return err
		}
		defer inv.bulkhead.Release()
	}
	if inv.limiter != nil {
		if err := inv.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	_, err := inv.cb.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	return err
}
