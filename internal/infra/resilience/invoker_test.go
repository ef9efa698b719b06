package resilience_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/observability"
	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/resilience"
)

func fastConfig() resilience.Config {
	return resilience.Config{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		AttemptTimeout: time.Second,
	}
}

func newTestInvoker(opts ...resilience.InvokerOption) (*resilience.Invoker, *observability.Metrics) {
	metrics := observability.NewMetrics()
	return resilience.NewInvoker("analytics", fastConfig(), metrics, zap.NewNop(), opts...), metrics
}

func localValue(v int) resilience.LocalFunc[int] {
	return func(context.Context) (int, error) { return v, nil }
}

func TestInvoke_RemoteSuccess(t *testing.T) {
	inv, metrics := newTestInvoker()
	var calls int32
	fallbackCalled := false

	got, err := resilience.Invoke(context.Background(), inv, "dashboard",
		func(context.Context) (int, error) {
			atomic.AddInt32(&calls, 1)
			return 42, nil
		},
		func(context.Context) (int, error) {
			fallbackCalled = true
			return 0, nil
		})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.False(t, fallbackCalled)

	snap := metrics.GetInsightsSnapshot()
	assert.Equal(t, int64(1), snap.RemoteAttempts)
	assert.Equal(t, int64(0), snap.Fallbacks)
}

func TestInvoke_RetriesTransientThenFallsBack(t *testing.T) {
	inv, metrics := newTestInvoker()
	var calls int32

	got, err := resilience.Invoke(context.Background(), inv, "dashboard",
		func(context.Context) (int, error) {
			atomic.AddInt32(&calls, 1)
			return 0, &domain.ErrRemoteStatus{Service: "analytics", StatusCode: http.StatusServiceUnavailable}
		},
		localValue(7))

	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "1 attempt + 2 retries")

	snap := metrics.GetInsightsSnapshot()
	assert.Equal(t, int64(3), snap.RemoteAttempts)
	assert.Equal(t, int64(3), snap.RemoteFailures)
	assert.Equal(t, int64(1), snap.Fallbacks)
}

func TestInvoke_RecoversOnRetry(t *testing.T) {
	inv, _ := newTestInvoker()
	var calls int32

	got, err := resilience.Invoke(context.Background(), inv, "trend",
		func(context.Context) (int, error) {
			if atomic.AddInt32(&calls, 1) < 3 {
				return 0, errors.New("connection reset")
			}
			return 99, nil
		},
		localValue(0))

	require.NoError(t, err)
	assert.Equal(t, 99, got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestInvoke_ClientErrorNotRetried(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"bad request", &domain.ErrRemoteStatus{Service: "analytics", StatusCode: http.StatusBadRequest}},
		{"not found", &domain.ErrRemoteStatus{Service: "analytics", StatusCode: http.StatusNotFound}},
		{"malformed", &domain.ErrMalformedResponse{Service: "analytics", Err: errors.New("unexpected EOF")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv, _ := newTestInvoker()
			var calls int32

			got, err := resilience.Invoke(context.Background(), inv, "spending",
				func(context.Context) (int, error) {
					atomic.AddInt32(&calls, 1)
					return 0, tc.err
				},
				localValue(5))

			require.NoError(t, err)
			assert.Equal(t, 5, got)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestInvoke_PerAttemptTimeoutIsRetried(t *testing.T) {
	metrics := observability.NewMetrics()
	cfg := fastConfig()
	cfg.AttemptTimeout = 20 * time.Millisecond
	inv := resilience.NewInvoker("analytics", cfg, metrics, zap.NewNop())
	var calls int32

	got, err := resilience.Invoke(context.Background(), inv, "alerts",
		func(ctx context.Context) (int, error) {
			atomic.AddInt32(&calls, 1)
			<-ctx.Done()
			return 0, ctx.Err()
		},
		localValue(3))

	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestInvoke_FallbackFailure(t *testing.T) {
	inv, _ := newTestInvoker()
	cause := errors.New("transactions source down")

	_, err := resilience.Invoke(context.Background(), inv, "dashboard",
		func(context.Context) (int, error) {
			return 0, &domain.ErrRemoteStatus{Service: "analytics", StatusCode: http.StatusBadGateway}
		},
		func(context.Context) (int, error) { return 0, cause })

	var fbErr *domain.ErrFallbackFailed
	require.ErrorAs(t, err, &fbErr)
	assert.Equal(t, "dashboard", fbErr.Operation)
	assert.ErrorIs(t, err, cause)
}

func TestInvoke_NilRemoteUsesFallback(t *testing.T) {
	inv, metrics := newTestInvoker()

	got, err := resilience.Invoke[int](context.Background(), inv, "recommendations", nil, localValue(11))

	require.NoError(t, err)
	assert.Equal(t, 11, got)

	snap := metrics.GetInsightsSnapshot()
	assert.Equal(t, int64(0), snap.RemoteAttempts)
	assert.Equal(t, int64(1), snap.Fallbacks)
}

func TestInvoke_CallerCancellationSkipsFallback(t *testing.T) {
	inv, _ := newTestInvoker()
	ctx, cancel := context.WithCancel(context.Background())
	fallbackCalled := false

	_, err := resilience.Invoke(ctx, inv, "dashboard",
		func(context.Context) (int, error) {
			cancel()
			return 0, errors.New("interrupted")
		},
		func(context.Context) (int, error) {
			fallbackCalled = true
			return 1, nil
		})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, fallbackCalled)
}

func TestInvoke_OpenCircuitGoesStraightToFallback(t *testing.T) {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "analytics-test",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	})
	_, _ = cb.Execute(func() (any, error) { return nil, errors.New("boom") })
	require.Equal(t, gobreaker.StateOpen, cb.State())

	inv, _ := newTestInvoker(resilience.WithCircuitBreaker(cb))
	var calls int32

	got, err := resilience.Invoke(context.Background(), inv, "dashboard",
		func(context.Context) (int, error) {
			atomic.AddInt32(&calls, 1)
			return 1, nil
		},
		localValue(2))

	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestInvoke_RateLimitedStillSucceeds(t *testing.T) {
	inv, _ := newTestInvoker(resilience.WithRateLimit(1000, 1))

	for i := 0; i < 3; i++ {
		got, err := resilience.Invoke(context.Background(), inv, "dashboard",
			func(context.Context) (int, error) { return i, nil },
			localValue(-1))
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want resilience.ErrorClass
	}{
		{"network", errors.New("dial tcp: connection refused"), resilience.ClassTransient},
		{"deadline", context.DeadlineExceeded, resilience.ClassTransient},
		{"5xx", &domain.ErrRemoteStatus{StatusCode: 500}, resilience.ClassTransient},
		{"503 wrapped", &domain.ErrExternalService{Service: "x", Err: &domain.ErrRemoteStatus{StatusCode: 503}}, resilience.ClassTransient},
		{"4xx", &domain.ErrRemoteStatus{StatusCode: 422}, resilience.ClassClient},
		{"malformed", &domain.ErrMalformedResponse{Err: errors.New("bad json")}, resilience.ClassClient},
		{"not found", &domain.ErrNotFound{Resource: "user"}, resilience.ClassClient},
		{"breaker open", gobreaker.ErrOpenState, resilience.ClassCircuitOpen},
		{"half-open full", gobreaker.ErrTooManyRequests, resilience.ClassCircuitOpen},
		{"canceled", context.Canceled, resilience.ClassCanceled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, resilience.Classify(tc.err))
		})
	}
}
