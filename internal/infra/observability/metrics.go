package observability

import (
	"time"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Remote attempt outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	remoteAttempts  *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	alertsTriggered *prometheus.CounterVec
	alertsResolved  prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insights_request_duration_seconds",
				Help:    "Duration of facade operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_requests_total",
				Help: "Total facade operations by result.",
			},
			[]string{"status"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_external_errors_total",
				Help: "Total errors from account/transaction sources.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		remoteAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_remote_attempts_total",
				Help: "Analytics backend attempts by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_fallbacks_total",
				Help: "Local fallback computations by operation and reason.",
			},
			[]string{"operation", "reason"},
		),
		alertsTriggered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_alerts_triggered_total",
				Help: "Alerts added to the store by type and severity.",
			},
			[]string{"type", "severity"},
		),
		alertsResolved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "insights_alerts_resolved_total",
				Help: "Alerts moved to RESOLVED.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrRemoteAttempt counts one analytics backend attempt.
func (m *Metrics) IncrRemoteAttempt(operation, outcome string) {
	m.remoteAttempts.WithLabelValues(operation, outcome).Inc()
}

// IncrFallback counts one local fallback computation.
func (m *Metrics) IncrFallback(operation, reason string) {
	m.fallbacks.WithLabelValues(operation, reason).Inc()
}

// IncrAlertTriggered counts an alert newly added to the store.
func (m *Metrics) IncrAlertTriggered(alertType domain.AlertType, severity domain.AlertSeverity) {
	m.alertsTriggered.WithLabelValues(string(alertType), string(severity)).Inc()
}

// IncrAlertResolved counts an ACTIVE -> RESOLVED transition.
func (m *Metrics) IncrAlertResolved() {
	m.alertsResolved.Inc()
}

// GetInsightsSnapshot returns the cumulative counters served by
// GET /v1/metrics/insights.
func (m *Metrics) GetInsightsSnapshot() *domain.InsightsMetrics {
	totalRequests := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	attempts := sumCounterVec(m.remoteAttempts)
	failures := sumCounterVecWhere(m.remoteAttempts, "outcome", OutcomeFailure)
	fallbacks := sumCounterVec(m.fallbacks)
	triggered := sumCounterVec(m.alertsTriggered)
	resolved := readCounter(m.alertsResolved)
	hits := sumCounterVec(m.cacheHits)
	misses := sumCounterVec(m.cacheMisses)

	fallbackRate := float64(0)
	if totalRequests > 0 {
		fallbackRate = fallbacks / totalRequests
	}
	cacheHitRate := float64(0)
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.InsightsMetrics{
		TotalRequests:   int64(totalRequests),
		RemoteAttempts:  int64(attempts),
		RemoteFailures:  int64(failures),
		Fallbacks:       int64(fallbacks),
		FallbackRate:    fallbackRate,
		AlertsTriggered: int64(triggered),
		AlertsResolved:  int64(resolved),
		CacheHitRate:    cacheHitRate,
		Period:          "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return readCounter(cv.WithLabelValues(label))
}

func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// sumCounterVec adds up every child of a CounterVec.
func sumCounterVec(cv *prometheus.CounterVec) float64 {
	return sumCounterVecWhere(cv, "", "")
}

// sumCounterVecWhere adds up the children whose label name equals value.
// An empty name matches every child.
func sumCounterVecWhere(cv *prometheus.CounterVec, name, value string) float64 {
	ch := make(chan prometheus.Metric)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var total float64
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil || m.Counter == nil {
			continue
		}
		if name != "" && !hasLabel(m, name, value) {
			continue
		}
		total += m.Counter.GetValue()
	}
	return total
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}
