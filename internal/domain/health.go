package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// InsightsMetrics is returned by GET /v1/metrics/insights.
type InsightsMetrics struct {
	TotalRequests   int64   `json:"totalRequests"`
	RemoteAttempts  int64   `json:"remoteAttempts"`
	RemoteFailures  int64   `json:"remoteFailures"`
	Fallbacks       int64   `json:"fallbacks"`
	FallbackRate    float64 `json:"fallbackRate"`
	AlertsTriggered int64   `json:"alertsTriggered"`
	AlertsResolved  int64   `json:"alertsResolved"`
	CacheHitRate    float64 `json:"cacheHitRate"`
	Period          string  `json:"period"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
