package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/observability"
	"github.com/boddenberg/finance-insights-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// requestTimeout bounds a whole API request, remote attempts and fallback included.
const requestTimeout = 30 * time.Second

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *service.InsightsService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(RequestMetricsMiddleware(metrics))
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/metrics/insights", insightsMetricsHandler(metrics))

		r.Route("/users/{userId}", func(r chi.Router) {
			r.Get("/dashboard", dashboardHandler(svc, logger))
			r.Get("/spending", spendingHandler(svc, logger))
			r.Get("/balance-trend", balanceTrendHandler(svc, logger))
			r.Get("/recommendations", recommendationsHandler(svc, logger))
			r.Get("/alerts", activeAlertsHandler(svc, logger))
			r.Get("/alerts/history", alertHistoryHandler(svc, logger))
		})

		r.Post("/alerts/{alertId}/resolve", resolveAlertHandler(svc, logger))
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(svc *service.InsightsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeJSON(w, http.StatusOK, domain.HealthStatus{
				Status:   "healthy",
				Services: []domain.ServiceHealth{{Name: "bfa-api", Status: "healthy", LastChecked: time.Now().UTC().Format(time.RFC3339)}},
			})
			return
		}
		writeJSON(w, http.StatusOK, svc.Health())
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func insightsMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetInsightsSnapshot())
	}
}

// ============================================================
// Insights
// ============================================================

func dashboardHandler(svc *service.InsightsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/dashboard")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		span.SetAttributes(attribute.String("user.id", userID))

		summary, err := svc.GetDashboardSummary(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func spendingHandler(svc *service.InsightsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/spending")
		defer span.End()

		period, err := domain.ParsePeriod(r.URL.Query().Get("period"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		breakdown, err := svc.GetSpendingBreakdown(ctx, chi.URLParam(r, "userId"), period)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, breakdown)
	}
}

func balanceTrendHandler(svc *service.InsightsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/balance-trend")
		defer span.End()

		days, err := parseDays(r, svc.TrendDays())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("days", days))

		trend, err := svc.GetBalanceTrend(ctx, chi.URLParam(r, "userId"), days)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, trend)
	}
}

func recommendationsHandler(svc *service.InsightsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/recommendations")
		defer span.End()

		recs, err := svc.GetRecommendations(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

// ============================================================
// Alerts
// ============================================================

func activeAlertsHandler(svc *service.InsightsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/alerts")
		defer span.End()

		alerts, err := svc.GetActiveAlerts(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, alerts)
	}
}

func alertHistoryHandler(svc *service.InsightsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/alerts/history")
		defer span.End()

		alerts, err := svc.GetAlertHistory(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, alerts)
	}
}

func resolveAlertHandler(svc *service.InsightsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/alerts/{alertId}/resolve")
		defer span.End()

		alertID := chi.URLParam(r, "alertId")
		if err := svc.ResolveAlert(ctx, alertID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "alert resolved", ID: alertID})
	}
}
