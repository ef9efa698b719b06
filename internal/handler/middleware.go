package handler

import (
	"net/http"

	"github.com/boddenberg/finance-insights-bfa-go/internal/infra/observability"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestMetricsMiddleware counts API requests as success or error by the
// status code written.
func RequestMetricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusBadRequest {
				metrics.IncrRequest("error")
				return
			}
			metrics.IncrRequest("success")
		})
	}
}
