package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parseDays reads ?days=, falling back to def when absent.
func parseDays(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("days")
	if v == "" {
		return def, nil
	}
	days, err := strconv.Atoi(v)
	if err != nil {
		return 0, &domain.ErrValidation{Field: "days", Message: "must be an integer"}
	}
	return days, nil
}

// handleServiceError maps domain errors to HTTP responses. Upstream failures
// are reported with a fixed message so backend error text never reaches the
// client.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *domain.ErrValidation
	var notFound *domain.ErrNotFound
	var timeout *domain.ErrTimeout
	var circuitOpen *domain.ErrCircuitOpen
	var fallbackFailed *domain.ErrFallbackFailed
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen), errors.As(err, &fallbackFailed), errors.As(err, &external):
		logger.Error("insights unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "insights temporarily unavailable")
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
