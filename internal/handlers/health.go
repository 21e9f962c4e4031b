package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"llm-api/internal/contextutil"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	store              Pinger
	provider           string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. store may be nil when the
// transcript store is disabled.
func NewHealthHandler(store Pinger, provider string) *HealthHandler {
	return &HealthHandler{
		store:              store,
		provider:           provider,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
// Returns 200 OK if healthy, 503 Service Unavailable otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := map[string]string{
		// The backend is not probed; a generation call costs too much for a health check.
		"backend": h.provider,
	}
	var issues []string

	switch {
	case h.store == nil:
		checks["transcript_store"] = "disabled"
	case h.checkStore(checkCtx, logger):
		checks["transcript_store"] = "ok"
	default:
		checks["transcript_store"] = "error"
		issues = append(issues, "transcript_store_unavailable")
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}

// checkStore checks if the transcript store is accessible.
func (h *HealthHandler) checkStore(ctx context.Context, logger *slog.Logger) bool {
	if err := h.store.Ping(ctx); err != nil {
		logger.WarnContext(ctx, "transcript store health check failed", "error", err)
		return false
	}
	return true
}
