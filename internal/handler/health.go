package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	store HealthChecker
}

// NewHealthHandler creates a new HealthHandler. Pass nil for store if
// it is not yet initialized.
func NewHealthHandler(store HealthChecker) *HealthHandler {
	return &HealthHandler{store: store}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint. It returns 200 if the server is
// running; no dependency checks.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is a readiness probe endpoint. It returns 200 only when the
// store is reachable.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			checks["redis"] = "error: " + err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "not configured"
	}

	status := http.StatusOK
	response := HealthResponse{Status: "ok", Checks: checks}
	if !healthy {
		status = http.StatusServiceUnavailable
		response.Status = "degraded"
	}
	writeJSON(w, status, response)
}
