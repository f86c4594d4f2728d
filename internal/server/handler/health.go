package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler serves liveness probes.
type HealthHandler struct {
	startedAt time.Time
	logger    *slog.Logger
}

// NewHealthHandler creates a HealthHandler anchored at the current time.
func NewHealthHandler(logger *slog.Logger) *HealthHandler {
	return &HealthHandler{startedAt: time.Now(), logger: logger}
}

// HealthCheck reports process liveness and uptime.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
