package handler

import (
	"log/slog"
	"net/http"

	"github.com/squireaintready/breakout/internal/service"
)

// AlertHandler serves the alert lifecycle endpoints.
type AlertHandler struct {
	alerts *service.AlertService
	logger *slog.Logger
}

// NewAlertHandler creates an AlertHandler.
func NewAlertHandler(alerts *service.AlertService, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{alerts: alerts, logger: logger}
}

// CreatePriceAlert adds a new armed price alert.
// POST /api/alerts/price
func (h *AlertHandler) CreatePriceAlert(w http.ResponseWriter, r *http.Request) {
	var in service.CreatePriceAlertInput
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.alerts.CreatePriceAlert(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// DeletePriceAlert removes a price alert (armed or fired).
// DELETE /api/alerts/price/{id}
func (h *AlertHandler) DeletePriceAlert(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := h.alerts.DeletePriceAlert(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RearmPriceAlert returns a fired price alert to the armed state.
// POST /api/alerts/price/{id}/rearm
func (h *AlertHandler) RearmPriceAlert(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	a, err := h.alerts.RearmPriceAlert(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// CreatePnlAlert adds a new armed P&L alert.
// POST /api/alerts/pnl
func (h *AlertHandler) CreatePnlAlert(w http.ResponseWriter, r *http.Request) {
	var in service.CreatePnlAlertInput
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.alerts.CreatePnlAlert(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// DeletePnlAlert removes a P&L alert.
// DELETE /api/alerts/pnl/{id}
func (h *AlertHandler) DeletePnlAlert(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := h.alerts.DeletePnlAlert(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RearmPnlAlert returns a fired P&L alert to the armed state.
// POST /api/alerts/pnl/{id}/rearm
func (h *AlertHandler) RearmPnlAlert(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	a, err := h.alerts.RearmPnlAlert(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
