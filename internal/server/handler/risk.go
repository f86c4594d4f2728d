package handler

import (
	"log/slog"
	"net/http"

	"github.com/squireaintready/breakout/internal/risk"
	"github.com/squireaintready/breakout/internal/service"
)

// RiskHandler serves the risk report and the sizing calculator.
type RiskHandler struct {
	risk   *service.RiskService
	logger *slog.Logger
}

// NewRiskHandler creates a RiskHandler.
func NewRiskHandler(riskSvc *service.RiskService, logger *slog.Logger) *RiskHandler {
	return &RiskHandler{risk: riskSvc, logger: logger}
}

// GetRisk returns the aggregate risk picture for the account.
// GET /api/risk
func (h *RiskHandler) GetRisk(w http.ResponseWriter, r *http.Request) {
	report, err := h.risk.Report(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SizePosition runs the position sizing calculator.
// POST /api/risk/size
func (h *RiskHandler) SizePosition(w http.ResponseWriter, r *http.Request) {
	var in risk.SizingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.EntryPrice <= 0 {
		writeError(w, http.StatusBadRequest, "entryPrice must be positive")
		return
	}
	result, err := h.risk.Size(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
