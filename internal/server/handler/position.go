package handler

import (
	"log/slog"
	"net/http"

	"github.com/squireaintready/breakout/internal/service"
)

// PositionHandler serves position lifecycle operations.
type PositionHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewPositionHandler creates a PositionHandler.
func NewPositionHandler(accounts *service.AccountService, logger *slog.Logger) *PositionHandler {
	return &PositionHandler{accounts: accounts, logger: logger}
}

// OpenPosition opens a new paper position.
// POST /api/positions
func (h *PositionHandler) OpenPosition(w http.ResponseWriter, r *http.Request) {
	var in service.OpenPositionInput
	if !decodeJSON(w, r, &in) {
		return
	}
	pos, err := h.accounts.OpenPosition(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pos)
}

// DeletePosition removes a position without realizing P&L.
// DELETE /api/positions/{id}
func (h *PositionHandler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := h.accounts.DeletePosition(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type editStopsRequest struct {
	StopLoss   *float64 `json:"stopLoss"`
	TakeProfit *float64 `json:"takeProfit"`
}

// EditStops replaces the position's stop-loss and take-profit levels. A null
// or omitted field clears the corresponding level.
// PUT /api/positions/{id}/stops
func (h *PositionHandler) EditStops(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	var req editStopsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pos, err := h.accounts.EditStops(r.Context(), id, req.StopLoss, req.TakeProfit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

type closePositionRequest struct {
	ExitPrice float64  `json:"exitPrice"`
	Notes     string   `json:"notes"`
	Tags      []string `json:"tags"`
}

// ClosePosition realizes the position's P&L and records the trade.
// POST /api/positions/{id}/close
func (h *PositionHandler) ClosePosition(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	var req closePositionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	trade, err := h.accounts.ClosePosition(r.Context(), id, req.ExitPrice, req.Notes, req.Tags)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

type setBalanceRequest struct {
	Balance float64 `json:"balance"`
}

// SetBalance sets the account balance directly.
// POST /api/account/balance
func (h *PositionHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	var req setBalanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.accounts.SetBalance(r.Context(), req.Balance); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ResetAccount restores the account to its starting balance.
// POST /api/account/reset
func (h *PositionHandler) ResetAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.ResetAccount(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
