package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/squireaintready/breakout/internal/domain"
	"github.com/squireaintready/breakout/internal/state"
)

// StateHandler serves the full account snapshot. The dashboard reads and
// writes the snapshot as one document, so both directions move the entire
// state.
type StateHandler struct {
	sync   *state.Synchronizer
	logger *slog.Logger
}

// NewStateHandler creates a StateHandler.
func NewStateHandler(sync *state.Synchronizer, logger *slog.Logger) *StateHandler {
	return &StateHandler{sync: sync, logger: logger}
}

// GetState returns the current account snapshot, or JSON null before the
// first successful pull. The dashboard treats null as "no cloud data yet".
// GET /api/state
func (h *StateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sync.Snapshot()
	if err != nil {
		if errors.Is(err, domain.ErrNoState) {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// PutState replaces the account snapshot wholesale. The high-water mark is
// re-anchored before accepting so a stale client can never lower it.
// PUT /api/state
func (h *StateHandler) PutState(w http.ResponseWriter, r *http.Request) {
	var incoming domain.AccountState
	if !decodeJSON(w, r, &incoming) {
		return
	}

	incoming.SetBalance(incoming.Balance)
	h.sync.Replace(&incoming)

	h.logger.InfoContext(r.Context(), "state replaced",
		slog.Float64("balance", incoming.Balance),
		slog.Int("positions", len(incoming.Positions)),
	)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
