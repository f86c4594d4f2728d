package handler

import (
	"log/slog"
	"net/http"

	"github.com/squireaintready/breakout/internal/domain"
)

// PricesHandler serves the current price snapshot.
type PricesHandler struct {
	prices domain.PriceSource
	logger *slog.Logger
}

// NewPricesHandler creates a PricesHandler over any price source (the live
// feed in full mode, the Redis cache in server-only mode).
func NewPricesHandler(prices domain.PriceSource, logger *slog.Logger) *PricesHandler {
	return &PricesHandler{prices: prices, logger: logger}
}

// GetPrices returns the last known price per asset.
// GET /api/prices
func (h *PricesHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.prices.Snapshot())
}
