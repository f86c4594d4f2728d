package service

import (
	"context"
	"log/slog"

	"github.com/squireaintready/breakout/internal/domain"
	"github.com/squireaintready/breakout/internal/risk"
	"github.com/squireaintready/breakout/internal/state"
)

// RiskReport is the aggregate risk picture served at /api/risk.
type RiskReport struct {
	Balance           float64   `json:"balance"`
	HighWaterMark     float64   `json:"highWaterMark"`
	DayStartBalance   float64   `json:"dayStartBalance"`
	DailyDrawdownPct  float64   `json:"dailyDrawdownPct"`
	DailyZone         risk.Zone `json:"dailyZone"`
	TotalDrawdownPct  float64   `json:"totalDrawdownPct"`
	TotalZone         risk.Zone `json:"totalZone"`
	RiskIfAllStopsHit float64   `json:"riskIfAllStopsHit"`
	UnrealizedPnl     float64   `json:"unrealizedPnl"`
	OpenPositions     int       `json:"openPositions"`
}

// RiskService computes risk metrics over the current account snapshot and
// live prices.
type RiskService struct {
	sync   *state.Synchronizer
	prices domain.PriceSource
	logger *slog.Logger
}

// NewRiskService creates a RiskService.
func NewRiskService(sync *state.Synchronizer, prices domain.PriceSource, logger *slog.Logger) *RiskService {
	return &RiskService{
		sync:   sync,
		prices: prices,
		logger: logger.With(slog.String("component", "risk_service")),
	}
}

// Report builds the current risk report. Returns domain.ErrNoState until a
// snapshot has been loaded.
func (s *RiskService) Report(ctx context.Context) (*RiskReport, error) {
	st, err := s.sync.Snapshot()
	if err != nil {
		return nil, err
	}
	prices := s.prices.Snapshot()

	dailyDD := risk.DailyDrawdownPct(st.Balance, st.DayStartBalance)
	totalDD := risk.TotalDrawdownPct(st.Balance, st.HighWaterMark)

	return &RiskReport{
		Balance:           st.Balance,
		HighWaterMark:     st.HighWaterMark,
		DayStartBalance:   st.DayStartBalance,
		DailyDrawdownPct:  dailyDD,
		DailyZone:         risk.ZoneFor(dailyDD, st.Settings.DailyHardDrawdownPct),
		TotalDrawdownPct:  totalDD,
		TotalZone:         risk.ZoneFor(totalDD, st.Settings.TotalDrawdownPct),
		RiskIfAllStopsHit: risk.RiskIfAllStopsHit(st.Positions, st.Balance, st.Settings.TradingFeePct),
		UnrealizedPnl:     risk.UnrealizedPnl(st.Positions, prices),
		OpenPositions:     len(st.Positions),
	}, nil
}

// Size runs the position sizing calculator. Balance, leverage cap, and fee
// default to the account's current values when the request leaves them zero.
func (s *RiskService) Size(ctx context.Context, in risk.SizingInput) (*risk.SizingResult, error) {
	st, err := s.sync.Snapshot()
	if err != nil {
		return nil, err
	}
	if in.Balance <= 0 {
		in.Balance = st.Balance
	}
	if in.MaxLeverage <= 0 {
		in.MaxLeverage = risk.MaxLeverageFor(in.Asset, st.Settings)
	}
	if in.TradingFeePct <= 0 {
		in.TradingFeePct = st.Settings.TradingFeePct
	}
	out := risk.Size(in)
	return &out, nil
}
