package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/squireaintready/breakout/internal/domain"
)

func TestMaxLeverageFor(t *testing.T) {
	t.Parallel()

	settings := domain.DefaultSettings()
	assert.Equal(t, settings.BtcEthLeverage, MaxLeverageFor("BTC", settings))
	assert.Equal(t, settings.BtcEthLeverage, MaxLeverageFor("ETH", settings))
	assert.Equal(t, settings.AltLeverage, MaxLeverageFor("SOL", settings))
	assert.Equal(t, settings.AltLeverage, MaxLeverageFor("DOGE", settings))
}

func TestSize_RiskBound(t *testing.T) {
	t.Parallel()

	got := Size(SizingInput{
		Asset:         "BTC",
		Side:          domain.SideLong,
		EntryPrice:    100,
		StopLoss:      95,
		RiskPct:       1,
		Balance:       10000,
		MaxLeverage:   5,
		TradingFeePct: 0.04,
	})

	// 5% stop distance plus 0.08% round-trip fee drag: risk fraction 0.0508.
	// $100 risk budget / 0.0508 = 1968.50...
	assert.InDelta(t, 5.0, got.StopDistancePct, 1e-9)
	assert.InDelta(t, 1968.503937, got.SizeFromRisk, 1e-4)
	assert.InDelta(t, 50000.0, got.SizeFromLeverage, 1e-9)
	assert.InDelta(t, 1968.503937, got.RecommendedSize, 1e-4)
	assert.InDelta(t, 100.0, got.DollarRisk, 1e-6)
}

func TestSize_LeverageBound(t *testing.T) {
	t.Parallel()

	// A tiny stop distance makes the risk-based size enormous; the leverage
	// cap wins.
	got := Size(SizingInput{
		Asset:         "BTC",
		Side:          domain.SideLong,
		EntryPrice:    100,
		StopLoss:      99.9,
		RiskPct:       2,
		Balance:       10000,
		MaxLeverage:   5,
		TradingFeePct: 0.04,
	})

	assert.InDelta(t, 50000.0, got.RecommendedSize, 1e-9)
	assert.InDelta(t, 5.0, got.LeverageUsed, 1e-9)
}

func TestSize_LiquidationPrice(t *testing.T) {
	t.Parallel()

	long := Size(SizingInput{
		Side:          domain.SideLong,
		EntryPrice:    100,
		StopLoss:      99.9,
		RiskPct:       2,
		Balance:       10000,
		MaxLeverage:   5,
		TradingFeePct: 0.04,
	})
	short := Size(SizingInput{
		Side:          domain.SideShort,
		EntryPrice:    100,
		StopLoss:      100.1,
		RiskPct:       2,
		Balance:       10000,
		MaxLeverage:   5,
		TradingFeePct: 0.04,
	})

	// At 5x leverage a 20% adverse move liquidates.
	assert.InDelta(t, 80.0, long.EstLiquidation, 1e-9)
	assert.InDelta(t, 120.0, short.EstLiquidation, 1e-9)
}

func TestSize_LeverageFloorForLiquidation(t *testing.T) {
	t.Parallel()

	// A wide stop keeps the position small (well under 1x). The liquidation
	// estimate floors leverage at 1 instead of projecting a price below zero.
	got := Size(SizingInput{
		Side:          domain.SideLong,
		EntryPrice:    100,
		StopLoss:      50,
		RiskPct:       1,
		Balance:       10000,
		MaxLeverage:   5,
		TradingFeePct: 0.04,
	})

	assert.Less(t, got.LeverageUsed, 1.0)
	assert.InDelta(t, 0.0, got.EstLiquidation, 1e-9)
}

func TestSize_DegenerateInputs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SizingResult{}, Size(SizingInput{EntryPrice: 0, Balance: 10000}))
	assert.Equal(t, SizingResult{}, Size(SizingInput{EntryPrice: 100, Balance: 0}))
}

func TestSize_Fees(t *testing.T) {
	t.Parallel()

	got := Size(SizingInput{
		Side:          domain.SideLong,
		EntryPrice:    100,
		StopLoss:      95,
		RiskPct:       1,
		Balance:       10000,
		MaxLeverage:   5,
		TradingFeePct: 0.04,
	})

	assert.InDelta(t, got.RecommendedSize*0.0004, got.EntryFee, 1e-9)
	assert.InDelta(t, got.EntryFee, got.ExitFee, 1e-12)
	assert.InDelta(t, 2*got.EntryFee, got.TotalFees, 1e-12)
}
