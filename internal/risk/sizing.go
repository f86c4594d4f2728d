package risk

import (
	"math"

	"github.com/squireaintready/breakout/internal/domain"
)

// btcEthAssets are the majors that get the higher leverage cap.
var btcEthAssets = map[string]bool{
	"BTC": true,
	"ETH": true,
}

// MaxLeverageFor returns the leverage cap for an asset from the account
// settings: majors use BtcEthLeverage, everything else AltLeverage.
func MaxLeverageFor(asset string, settings domain.Settings) float64 {
	if btcEthAssets[asset] {
		return settings.BtcEthLeverage
	}
	return settings.AltLeverage
}

// SizingInput carries the parameters for a position sizing calculation.
type SizingInput struct {
	Asset         string      `json:"asset"`
	Side          domain.Side `json:"side"`
	EntryPrice    float64     `json:"entryPrice"`
	StopLoss      float64     `json:"stopLoss"`
	RiskPct       float64     `json:"riskPct"`
	Balance       float64     `json:"balance"`
	MaxLeverage   float64     `json:"maxLeverage"`
	TradingFeePct float64     `json:"tradingFeePct"`
}

// SizingResult is the recommendation produced by Size.
type SizingResult struct {
	StopDistancePct  float64 `json:"stopDistancePct"`
	SizeFromRisk     float64 `json:"sizeFromRisk"`
	SizeFromLeverage float64 `json:"sizeFromLeverage"`
	RecommendedSize  float64 `json:"recommendedSize"`
	DollarRisk       float64 `json:"dollarRisk"`
	LeverageUsed     float64 `json:"leverageUsed"`
	EstLiquidation   float64 `json:"estimatedLiquidationPrice"`
	EntryFee         float64 `json:"entryFee"`
	ExitFee          float64 `json:"exitFee"`
	TotalFees        float64 `json:"totalFees"`
}

// Size computes the recommended notional position size. The risk budget
// (balance × riskPct) is spread over the stop distance plus entry and exit fee
// drag; the result is capped by the leverage limit so the risk budget never
// exceeds what the account can actually carry.
func Size(in SizingInput) SizingResult {
	if in.EntryPrice <= 0 || in.Balance <= 0 {
		return SizingResult{}
	}

	stopDist := math.Abs(in.EntryPrice-in.StopLoss) / in.EntryPrice
	effectiveRiskFraction := stopDist + 2*in.TradingFeePct/100
	if effectiveRiskFraction <= 0 {
		return SizingResult{}
	}

	dollarRisk := in.Balance * in.RiskPct / 100
	sizeFromRisk := dollarRisk / effectiveRiskFraction
	sizeFromLeverage := in.Balance * in.MaxLeverage
	recommended := math.Min(sizeFromRisk, sizeFromLeverage)

	// Floor leverage at 1 so the liquidation estimate never blows up on
	// under-leveraged positions.
	leverageUsed := recommended / in.Balance
	liqLeverage := math.Max(leverageUsed, 1)

	var liquidation float64
	if in.Side == domain.SideShort {
		liquidation = in.EntryPrice * (1 + 1/liqLeverage)
	} else {
		liquidation = in.EntryPrice * (1 - 1/liqLeverage)
	}

	entryFee := recommended * in.TradingFeePct / 100

	return SizingResult{
		StopDistancePct:  stopDist * 100,
		SizeFromRisk:     sizeFromRisk,
		SizeFromLeverage: sizeFromLeverage,
		RecommendedSize:  recommended,
		DollarRisk:       recommended * effectiveRiskFraction,
		LeverageUsed:     leverageUsed,
		EstLiquidation:   liquidation,
		EntryFee:         entryFee,
		ExitFee:          entryFee,
		TotalFees:        2 * entryFee,
	}
}
