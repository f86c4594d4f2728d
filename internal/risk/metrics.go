// Package risk provides pure account risk metrics: drawdown percentages,
// aggregate stop-loss exposure, and position sizing recommendations. All
// functions are side-effect free and treat degenerate inputs (zero or negative
// balances, entries, reference marks) by returning a safe default instead of
// an error; the results are advisory display numbers, not trading gates.
package risk

import (
	"math"
	"time"

	"github.com/squireaintready/breakout/internal/domain"
)

// Zone classifies how much of a drawdown limit has been consumed.
type Zone string

const (
	ZoneGreen  Zone = "green"
	ZoneYellow Zone = "yellow"
	ZoneRed    Zone = "red"
)

// DailyDrawdownPct returns the percentage decline of balance from the
// day-start balance, clamped at 0. Returns 0 when dayStartBalance is not
// positive.
func DailyDrawdownPct(balance, dayStartBalance float64) float64 {
	if dayStartBalance <= 0 {
		return 0
	}
	dd := (dayStartBalance - balance) / dayStartBalance * 100
	return math.Max(0, dd)
}

// TotalDrawdownPct returns the percentage decline of balance from the
// high-water mark, clamped at 0. Returns 0 when highWaterMark is not positive.
func TotalDrawdownPct(balance, highWaterMark float64) float64 {
	if highWaterMark <= 0 {
		return 0
	}
	dd := (highWaterMark - balance) / highWaterMark * 100
	return math.Max(0, dd)
}

// RiskIfAllStopsHit returns the percentage of balance lost if every open
// position with a stop-loss gets stopped out, including the one-sided exit fee
// per position. Positions without a stop contribute nothing.
func RiskIfAllStopsHit(positions []*domain.Position, balance, tradingFeePct float64) float64 {
	var total float64
	for _, pos := range positions {
		if pos.StopLoss == nil || pos.EntryPrice <= 0 {
			continue
		}
		stopDist := math.Abs(pos.EntryPrice-*pos.StopLoss) / pos.EntryPrice
		total += pos.Size*stopDist + pos.Size*(tradingFeePct/100)
	}
	if balance <= 0 {
		return 0
	}
	return total / balance * 100
}

// ZoneFor classifies a drawdown percentage against its limit: green below half
// the limit, yellow below 80%, red otherwise. No hysteresis.
func ZoneFor(pct, limit float64) Zone {
	if limit <= 0 {
		return ZoneRed
	}
	ratio := pct / limit
	switch {
	case ratio < 0.5:
		return ZoneGreen
	case ratio < 0.8:
		return ZoneYellow
	default:
		return ZoneRed
	}
}

// DailyResetDue reports whether the most recent daily reset boundary
// (resetHourUTC o'clock UTC) has been crossed since lastReset. The boundary is
// today's reset hour if already past, otherwise yesterday's.
func DailyResetDue(lastReset time.Time, resetHourUTC int, now time.Time) bool {
	nowUTC := now.UTC()
	boundary := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), resetHourUTC, 0, 0, 0, time.UTC)
	if nowUTC.Before(boundary) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	return lastReset.Before(boundary)
}

// UnrealizedPnl returns the aggregate mark-to-market P&L across positions.
// Positions with no known price are skipped.
func UnrealizedPnl(positions []*domain.Position, prices map[string]float64) float64 {
	var total float64
	for _, pos := range positions {
		price, ok := prices[pos.Asset]
		if !ok {
			continue
		}
		total += pos.UnrealizedPnl(price)
	}
	return total
}
