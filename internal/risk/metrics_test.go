package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/squireaintready/breakout/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestDailyDrawdownPct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		balance  float64
		dayStart float64
		want     float64
	}{
		{"ten percent down", 9000, 10000, 10.0},
		{"flat", 10000, 10000, 0},
		{"up clamps to zero", 10500, 10000, 0},
		{"zero day start", 9000, 0, 0},
		{"negative day start", 9000, -1, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, DailyDrawdownPct(tt.balance, tt.dayStart), 1e-9)
		})
	}
}

func TestTotalDrawdownPct(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 10.0, TotalDrawdownPct(9000, 10000), 1e-9)
	assert.InDelta(t, 0.0, TotalDrawdownPct(10500, 10000), 1e-9)
	assert.InDelta(t, 0.0, TotalDrawdownPct(9000, 0), 1e-9)
}

func TestRiskIfAllStopsHit(t *testing.T) {
	t.Parallel()

	positions := []*domain.Position{
		{Asset: "BTC", Side: domain.SideLong, EntryPrice: 100, Size: 1000, StopLoss: ptr(95)},
	}

	// Stop distance 5% of 1000 = 50, exit fee 0.04% of 1000 = 0.4, against a
	// 10k balance: 0.504%.
	got := RiskIfAllStopsHit(positions, 10000, 0.04)
	assert.InDelta(t, 0.504, got, 1e-9)
}

func TestRiskIfAllStopsHit_SkipsStoplessPositions(t *testing.T) {
	t.Parallel()

	positions := []*domain.Position{
		{Asset: "BTC", Side: domain.SideLong, EntryPrice: 100, Size: 1000},
		{Asset: "ETH", Side: domain.SideShort, EntryPrice: 200, Size: 500, StopLoss: ptr(210)},
	}

	// Only the ETH position counts: 5% of 500 = 25 plus 0.2 fee.
	got := RiskIfAllStopsHit(positions, 10000, 0.04)
	assert.InDelta(t, 0.252, got, 1e-9)
}

func TestRiskIfAllStopsHit_ZeroBalance(t *testing.T) {
	t.Parallel()

	positions := []*domain.Position{
		{Asset: "BTC", Side: domain.SideLong, EntryPrice: 100, Size: 1000, StopLoss: ptr(95)},
	}
	assert.Zero(t, RiskIfAllStopsHit(positions, 0, 0.04))
}

func TestZoneFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		pct   float64
		limit float64
		want  Zone
	}{
		{"well under limit", 1.0, 3.0, ZoneGreen},
		{"just under half", 1.49, 3.0, ZoneGreen},
		{"at half", 1.5, 3.0, ZoneYellow},
		{"just under eighty", 2.39, 3.0, ZoneYellow},
		{"at eighty", 2.4, 3.0, ZoneRed},
		{"over limit", 4.0, 3.0, ZoneRed},
		{"zero limit is red", 0.0, 0.0, ZoneRed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ZoneFor(tt.pct, tt.limit))
		})
	}
}

func TestDailyResetDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		lastReset time.Time
		resetHour int
		want      bool
	}{
		{"reset yesterday, boundary passed", time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC), 0, true},
		{"reset after today's boundary", time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC), 0, false},
		{"boundary later today, reset yesterday after it", time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC), 22, false},
		{"boundary earlier today, reset before it", time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), 12, true},
		{"boundary earlier today, reset after it", time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC), 12, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DailyResetDue(tt.lastReset, tt.resetHour, now))
		})
	}
}

func TestUnrealizedPnl(t *testing.T) {
	t.Parallel()

	positions := []*domain.Position{
		{Asset: "BTC", Side: domain.SideLong, EntryPrice: 50000, Size: 1000},
		{Asset: "ETH", Side: domain.SideShort, EntryPrice: 2000, Size: 500},
		{Asset: "SOL", Side: domain.SideLong, EntryPrice: 100, Size: 200},
	}
	prices := map[string]float64{
		"BTC": 55000, // +10% on 1000 long = +100
		"ETH": 2100,  // +5% against 500 short = -25
		// SOL price unknown, skipped
	}

	assert.InDelta(t, 75.0, UnrealizedPnl(positions, prices), 1e-9)
}
