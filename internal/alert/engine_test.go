package alert

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squireaintready/breakout/internal/domain"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(clock *fakeClock) *Engine {
	return NewEngine(Config{Now: clock.now}, testLogger())
}

func ptr(v float64) *float64 { return &v }

func testState() *domain.AccountState {
	return domain.NewAccountState(domain.DefaultSettings(), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli())
}

func TestEvaluate_PriceAlertInclusiveBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		direction domain.Direction
		target    float64
		price     float64
		wantFire  bool
	}{
		{"above exact hit", domain.DirectionAbove, 50000, 50000, true},
		{"above over", domain.DirectionAbove, 50000, 50001, true},
		{"above under", domain.DirectionAbove, 50000, 49999, false},
		{"below exact hit", domain.DirectionBelow, 50000, 50000, true},
		{"below under", domain.DirectionBelow, 50000, 49999, true},
		{"below over", domain.DirectionBelow, 50000, 50001, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clock := newFakeClock()
			engine := newTestEngine(clock)
			st := testState()
			st.PriceAlerts = []*domain.PriceAlert{{
				ID: "a1", Asset: "BTC", TargetPrice: tt.target, Direction: tt.direction,
			}}

			events, modified := engine.Evaluate(map[string]float64{"BTC": tt.price}, st)
			if tt.wantFire {
				require.Len(t, events, 1)
				assert.Equal(t, EventPriceAlert, events[0].Type)
				assert.True(t, modified)
				assert.True(t, st.PriceAlerts[0].Triggered)
				require.NotNil(t, st.PriceAlerts[0].TriggeredAt)
				assert.Equal(t, clock.now().UnixMilli(), *st.PriceAlerts[0].TriggeredAt)
			} else {
				assert.Empty(t, events)
				assert.False(t, modified)
				assert.False(t, st.PriceAlerts[0].Triggered)
			}
		})
	}
}

func TestEvaluate_MissingPriceSkipsAsset(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	engine := newTestEngine(clock)
	st := testState()
	st.PriceAlerts = []*domain.PriceAlert{{
		ID: "a1", Asset: "BTC", TargetPrice: 50000, Direction: domain.DirectionAbove,
	}}

	events, modified := engine.Evaluate(map[string]float64{"ETH": 3000}, st)
	assert.Empty(t, events)
	assert.False(t, modified)
}

func TestEvaluate_NonPersistentFiresOnce(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	engine := newTestEngine(clock)
	st := testState()
	st.PriceAlerts = []*domain.PriceAlert{{
		ID: "a1", Asset: "BTC", TargetPrice: 50000, Direction: domain.DirectionAbove,
	}}
	prices := map[string]float64{"BTC": 51000}

	events, _ := engine.Evaluate(prices, st)
	require.Len(t, events, 1)

	// Condition still holds on later passes, even past the cooldown window.
	clock.advance(time.Minute)
	engine.GarbageCollect(st)
	events, modified := engine.Evaluate(prices, st)
	assert.Empty(t, events)
	assert.False(t, modified)
}

func TestEvaluate_PersistentRefiresAfterCooldown(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	engine := newTestEngine(clock)
	st := testState()
	st.PriceAlerts = []*domain.PriceAlert{{
		ID: "a1", Asset: "BTC", TargetPrice: 50000, Direction: domain.DirectionAbove, Persistent: true,
	}}
	prices := map[string]float64{"BTC": 51000}

	events, modified := engine.Evaluate(prices, st)
	require.Len(t, events, 1)
	assert.False(t, modified)
	assert.False(t, st.PriceAlerts[0].Triggered)

	// Within cooldown: suppressed.
	clock.advance(10 * time.Second)
	events, _ = engine.Evaluate(prices, st)
	assert.Empty(t, events)

	// Past cooldown: fires again, still never sets triggered.
	clock.advance(25 * time.Second)
	events, modified = engine.Evaluate(prices, st)
	require.Len(t, events, 1)
	assert.False(t, modified)
	assert.False(t, st.PriceAlerts[0].Triggered)
}

func TestEvaluate_RearmedAlertFiresAgain(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	engine := newTestEngine(clock)
	st := testState()
	st.PriceAlerts = []*domain.PriceAlert{{
		ID: "a1", Asset: "BTC", TargetPrice: 50000, Direction: domain.DirectionAbove,
	}}
	prices := map[string]float64{"BTC": 51000}

	events, _ := engine.Evaluate(prices, st)
	require.Len(t, events, 1)

	// Re-arm: reset flags and clear engine bookkeeping.
	st.PriceAlerts[0].Triggered = false
	st.PriceAlerts[0].TriggeredAt = nil
	engine.ClearFired("a1")

	events, _ = engine.Evaluate(prices, st)
	require.Len(t, events, 1)
}

func TestEvaluate_StopLossFiresExactlyOnce(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	engine := newTestEngine(clock)
	st := testState()
	st.Positions = []*domain.Position{{
		ID: "p1", Asset: "BTC", Side: domain.SideLong, EntryPrice: 60000, Size: 1000, StopLoss: ptr(58500),
	}}

	var fired int
	for _, price := range []float64{60000, 58500, 57900} {
		engine.GarbageCollect(st)
		events, _ := engine.Evaluate(map[string]float64{"BTC": price}, st)
		for _, ev := range events {
			if ev.Type == EventStopLoss {
				fired++
			}
		}
		clock.advance(time.Second)
	}

	assert.Equal(t, 1, fired)
}

func TestEvaluate_ShortStopLossDirection(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	engine := newTestEngine(clock)
	st := testState()
	st.Positions = []*domain.Position{{
		ID: "p1", Asset: "ETH", Side: domain.SideShort, EntryPrice: 2000, Size: 500, StopLoss: ptr(2100),
	}}

	// Price below the stop: a short is in profit, no fire.
	events, _ := engine.Evaluate(map[string]float64{"ETH": 2050}, st)
	assert.Empty(t, events)

	// At the stop: fires.
	events, _ = engine.Evaluate(map[string]float64{"ETH": 2100}, st)
	require.Len(t, events, 1)
	assert.Equal(t, EventStopLoss, events[0].Type)
}

func TestEvaluate_TakeProfitLong(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	engine := newTestEngine(clock)
	st := testState()
	st.Positions = []*domain.Position{{
		ID: "p1", Asset: "BTC", Side: domain.SideLong, EntryPrice: 50000, Size: 1000, TakeProfit: ptr(55000),
	}}

	events, _ := engine.Evaluate(map[string]float64{"BTC": 54000}, st)
	assert.Empty(t, events)

	events, _ = engine.Evaluate(map[string]float64{"BTC": 55000}, st)
	require.Len(t, events, 1)
	assert.Equal(t, EventTakeProfit, events[0].Type)
}

func TestEvaluate_PnlAlertWaitsForWarmup(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	engine := newTestEngine(clock)
	st := testState()
	st.Positions = []*domain.Position{{
		ID: "p1", Asset: "BTC", Side: domain.SideLong, EntryPrice: 50000, Size: 1000,
	}}
	st.PnlAlerts = []*domain.PnlAlert{{
		ID: "pa1", TargetPnl: 50, Direction: domain.DirectionAbove,
	}}
	prices := map[string]float64{"BTC": 55000} // +100 unrealized

	// Inside the warm-up window nothing fires.
	clock.advance(5 * time.Second)
	events, _ := engine.Evaluate(prices, st)
	assert.Empty(t, events)

	// Past warm-up the alert fires.
	clock.advance(6 * time.Second)
	events, _ = engine.Evaluate(prices, st)
	require.Len(t, events, 1)
	assert.Equal(t, EventPnlAlert, events[0].Type)
}

func TestEvaluate_PnlAlertRequiresAllPrices(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	engine := newTestEngine(clock)
	clock.advance(time.Minute) // well past warm-up
	st := testState()
	st.Positions = []*domain.Position{
		{ID: "p1", Asset: "BTC", Side: domain.SideLong, EntryPrice: 50000, Size: 1000},
		{ID: "p2", Asset: "SOL", Side: domain.SideLong, EntryPrice: 100, Size: 200},
	}
	st.PnlAlerts = []*domain.PnlAlert{{
		ID: "pa1", TargetPnl: 50, Direction: domain.DirectionAbove,
	}}

	// SOL price unknown: the aggregate would be incomplete, so no evaluation.
	events, _ := engine.Evaluate(map[string]float64{"BTC": 55000}, st)
	assert.Empty(t, events)

	events, _ = engine.Evaluate(map[string]float64{"BTC": 55000, "SOL": 100}, st)
	require.Len(t, events, 1)
}

func TestEvaluate_PnlAlertSelfHeals(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	engine := newTestEngine(clock)
	clock.advance(time.Minute)
	st := testState()
	st.Positions = []*domain.Position{{
		ID: "p1", Asset: "BTC", Side: domain.SideLong, EntryPrice: 50000, Size: 1000,
	}}
	st.PnlAlerts = []*domain.PnlAlert{{
		ID: "pa1", TargetPnl: 50, Direction: domain.DirectionAbove,
	}}

	events, _ := engine.Evaluate(map[string]float64{"BTC": 55000}, st)
	require.Len(t, events, 1)
	assert.True(t, st.PnlAlerts[0].Triggered)

	// Condition goes false: the alert un-triggers on its own.
	events, modified := engine.Evaluate(map[string]float64{"BTC": 50000}, st)
	assert.Empty(t, events)
	assert.True(t, modified)
	assert.False(t, st.PnlAlerts[0].Triggered)
	assert.Nil(t, st.PnlAlerts[0].TriggeredAt)

	// Condition holds again after the cooldown: fires a second time.
	clock.advance(31 * time.Second)
	events, _ = engine.Evaluate(map[string]float64{"BTC": 55000}, st)
	require.Len(t, events, 1)
}

func TestGarbageCollect_ReclaimsDeletedPosition(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	engine := newTestEngine(clock)
	st := testState()
	st.Positions = []*domain.Position{{
		ID: "p1", Asset: "BTC", Side: domain.SideLong, EntryPrice: 60000, Size: 1000, StopLoss: ptr(58500),
	}}

	events, _ := engine.Evaluate(map[string]float64{"BTC": 58000}, st)
	require.Len(t, events, 1)

	st.Positions = nil
	engine.GarbageCollect(st)

	st.Positions = []*domain.Position{{
		ID: "p1", Asset: "BTC", Side: domain.SideLong, EntryPrice: 60000, Size: 1000, StopLoss: ptr(58500),
	}}
	clock.advance(31 * time.Second)
	events, _ = engine.Evaluate(map[string]float64{"BTC": 58000}, st)
	require.Len(t, events, 1)
}

func TestGarbageCollect_ReclaimsUntriggeredPriceAlert(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	engine := newTestEngine(clock)
	st := testState()
	st.PriceAlerts = []*domain.PriceAlert{{
		ID: "a1", Asset: "BTC", TargetPrice: 50000, Direction: domain.DirectionAbove,
	}}
	prices := map[string]float64{"BTC": 51000}

	events, _ := engine.Evaluate(prices, st)
	require.Len(t, events, 1)

	// A re-arm done by another process resets triggered in the snapshot; the
	// next GC pass notices and clears the local fired entry.
	st.PriceAlerts[0].Triggered = false
	st.PriceAlerts[0].TriggeredAt = nil
	engine.GarbageCollect(st)

	clock.advance(31 * time.Second)
	events, _ = engine.Evaluate(prices, st)
	require.Len(t, events, 1)
}

func TestEvaluate_ClearFiredOnEditRearmsStop(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	engine := NewEngine(Config{Now: clock.now, ClearFiredOnEdit: true}, testLogger())
	st := testState()
	st.Positions = []*domain.Position{{
		ID: "p1", Asset: "BTC", Side: domain.SideLong, EntryPrice: 60000, Size: 1000, StopLoss: ptr(58500),
	}}

	events, _ := engine.Evaluate(map[string]float64{"BTC": 58000}, st)
	require.Len(t, events, 1)

	// Same level: stays fired.
	clock.advance(31 * time.Second)
	events, _ = engine.Evaluate(map[string]float64{"BTC": 58000}, st)
	assert.Empty(t, events)

	// Moved level: re-arms and fires at the new stop.
	st.Positions[0].StopLoss = ptr(57500)
	clock.advance(31 * time.Second)
	events, _ = engine.Evaluate(map[string]float64{"BTC": 57400}, st)
	require.Len(t, events, 1)
}
