// Package alert implements the alert evaluation engine: it compares live
// prices and aggregate unrealized P&L against user-defined rules (price-level
// alerts, per-position stop-loss/take-profit, P&L alerts), fires each rule at
// most once per qualifying event, and manages the re-arm/dismiss/cooldown
// lifecycle. The engine is transport-agnostic: it consumes a price snapshot
// plus account state and produces notification events and in-place state
// mutations; feeding it and persisting the result is the caller's job.
package alert

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/squireaintready/breakout/internal/domain"
	"github.com/squireaintready/breakout/internal/risk"
)

const (
	// DefaultCooldown is the minimum time between consecutive notifications
	// for the same condition key.
	DefaultCooldown = 30 * time.Second

	// DefaultWarmup is how long after startup P&L alert evaluation stays
	// disabled, so an incomplete initial price snapshot cannot produce false
	// triggers.
	DefaultWarmup = 10 * time.Second
)

// Config holds the engine's tunable parameters.
type Config struct {
	// Cooldown overrides DefaultCooldown when positive.
	Cooldown time.Duration

	// Warmup overrides DefaultWarmup when positive.
	Warmup time.Duration

	// ClearFiredOnEdit, when set, re-arms a position's stop-loss or
	// take-profit trigger whenever the user moves the level to a new price.
	// Off by default: a fired SL/TP then stays fired for the lifetime of the
	// position.
	ClearFiredOnEdit bool

	// Now supplies the current time; defaults to time.Now. Injected so tests
	// control tick timestamps.
	Now func() time.Time
}

// Engine evaluates all alert rules against price snapshots. Each Engine owns
// its fired-set and cooldown state, so independent accounts or sessions get
// independent instances. Evaluation passes are serialized: a new pass blocks
// until the previous one finishes.
type Engine struct {
	cooldown    time.Duration
	warmup      time.Duration
	clearOnEdit bool
	now         func() time.Time
	startedAt   time.Time

	tracker *firedTracker

	// Last-seen stop/target levels per position, used to detect edits when
	// ClearFiredOnEdit is enabled.
	lastStops   map[string]float64
	lastTargets map[string]float64

	mu     sync.Mutex
	logger *slog.Logger
}

// NewEngine creates an Engine with empty fired-set state.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Warmup <= 0 {
		cfg.Warmup = DefaultWarmup
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		cooldown:    cfg.Cooldown,
		warmup:      cfg.Warmup,
		clearOnEdit: cfg.ClearFiredOnEdit,
		now:         cfg.Now,
		startedAt:   cfg.Now(),
		tracker:     newFiredTracker(cfg.Cooldown),
		lastStops:   make(map[string]float64),
		lastTargets: make(map[string]float64),
		logger:      logger.With(slog.String("component", "alert_engine")),
	}
}

// ClearFired removes the fired flag and cooldown stamp for a condition key.
// Called when an alert is re-armed or dismissed so the freshly armed rule is
// eligible immediately.
func (e *Engine) ClearFired(key string) {
	e.tracker.Clear(key)
}

// GarbageCollect reclaims fired-set entries whose underlying alert or position
// no longer exists or has legitimately un-triggered. It runs once per
// evaluation cycle, before conditions are tested, so a stale entry can never
// block a re-armed or recreated rule.
func (e *Engine) GarbageCollect(state *domain.AccountState) {
	for _, key := range e.tracker.Keys() {
		switch {
		case strings.HasPrefix(key, "pnl-"):
			a := state.FindPnlAlert(strings.TrimPrefix(key, "pnl-"))
			if a == nil || !a.Triggered {
				e.tracker.Clear(key)
			}
		case strings.HasPrefix(key, "sl-"), strings.HasPrefix(key, "tp-"):
			if state.FindPosition(key[3:]) == nil {
				e.tracker.Clear(key)
			}
		default:
			// Raw key: price alert id.
			a := state.FindPriceAlert(key)
			if a == nil || !a.Triggered {
				e.tracker.Clear(key)
			}
		}
	}
}

// Evaluate runs one full pass over all rules. It mutates trigger flags on
// state in place and returns the notification events produced plus whether
// state was modified (so the caller can batch one persistence write per pass
// instead of one per alert). A missing price skips that asset's rules; rules
// whose conditions are in cooldown are skipped without any mutation.
func (e *Engine) Evaluate(prices map[string]float64, state *domain.AccountState) ([]Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var events []Event
	modified := false

	// 1. Price alerts.
	for _, a := range state.PriceAlerts {
		if a.Triggered || e.tracker.Fired(a.ID) {
			continue
		}
		price, ok := prices[a.Asset]
		if !ok {
			continue
		}
		if !a.Direction.Met(price, a.TargetPrice) {
			continue
		}
		if !e.tracker.Allow(a.ID, now) {
			continue
		}
		if !a.Persistent {
			e.tracker.MarkFired(a.ID)
			a.Triggered = true
			ts := now.UnixMilli()
			a.TriggeredAt = &ts
			modified = true
		}
		events = append(events, Event{
			Type:            EventPriceAlert,
			Title:           fmt.Sprintf("%s %s %s", a.Asset, directionArrow(a.Direction), formatPrice(a.TargetPrice)),
			Body:            priceAlertBody(a, price),
			PositionSummary: positionSummary(a.Asset, state.Positions, prices),
			TriggeredAt:     now,
			CreatedAt:       a.CreatedAt,
		})
	}

	// 2. Stop-loss / take-profit per open position.
	for _, pos := range state.Positions {
		price, ok := prices[pos.Asset]
		if !ok {
			continue
		}
		if ev := e.evalStopLoss(pos, price, state, prices, now); ev != nil {
			events = append(events, *ev)
		}
		if ev := e.evalTakeProfit(pos, price, state, prices, now); ev != nil {
			events = append(events, *ev)
		}
	}

	// 3. P&L alerts. Two preconditions: every open position must have a known
	// price (no partial-snapshot evaluation), and the warm-up delay since
	// engine start must have elapsed.
	if !e.pnlPreconditionsMet(prices, state, now) {
		return events, modified
	}

	totalPnl := risk.UnrealizedPnl(state.Positions, prices)
	for _, a := range state.PnlAlerts {
		key := PnlKey(a.ID)
		met := a.Direction.Met(totalPnl, a.TargetPnl)

		if !a.Triggered && met && !e.tracker.Fired(key) {
			if !e.tracker.Allow(key, now) {
				continue
			}
			if !a.Persistent {
				e.tracker.MarkFired(key)
				a.Triggered = true
				ts := now.UnixMilli()
				a.TriggeredAt = &ts
				modified = true
			}
			events = append(events, Event{
				Type:        EventPnlAlert,
				Title:       fmt.Sprintf("P&L %s $%s", directionArrow(a.Direction), formatPrice(a.TargetPnl)),
				Body:        pnlAlertBody(a, totalPnl),
				TriggeredAt: now,
				CreatedAt:   a.CreatedAt,
			})
		}

		// Self-heal: a fired non-persistent P&L alert re-arms on its own the
		// moment the condition stops holding.
		if a.Triggered && !met && !a.Persistent {
			a.Triggered = false
			a.TriggeredAt = nil
			e.tracker.Clear(key)
			modified = true
		}
	}

	return events, modified
}

func (e *Engine) evalStopLoss(pos *domain.Position, price float64, state *domain.AccountState, prices map[string]float64, now time.Time) *Event {
	if pos.StopLoss == nil {
		if e.clearOnEdit {
			delete(e.lastStops, pos.ID)
		}
		return nil
	}
	key := StopKey(pos.ID)
	if e.clearOnEdit {
		if last, ok := e.lastStops[pos.ID]; ok && last != *pos.StopLoss {
			e.tracker.Clear(key)
		}
		e.lastStops[pos.ID] = *pos.StopLoss
	}
	if e.tracker.Fired(key) {
		return nil
	}

	// Long stops fire at or below the level, short stops at or above.
	var hit bool
	if pos.Side == domain.SideLong {
		hit = price <= *pos.StopLoss
	} else {
		hit = price >= *pos.StopLoss
	}
	if !hit || !e.tracker.Allow(key, now) {
		return nil
	}
	e.tracker.MarkFired(key)

	return &Event{
		Type:            EventStopLoss,
		Title:           fmt.Sprintf("STOP LOSS — %s", pos.Asset),
		Body:            fmt.Sprintf("%s %s hit SL at %s (SL: %s)", pos.Asset, strings.ToUpper(string(pos.Side)), formatPrice(price), formatPrice(*pos.StopLoss)),
		PositionSummary: positionSummary(pos.Asset, state.Positions, prices),
		TriggeredAt:     now,
	}
}

func (e *Engine) evalTakeProfit(pos *domain.Position, price float64, state *domain.AccountState, prices map[string]float64, now time.Time) *Event {
	if pos.TakeProfit == nil {
		if e.clearOnEdit {
			delete(e.lastTargets, pos.ID)
		}
		return nil
	}
	key := TargetKey(pos.ID)
	if e.clearOnEdit {
		if last, ok := e.lastTargets[pos.ID]; ok && last != *pos.TakeProfit {
			e.tracker.Clear(key)
		}
		e.lastTargets[pos.ID] = *pos.TakeProfit
	}
	if e.tracker.Fired(key) {
		return nil
	}

	var hit bool
	if pos.Side == domain.SideLong {
		hit = price >= *pos.TakeProfit
	} else {
		hit = price <= *pos.TakeProfit
	}
	if !hit || !e.tracker.Allow(key, now) {
		return nil
	}
	e.tracker.MarkFired(key)

	return &Event{
		Type:            EventTakeProfit,
		Title:           fmt.Sprintf("TAKE PROFIT — %s", pos.Asset),
		Body:            fmt.Sprintf("%s %s hit TP at %s (TP: %s)", pos.Asset, strings.ToUpper(string(pos.Side)), formatPrice(price), formatPrice(*pos.TakeProfit)),
		PositionSummary: positionSummary(pos.Asset, state.Positions, prices),
		TriggeredAt:     now,
	}
}

func (e *Engine) pnlPreconditionsMet(prices map[string]float64, state *domain.AccountState, now time.Time) bool {
	if now.Sub(e.startedAt) < e.warmup {
		return false
	}
	for _, pos := range state.Positions {
		if _, ok := prices[pos.Asset]; !ok {
			return false
		}
	}
	return true
}
