package alert

import (
	"sync"
	"time"
)

// Composite fired-set key builders. P&L alerts and per-position stop/target
// triggers share one keyspace with raw price-alert ids, distinguished by
// prefix.
func PnlKey(alertID string) string       { return "pnl-" + alertID }
func StopKey(positionID string) string   { return "sl-" + positionID }
func TargetKey(positionID string) string { return "tp-" + positionID }

// firedTracker is the dedup/cooldown controller: a process-local record of
// which condition keys have fired and when each last fired. It is never
// persisted; the garbage-collection pass reconciles it against account state
// before every evaluation. Safe for concurrent use, since re-arm and dismiss
// operations clear keys from outside the evaluation goroutine.
type firedTracker struct {
	mu        sync.Mutex
	fired     map[string]struct{}
	lastFired map[string]time.Time
	cooldown  time.Duration
}

func newFiredTracker(cooldown time.Duration) *firedTracker {
	return &firedTracker{
		fired:     make(map[string]struct{}),
		lastFired: make(map[string]time.Time),
		cooldown:  cooldown,
	}
}

// Fired reports whether the key is currently suppressed.
func (t *firedTracker) Fired(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.fired[key]
	return ok
}

// MarkFired suppresses the key until it is cleared.
func (t *firedTracker) MarkFired(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fired[key] = struct{}{}
}

// Allow checks the cooldown window for key at the given instant. If the key
// last fired within the window it returns false and records nothing; otherwise
// it stamps the key with now and returns true. The stamp is taken at
// evaluation time for persistent and non-persistent alerts alike.
func (t *firedTracker) Allow(key string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if last, ok := t.lastFired[key]; ok && now.Sub(last) < t.cooldown {
		return false
	}
	t.lastFired[key] = now
	return true
}

// Clear removes both the fired flag and the cooldown stamp for key, making a
// re-armed alert eligible immediately.
func (t *firedTracker) Clear(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.fired, key)
	delete(t.lastFired, key)
}

// Keys returns a snapshot of the currently suppressed keys.
func (t *firedTracker) Keys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]string, 0, len(t.fired))
	for k := range t.fired {
		keys = append(keys, k)
	}
	return keys
}
