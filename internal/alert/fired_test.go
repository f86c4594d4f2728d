package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFiredTracker_AllowStampsOnlyOnSuccess(t *testing.T) {
	t.Parallel()

	tr := newFiredTracker(30 * time.Second)
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, tr.Allow("k", t0))
	assert.False(t, tr.Allow("k", t0.Add(15*time.Second)))

	// The failed attempt must not have refreshed the stamp: 31s after the
	// original stamp the key is allowed again.
	assert.True(t, tr.Allow("k", t0.Add(31*time.Second)))
}

func TestFiredTracker_MarkAndClear(t *testing.T) {
	t.Parallel()

	tr := newFiredTracker(30 * time.Second)
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.False(t, tr.Fired("k"))
	tr.Allow("k", t0)
	tr.MarkFired("k")
	assert.True(t, tr.Fired("k"))

	tr.Clear("k")
	assert.False(t, tr.Fired("k"))
	// Clear drops the cooldown stamp too.
	assert.True(t, tr.Allow("k", t0.Add(time.Second)))
}

func TestFiredTracker_KeysListsOnlyFired(t *testing.T) {
	t.Parallel()

	tr := newFiredTracker(30 * time.Second)
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	// Keys with only a cooldown stamp are not listed.
	tr.Allow("cooling", t0)
	tr.MarkFired(StopKey("p1"))
	tr.MarkFired(PnlKey("a1"))

	assert.ElementsMatch(t, []string{"sl-p1", "pnl-a1"}, tr.Keys())
}
