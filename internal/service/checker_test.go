package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squireaintready/breakout/internal/alert"
	"github.com/squireaintready/breakout/internal/domain"
	"github.com/squireaintready/breakout/internal/notify"
)

type staticPrices map[string]float64

func (p staticPrices) Snapshot() map[string]float64 { return p }

type recordingSender struct {
	mu     sync.Mutex
	titles []string
}

func (r *recordingSender) Send(ctx context.Context, title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	return nil
}

func (r *recordingSender) Name() string { return "recording" }

func (r *recordingSender) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.titles...)
}

func TestCheckerPass_FiresAndNotifies(t *testing.T) {
	t.Parallel()

	sy := newSeededSync(t)
	require.NoError(t, sy.WithState(func(st *domain.AccountState) bool {
		st.PriceAlerts = []*domain.PriceAlert{{
			ID: "a1", Asset: "BTC", TargetPrice: 60000, Direction: domain.DirectionAbove,
		}}
		return true
	}))

	engine := alert.NewEngine(alert.Config{}, testLogger())
	sender := &recordingSender{}
	notifier := notify.NewNotifier([]notify.Sender{sender}, nil, testLogger())
	accounts := NewAccountService(sy, testLogger())

	checker := NewChecker(sy, engine, staticPrices{"BTC": 61000}, accounts, notifier, time.Millisecond, nil, testLogger())
	checker.runPass(context.Background())

	titles := sender.sent()
	require.Len(t, titles, 1)
	assert.Equal(t, "BTC ↑ 60000", titles[0])

	// The fired alert is persisted as triggered.
	snap, err := sy.Snapshot()
	require.NoError(t, err)
	assert.True(t, snap.PriceAlerts[0].Triggered)

	// A second pass with the condition still true stays quiet.
	checker.runPass(context.Background())
	assert.Len(t, sender.sent(), 1)
}

func TestCheckerPass_EmptyPricesSkips(t *testing.T) {
	t.Parallel()

	sy := newSeededSync(t)
	engine := alert.NewEngine(alert.Config{}, testLogger())
	sender := &recordingSender{}
	notifier := notify.NewNotifier([]notify.Sender{sender}, nil, testLogger())

	checker := NewChecker(sy, engine, staticPrices{}, NewAccountService(sy, testLogger()), notifier, time.Millisecond, nil, testLogger())
	checker.runPass(context.Background())
	assert.Empty(t, sender.sent())
}

func TestCheckerTick_Coalesces(t *testing.T) {
	t.Parallel()

	sy := newSeededSync(t)
	engine := alert.NewEngine(alert.Config{}, testLogger())
	checker := NewChecker(sy, engine, staticPrices{}, NewAccountService(sy, testLogger()), nil, time.Millisecond, nil, testLogger())

	// Rapid ticks must never block the caller.
	for i := 0; i < 100; i++ {
		checker.Tick()
	}
	assert.Len(t, checker.ticks, 1)
}

func TestNotifierEventFilter(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	notifier := notify.NewNotifier([]notify.Sender{sender}, []string{"stop_loss"}, testLogger())

	require.NoError(t, notifier.Notify(context.Background(), "price_alert", "dropped", "body"))
	require.NoError(t, notifier.Notify(context.Background(), "stop_loss", "delivered", "body"))
	require.NoError(t, notifier.NotifyAll(context.Background(), "lifecycle", ""))

	assert.Equal(t, []string{"delivered", "lifecycle"}, sender.sent())
}
