package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/squireaintready/breakout/internal/alert"
	"github.com/squireaintready/breakout/internal/domain"
	"github.com/squireaintready/breakout/internal/metrics"
	"github.com/squireaintready/breakout/internal/notify"
	"github.com/squireaintready/breakout/internal/state"
)

// DefaultEvalInterval is the minimum time between two evaluation passes. Feed
// ticks arriving faster than this are coalesced into the next pass.
const DefaultEvalInterval = 500 * time.Millisecond

// Checker drives the evaluation loop: on each price tick (throttled) it runs
// a garbage-collect plus evaluate pass under the synchronizer's lock, applies
// the daily reset when due, and dispatches notification events outside the
// lock.
type Checker struct {
	sync     *state.Synchronizer
	engine   *alert.Engine
	prices   domain.PriceSource
	accounts *AccountService
	notifier *notify.Notifier
	interval time.Duration
	loc      *time.Location
	logger   *slog.Logger

	ticks chan struct{}
}

// NewChecker creates a Checker. interval defaults to DefaultEvalInterval when
// non-positive; loc defaults to UTC and only affects notification timestamps.
func NewChecker(
	sync *state.Synchronizer,
	engine *alert.Engine,
	prices domain.PriceSource,
	accounts *AccountService,
	notifier *notify.Notifier,
	interval time.Duration,
	loc *time.Location,
	logger *slog.Logger,
) *Checker {
	if interval <= 0 {
		interval = DefaultEvalInterval
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Checker{
		sync:     sync,
		engine:   engine,
		prices:   prices,
		accounts: accounts,
		notifier: notifier,
		interval: interval,
		loc:      loc,
		logger:   logger.With(slog.String("component", "checker")),
		ticks:    make(chan struct{}, 1),
	}
}

// Tick signals that fresh prices are available. Safe to call from the feed's
// read goroutine; signals arriving while a pass is pending are coalesced.
func (c *Checker) Tick() {
	select {
	case c.ticks <- struct{}{}:
	default:
	}
}

// Run processes tick signals until ctx is cancelled, enforcing the minimum
// inter-evaluation interval.
func (c *Checker) Run(ctx context.Context) error {
	c.logger.Info("checker started", slog.Duration("interval", c.interval))

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ticks:
		}

		if wait := c.interval - time.Since(last); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		last = time.Now()
		c.runPass(ctx)
	}
}

// runPass executes one evaluation pass and dispatches the resulting events.
func (c *Checker) runPass(ctx context.Context) {
	prices := c.prices.Snapshot()
	if len(prices) == 0 {
		return
	}

	start := time.Now()
	var events []alert.Event
	err := c.sync.WithState(func(st *domain.AccountState) bool {
		c.engine.GarbageCollect(st)
		evs, mutated := c.engine.Evaluate(prices, st)
		events = evs
		return mutated
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNoState) {
			c.logger.Warn("evaluation pass failed", slog.String("error", err.Error()))
		}
		return
	}
	metrics.EvaluationsTotal.Inc()
	metrics.EvaluationDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)

	if _, err := c.accounts.DailyResetIfDue(ctx); err != nil && !errors.Is(err, domain.ErrNoState) {
		c.logger.Warn("daily reset check failed", slog.String("error", err.Error()))
	}

	for _, ev := range events {
		metrics.EventsTotal.WithLabelValues(string(ev.Type)).Inc()
		c.logger.Info("alert event",
			slog.String("type", string(ev.Type)),
			slog.String("title", ev.Title),
		)
		if c.notifier == nil {
			continue
		}
		if err := c.notifier.Notify(ctx, string(ev.Type), ev.Title, ev.Message(c.loc)); err != nil {
			metrics.NotificationsTotal.WithLabelValues("error").Inc()
		} else {
			metrics.NotificationsTotal.WithLabelValues("ok").Inc()
		}
	}
}

// NotifyOnline sends the startup lifecycle message.
func (c *Checker) NotifyOnline(ctx context.Context) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.NotifyAll(ctx, "🟢 Alert checker online", ""); err != nil {
		c.logger.Warn("online notification failed", slog.String("error", err.Error()))
	}
}

// NotifyOffline sends the shutdown lifecycle message. Called after the run
// loop has stopped, so it takes its own context.
func (c *Checker) NotifyOffline(ctx context.Context) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.NotifyAll(ctx, "🔴 Alert checker offline", ""); err != nil {
		c.logger.Warn("offline notification failed", slog.String("error", err.Error()))
	}
}
