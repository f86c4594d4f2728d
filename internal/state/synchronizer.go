// Package state implements the synchronizer that keeps the in-memory account
// snapshot reconciled with the canonical state store. Local memory is the
// source of truth between syncs: mutations are applied synchronously under the
// synchronizer's lock and persisted best-effort, and a pending local change
// always wins over an incoming pull.
package state

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/squireaintready/breakout/internal/domain"
	"github.com/squireaintready/breakout/internal/metrics"
)

// DefaultPullInterval is how often the synchronizer polls the state store
// when no local changes are pending.
const DefaultPullInterval = 10 * time.Second

// Synchronizer owns the cached account state and mediates all access to it.
type Synchronizer struct {
	store    domain.StateStore
	interval time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	state *domain.AccountState
	dirty bool
}

// NewSynchronizer creates a Synchronizer polling the store at the given
// interval (DefaultPullInterval when non-positive).
func NewSynchronizer(store domain.StateStore, interval time.Duration, logger *slog.Logger) *Synchronizer {
	if interval <= 0 {
		interval = DefaultPullInterval
	}
	return &Synchronizer{
		store:    store,
		interval: interval,
		logger:   logger.With(slog.String("component", "state_sync")),
	}
}

// Run performs an initial pull and then loops until ctx is cancelled: each
// tick pushes pending local changes, otherwise pulls the canonical snapshot.
// On shutdown it flushes any remaining dirty state.
func (s *Synchronizer) Run(ctx context.Context) error {
	s.pull(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.Flush(flushCtx); err != nil {
				s.logger.Warn("flush on shutdown failed", slog.String("error", err.Error()))
			}
			return ctx.Err()
		case <-ticker.C:
			// Push-before-pull: never let a pull clobber unpersisted local
			// mutations.
			if s.pendingPush() {
				s.push(ctx)
			} else {
				s.pull(ctx)
			}
		}
	}
}

// WithState runs fn against the cached state under the synchronizer's lock.
// fn returns whether it modified the state; modifications are persisted on the
// next push. Returns domain.ErrNoState when no snapshot has been loaded yet.
func (s *Synchronizer) WithState(fn func(state *domain.AccountState) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return domain.ErrNoState
	}
	if fn(s.state) {
		s.dirty = true
	}
	return nil
}

// Snapshot returns a deep copy of the cached state, or ErrNoState.
func (s *Synchronizer) Snapshot() (*domain.AccountState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, domain.ErrNoState
	}
	return s.state.Clone(), nil
}

// Replace swaps in a complete new snapshot (e.g. from a PUT of the whole
// state) and marks it for push.
func (s *Synchronizer) Replace(state *domain.AccountState) {
	s.mu.Lock()
	s.state = state
	s.dirty = true
	s.mu.Unlock()
}

// MarkDirty schedules a push of the current state.
func (s *Synchronizer) MarkDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// Flush pushes pending local changes synchronously. A failed push keeps the
// dirty flag set so the next cycle retries; it never rolls back memory.
func (s *Synchronizer) Flush(ctx context.Context) error {
	if !s.pendingPush() {
		return nil
	}
	return s.push(ctx)
}

func (s *Synchronizer) pendingPush() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty && s.state != nil
}

// push writes a copy of the local state to the store. The copy is taken under
// the lock; the network write happens outside it.
func (s *Synchronizer) push(ctx context.Context) error {
	s.mu.Lock()
	if s.state == nil {
		s.mu.Unlock()
		return nil
	}
	snap := s.state.Clone()
	s.dirty = false
	s.mu.Unlock()

	if err := s.store.Put(ctx, snap); err != nil {
		metrics.SyncFailuresTotal.WithLabelValues("push").Inc()
		s.logger.Warn("state push failed", slog.String("error", err.Error()))
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return err
	}
	return nil
}

// pull fetches the canonical snapshot and installs it unless local changes
// became pending while the fetch was in flight.
func (s *Synchronizer) pull(ctx context.Context) {
	remote, err := s.store.Get(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			metrics.SyncFailuresTotal.WithLabelValues("pull").Inc()
			s.logger.Warn("state pull failed", slog.String("error", err.Error()))
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		// Local mutations win; they will be pushed on the next cycle.
		return
	}
	s.state = remote
}
