package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squireaintready/breakout/internal/domain"
)

type fakeStore struct {
	mu     sync.Mutex
	state  *domain.AccountState
	putErr error
	getErr error
	puts   int
	gets   int
}

func (f *fakeStore) Get(ctx context.Context) (*domain.AccountState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.state == nil {
		return nil, domain.ErrNotFound
	}
	return f.state.Clone(), nil
}

func (f *fakeStore) Put(ctx context.Context, state *domain.AccountState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.state = state.Clone()
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededState(balance float64) *domain.AccountState {
	st := domain.NewAccountState(domain.DefaultSettings(), time.Now().UnixMilli())
	st.SetBalance(balance)
	return st
}

func TestWithState_NoSnapshotYet(t *testing.T) {
	t.Parallel()

	s := NewSynchronizer(&fakeStore{}, time.Second, testLogger())
	err := s.WithState(func(*domain.AccountState) bool { return true })
	assert.ErrorIs(t, err, domain.ErrNoState)

	_, err = s.Snapshot()
	assert.ErrorIs(t, err, domain.ErrNoState)
}

func TestWithState_MutationMarksDirtyAndFlushes(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	s := NewSynchronizer(store, time.Second, testLogger())
	s.Replace(seededState(10000))

	err := s.WithState(func(st *domain.AccountState) bool {
		st.SetBalance(9500)
		return true
	})
	require.NoError(t, err)

	require.NoError(t, s.Flush(context.Background()))
	assert.InDelta(t, 9500.0, store.state.Balance, 1e-9)
}

func TestWithState_NoMutationSkipsPush(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	s := NewSynchronizer(store, time.Second, testLogger())
	s.Replace(seededState(10000))
	require.NoError(t, s.Flush(context.Background()))
	putsAfterSeed := store.puts

	err := s.WithState(func(*domain.AccountState) bool { return false })
	require.NoError(t, err)

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, putsAfterSeed, store.puts)
}

func TestFlush_FailedPushKeepsDirty(t *testing.T) {
	t.Parallel()

	store := &fakeStore{putErr: errors.New("redis: connection refused")}
	s := NewSynchronizer(store, time.Second, testLogger())
	s.Replace(seededState(10000))

	err := s.Flush(context.Background())
	require.Error(t, err)

	// The dirty flag survived the failure, so the retry pushes again.
	store.mu.Lock()
	store.putErr = nil
	store.mu.Unlock()
	require.NoError(t, s.Flush(context.Background()))
	assert.InDelta(t, 10000.0, store.state.Balance, 1e-9)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	t.Parallel()

	s := NewSynchronizer(&fakeStore{}, time.Second, testLogger())
	st := seededState(10000)
	st.Positions = []*domain.Position{{ID: "p1", Asset: "BTC", Side: domain.SideLong, EntryPrice: 50000, Size: 1000}}
	s.Replace(st)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	snap.Positions[0].EntryPrice = 1

	again, err := s.Snapshot()
	require.NoError(t, err)
	assert.InDelta(t, 50000.0, again.Positions[0].EntryPrice, 1e-9)
}

func TestRun_PullInstallsRemoteState(t *testing.T) {
	t.Parallel()

	store := &fakeStore{state: seededState(12345)}
	s := NewSynchronizer(store, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		snap, err := s.Snapshot()
		return err == nil && snap.Balance == 12345
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestRun_DirtyStateWinsOverPull(t *testing.T) {
	t.Parallel()

	// Pushes fail for the whole test, so the local change stays pending while
	// pull cycles keep arriving with a conflicting remote snapshot.
	store := &fakeStore{state: seededState(12345), putErr: errors.New("down")}
	s := NewSynchronizer(store, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := s.Snapshot()
		return err == nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.WithState(func(st *domain.AccountState) bool {
		st.SetBalance(777)
		return true
	}))

	time.Sleep(50 * time.Millisecond)
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.InDelta(t, 777.0, snap.Balance, 1e-9)
}
