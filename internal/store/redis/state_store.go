package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/squireaintready/breakout/internal/domain"
)

// defaultStateKey matches the key the dashboard's serverless API wrote, so an
// existing deployment keeps its data when switching to this backend.
const defaultStateKey = "breakout-state"

// StateStore implements domain.StateStore as a single JSON document.
type StateStore struct {
	rdb *redis.Client
	key string
}

// NewStateStore creates a StateStore backed by the given Client. An empty key
// selects the default.
func NewStateStore(c *Client, key string) *StateStore {
	if key == "" {
		key = defaultStateKey
	}
	return &StateStore{rdb: c.Underlying(), key: key}
}

// Get fetches and decodes the account snapshot. Returns domain.ErrNotFound
// when the key has never been written.
func (s *StateStore) Get(ctx context.Context) (*domain.AccountState, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get state: %w", err)
	}

	var state domain.AccountState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("redis: decode state: %w", err)
	}
	return &state, nil
}

// Put encodes and stores the full account snapshot, replacing the previous
// document (last-write-wins at whole-state granularity).
func (s *StateStore) Put(ctx context.Context, state *domain.AccountState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("redis: encode state: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis: put state: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.StateStore = (*StateStore)(nil)
