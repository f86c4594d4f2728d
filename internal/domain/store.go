package domain

import (
	"context"
	"time"
)

// StateStore persists the canonical account snapshot as a single document.
// Get returns ErrNotFound when no snapshot has ever been written.
type StateStore interface {
	Get(ctx context.Context) (*AccountState, error)
	Put(ctx context.Context, state *AccountState) error
}

// PriceCache stores the latest observed trade price per asset so that a
// server-only process can serve prices without its own feed connection.
type PriceCache interface {
	SetPrice(ctx context.Context, asset string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, asset string) (float64, time.Time, error)
	GetPrices(ctx context.Context, assets []string) (map[string]float64, error)
}

// PriceSource provides a point-in-time snapshot of last trade prices keyed by
// asset symbol. Implemented by the live feed and by cache-backed fallbacks.
type PriceSource interface {
	Snapshot() map[string]float64
}

// RateLimiter provides distributed rate limiting keyed by an arbitrary
// string. Allow reports whether a request under key is permitted within the
// window, counting it if so.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
