package redis

import (
	"context"
	"time"

	"github.com/squireaintready/breakout/internal/domain"
)

// CachedPriceSource adapts the PriceCache to domain.PriceSource for server
// mode, where no live feed runs in-process and the checker process keeps the
// cache warm.
type CachedPriceSource struct {
	cache  *PriceCache
	assets []string
}

// NewCachedPriceSource creates a source reading the cached prices for the
// given assets.
func NewCachedPriceSource(cache *PriceCache, assets []string) *CachedPriceSource {
	return &CachedPriceSource{cache: cache, assets: assets}
}

// Snapshot returns the cached last price per asset. Cache errors yield an
// empty map; callers treat missing prices as "not known yet".
func (s *CachedPriceSource) Snapshot() map[string]float64 {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	prices, err := s.cache.GetPrices(ctx, s.assets)
	if err != nil {
		return map[string]float64{}
	}
	return prices
}

// Compile-time interface check.
var _ domain.PriceSource = (*CachedPriceSource)(nil)
