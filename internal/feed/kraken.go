// Package feed implements the live price feed: a Kraken WebSocket v2 ticker
// subscription that maintains an in-memory snapshot of last trade prices per
// asset and invokes a callback after every batch of updates.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/squireaintready/breakout/internal/domain"
	"github.com/squireaintready/breakout/internal/metrics"
)

const (
	// DefaultURL is the Kraken v2 public WebSocket endpoint.
	DefaultURL = "wss://ws.kraken.com/v2"

	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next message from the peer
	// before the connection is considered dead.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// TickHandler is invoked after each ticker batch has been applied to the
// price snapshot. It runs on the feed's read goroutine and must be cheap.
type TickHandler func()

// KrakenFeed subscribes to the ticker channel for a set of assets and keeps
// the latest trade price per asset. Duplicate or out-of-order updates for
// different assets within a batch are tolerated; per asset, last write wins.
// It reconnects with capped exponential backoff.
type KrakenFeed struct {
	url    string
	assets []string
	onTick TickHandler
	cache  domain.PriceCache // optional write-through, may be nil
	logger *slog.Logger

	mu     sync.RWMutex
	prices map[string]float64
}

// NewKrakenFeed creates a feed for the given assets. Assets with no known
// Kraken pair are skipped with a warning. cache may be nil.
func NewKrakenFeed(url string, assets []string, onTick TickHandler, cache domain.PriceCache, logger *slog.Logger) *KrakenFeed {
	if url == "" {
		url = DefaultURL
	}
	return &KrakenFeed{
		url:    url,
		assets: assets,
		onTick: onTick,
		cache:  cache,
		logger: logger.With(slog.String("component", "kraken_feed")),
		prices: make(map[string]float64),
	}
}

// Snapshot returns a copy of the current last-price map.
func (f *KrakenFeed) Snapshot() map[string]float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	snap := make(map[string]float64, len(f.prices))
	for k, v := range f.prices {
		snap[k] = v
	}
	return snap
}

// Run connects, subscribes, and processes ticker messages until ctx is
// cancelled, reconnecting on any connection failure.
func (f *KrakenFeed) Run(ctx context.Context) error {
	pairs := f.subscribePairs()
	if len(pairs) == 0 {
		f.logger.Info("no subscribable assets, feed exiting")
		return nil
	}

	delay := reconnectDelay
	for {
		err := f.runConnection(ctx, pairs)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.FeedReconnectsTotal.Inc()
		f.logger.Warn("kraken ws disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

func (f *KrakenFeed) subscribePairs() []string {
	pairs := make([]string, 0, len(f.assets))
	for _, asset := range f.assets {
		pair, ok := PairFor(asset)
		if !ok {
			f.logger.Warn("no kraken pair for asset", slog.String("asset", asset))
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs
}

// subscribeCommand is the Kraken v2 subscribe envelope.
type subscribeCommand struct {
	Method string          `json:"method"`
	Params subscribeParams `json:"params"`
}

type subscribeParams struct {
	Channel string   `json:"channel"`
	Symbol  []string `json:"symbol"`
}

// tickerMessage is the envelope of a ticker channel message.
type tickerMessage struct {
	Channel string       `json:"channel"`
	Data    []tickerData `json:"data"`
}

type tickerData struct {
	Symbol string  `json:"symbol"`
	Last   float64 `json:"last"`
}

func (f *KrakenFeed) runConnection(ctx context.Context, pairs []string) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("feed: connect: %w", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	cmd := subscribeCommand{
		Method: "subscribe",
		Params: subscribeParams{Channel: "ticker", Symbol: pairs},
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("feed: subscribe: %w", err)
	}
	f.logger.Info("kraken ws subscribed", slog.Int("pairs", len(pairs)))

	// Ping loop keeps the connection alive; it also closes the connection
	// when ctx is cancelled so the read loop unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("feed: read: %w", domain.ErrWSDisconnect)
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		f.handleMessage(ctx, raw)
	}
}

func (f *KrakenFeed) handleMessage(ctx context.Context, raw []byte) {
	var msg tickerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		// Heartbeats, subscription acks, and status messages land here.
		return
	}
	if msg.Channel != "ticker" || len(msg.Data) == 0 {
		return
	}

	updated := false
	f.mu.Lock()
	for _, tick := range msg.Data {
		asset, ok := AssetFor(tick.Symbol)
		if !ok || tick.Last <= 0 {
			continue
		}
		f.prices[asset] = tick.Last
		metrics.PriceUpdatesTotal.WithLabelValues(asset).Inc()
		updated = true
	}
	f.mu.Unlock()
	if !updated {
		return
	}

	if f.cache != nil {
		now := time.Now()
		for _, tick := range msg.Data {
			asset, ok := AssetFor(tick.Symbol)
			if !ok || tick.Last <= 0 {
				continue
			}
			if err := f.cache.SetPrice(ctx, asset, tick.Last, now); err != nil {
				f.logger.Debug("price cache write failed",
					slog.String("asset", asset),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if f.onTick != nil {
		f.onTick()
	}
}
