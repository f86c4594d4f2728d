// Package metrics defines the Prometheus instruments exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EvaluationsTotal counts completed alert evaluation passes.
var EvaluationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "breakout",
		Subsystem: "checker",
		Name:      "evaluations_total",
		Help:      "Number of alert evaluation passes completed",
	},
)

// EventsTotal counts notification events by type (price_alert, stop_loss,
// take_profit, pnl_alert).
var EventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "breakout",
		Subsystem: "checker",
		Name:      "events_total",
		Help:      "Number of notification events produced, by event type",
	},
	[]string{"type"},
)

// EvaluationDuration measures the time spent in a single evaluation pass.
var EvaluationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "breakout",
		Subsystem: "checker",
		Name:      "evaluation_duration_ms",
		Help:      "Time to run one alert evaluation pass in milliseconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	},
)

// SyncFailuresTotal counts failed state pushes and pulls against the store.
var SyncFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "breakout",
		Subsystem: "state",
		Name:      "sync_failures_total",
		Help:      "Number of failed state store operations, by direction",
	},
	[]string{"direction"},
)

// FeedReconnectsTotal counts price feed reconnect attempts.
var FeedReconnectsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "breakout",
		Subsystem: "feed",
		Name:      "reconnects_total",
		Help:      "Number of price feed reconnect attempts",
	},
)

// PriceUpdatesTotal counts ticker updates received from the feed, by asset.
var PriceUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "breakout",
		Subsystem: "feed",
		Name:      "price_updates_total",
		Help:      "Number of ticker updates received, by asset",
	},
	[]string{"asset"},
)

// NotificationsTotal counts dispatched notifications by outcome.
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "breakout",
		Subsystem: "notify",
		Name:      "notifications_total",
		Help:      "Number of notification dispatches, by outcome",
	},
	[]string{"outcome"},
)
