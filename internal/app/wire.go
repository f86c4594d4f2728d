package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/squireaintready/breakout/internal/alert"
	"github.com/squireaintready/breakout/internal/config"
	"github.com/squireaintready/breakout/internal/domain"
	"github.com/squireaintready/breakout/internal/notify"
	"github.com/squireaintready/breakout/internal/service"
	"github.com/squireaintready/breakout/internal/state"
	storeredis "github.com/squireaintready/breakout/internal/store/redis"
)

// Dependencies bundles everything the application modes need to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	StateStore *storeredis.StateStore
	PriceCache *storeredis.PriceCache
	Sync       *state.Synchronizer
	Engine     *alert.Engine
	Accounts   *service.AccountService
	Alerts     *service.AlertService
	Notifier   *notify.Notifier
	Limiter    domain.RateLimiter
	Location   *time.Location
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// --- Redis ---
	redisClient, err := storeredis.New(ctx, storeredis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps := &Dependencies{
		StateStore: storeredis.NewStateStore(redisClient, cfg.Redis.StateKey),
		PriceCache: storeredis.NewPriceCache(redisClient, 0),
		Limiter:    storeredis.NewRateLimiter(redisClient),
	}

	// --- State synchronizer ---
	deps.Sync = state.NewSynchronizer(deps.StateStore, cfg.Checker.PullInterval.Duration, logger)

	// --- Alert engine ---
	deps.Engine = alert.NewEngine(alert.Config{
		Cooldown:         cfg.Checker.Cooldown.Duration,
		Warmup:           cfg.Checker.Warmup.Duration,
		ClearFiredOnEdit: cfg.Checker.ClearFiredOnEdit,
	}, logger)

	// --- Services ---
	deps.Accounts = service.NewAccountService(deps.Sync, logger)
	deps.Alerts = service.NewAlertService(deps.Sync, deps.Engine, logger)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Timezone for notification timestamps ---
	deps.Location = time.UTC
	if cfg.Checker.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Checker.Timezone); err == nil {
			deps.Location = loc
		}
	}

	return deps, cleanup, nil
}
