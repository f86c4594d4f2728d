package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/squireaintready/breakout/internal/domain"
	"github.com/squireaintready/breakout/internal/feed"
	"github.com/squireaintready/breakout/internal/server"
	"github.com/squireaintready/breakout/internal/server/handler"
	"github.com/squireaintready/breakout/internal/service"
	storeredis "github.com/squireaintready/breakout/internal/store/redis"
)

// CheckerMode runs the price feed, state synchronizer, and alert evaluation
// loop without the HTTP API.
func (a *App) CheckerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting checker mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startChecker(ctx, g, deps)
	return g.Wait()
}

// ServerMode runs only the HTTP API. Prices come from the Redis cache kept
// warm by a checker process running elsewhere.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)

	// The API still serves and mutates state, so the synchronizer runs here
	// too.
	g.Go(func() error {
		return deps.Sync.Run(ctx)
	})

	prices := storeredis.NewCachedPriceSource(deps.PriceCache, a.cfg.Feed.Assets)
	a.startHTTPServer(ctx, g, deps, prices)

	return g.Wait()
}

// FullMode runs the checker and the HTTP API in one process; the API serves
// prices straight from the live feed.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	priceFeed := a.startChecker(ctx, g, deps)
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, priceFeed)
	}
	return g.Wait()
}

// startChecker launches the synchronizer, the Kraken feed, and the evaluation
// loop on the given errgroup, and returns the feed as the live price source.
func (a *App) startChecker(ctx context.Context, g *errgroup.Group, deps *Dependencies) *feed.KrakenFeed {
	// The feed signals the checker on every tick; the checker reads prices
	// back from the feed. Bind the callback through a variable so both can be
	// constructed before either goroutine starts.
	var checker *service.Checker
	priceFeed := feed.NewKrakenFeed(
		a.cfg.Feed.URL,
		a.cfg.Feed.Assets,
		func() { checker.Tick() },
		deps.PriceCache,
		a.logger,
	)
	checker = service.NewChecker(
		deps.Sync,
		deps.Engine,
		priceFeed,
		deps.Accounts,
		deps.Notifier,
		a.cfg.Checker.EvalInterval.Duration,
		deps.Location,
		a.logger,
	)

	g.Go(func() error {
		return deps.Sync.Run(ctx)
	})
	g.Go(func() error {
		return priceFeed.Run(ctx)
	})
	g.Go(func() error {
		checker.NotifyOnline(ctx)
		err := checker.Run(ctx)

		// The run loop only exits on cancellation; say goodbye on a fresh
		// context so the message still goes out.
		offCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		checker.NotifyOffline(offCtx)
		return err
	})

	return priceFeed
}

// startHTTPServer builds the handler set over the given price source and adds
// the HTTP server goroutines to the errgroup.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, prices domain.PriceSource) {
	riskSvc := service.NewRiskService(deps.Sync, prices, a.logger)

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		Password:        a.cfg.Server.Password,
		Limiter:         deps.Limiter,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, server.Handlers{
		Health:    handler.NewHealthHandler(a.logger),
		State:     handler.NewStateHandler(deps.Sync, a.logger),
		Prices:    handler.NewPricesHandler(prices, a.logger),
		Risk:      handler.NewRiskHandler(riskSvc, a.logger),
		Positions: handler.NewPositionHandler(deps.Accounts, a.logger),
		Alerts:    handler.NewAlertHandler(deps.Alerts, a.logger),
	}, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("server shutdown failed", slog.String("error", err.Error()))
		}
		return ctx.Err()
	})
}
