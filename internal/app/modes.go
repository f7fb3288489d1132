package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evmarket/evmarketd/internal/auction"
	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/payment"
	"github.com/evmarket/evmarketd/internal/server"
	"github.com/evmarket/evmarketd/internal/server/handler"
	"github.com/evmarket/evmarketd/internal/server/ws"
	"github.com/evmarket/evmarketd/internal/service"
)

// sessionPurgeInterval is how often expired gateway sessions are swept from
// the session store.
const sessionPurgeInterval = 15 * time.Minute

// ServeMode runs the HTTP + WebSocket API server.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startServer(ctx, g, deps)
	return g.Wait()
}

// MonitorMode runs only the live-auction monitor loop. It needs no database
// or object storage; normalized snapshots go out on the signal bus.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.runMonitor(ctx, deps)
	})
	return g.Wait()
}

// FullMode runs the API server and the monitor loop together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startServer(ctx, g, deps)
	if a.cfg.Monitor.Enabled {
		g.Go(func() error {
			return a.runMonitor(ctx, deps)
		})
	}
	return g.Wait()
}

// startServer builds the service layer and the HTTP server and registers both
// on the errgroup, along with the WebSocket hub and the session purge sweep.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	authSvc := service.NewAuthService(
		deps.Upstream,
		deps.SessionStore,
		deps.SessionCache,
		deps.Sealer,
		a.cfg.Session.TTL.Duration,
		a.cfg.Session.CacheTTL.Duration,
		a.logger,
	)
	auctionSvc := service.NewAuctionService(deps.Upstream, a.logger)
	catalogSvc := service.NewCatalogService(deps.Upstream, a.cfg.Catalog.PageSize, a.cfg.Catalog.MaxScanPages, a.logger)
	walletSvc := service.NewWalletService(deps.Upstream, deps.AuditStore, a.logger)
	checkoutSvc := service.NewCheckoutService(
		deps.Upstream,
		deps.SettlementStore,
		deps.SignalBus,
		deps.LockManager,
		deps.Notifier,
		payment.Config{
			MaxAttempts: a.cfg.Poller.MaxAttempts,
			Interval:    a.cfg.Poller.Interval.Duration,
		},
		a.logger,
	)
	sellerSvc := service.NewSellerService(deps.Upstream, deps.Stager, a.logger)

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(a.logger),
		Auth:     handler.NewAuthHandler(authSvc, a.logger),
		Auctions: handler.NewAuctionHandler(auctionSvc, a.logger),
		Catalog:  handler.NewCatalogHandler(catalogSvc, a.logger),
		Wallet:   handler.NewWalletHandler(walletSvc, a.logger),
		Checkout: handler.NewCheckoutHandler(checkoutSvc, a.logger),
		Seller:   handler.NewSellerHandler(sellerSvc, a.logger),
	}

	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(server.Config{
		Port:             a.cfg.Server.Port,
		CORSOrigins:      a.cfg.Server.CORSOrigins,
		RateLimitEnabled: a.cfg.Server.RateLimitEnabled,
		RateLimitPerMin:  a.cfg.Server.RateLimitPerMin,
	}, handlers, authSvc, deps.RateLimiter, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Periodic sweep of expired sessions so the store does not grow unbounded.
	g.Go(func() error {
		ticker := time.NewTicker(sessionPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if _, err := authSvc.PurgeExpired(ctx); err != nil {
					a.logger.WarnContext(ctx, "session purge failed",
						slog.String("error", err.Error()),
					)
				}
			}
		}
	})
}

// runMonitor periodically fetches the live-auction feed for each configured
// time window, normalizes it, and publishes the snapshot on the signal bus.
// The feed endpoint is public upstream, so no session token is attached.
func (a *App) runMonitor(ctx context.Context, deps *Dependencies) error {
	interval := a.cfg.Monitor.Interval.Duration
	if interval <= 0 {
		interval = 30 * time.Second
	}
	windows := a.cfg.Monitor.TimeWindows
	if len(windows) == 0 {
		windows = []string{"current"}
	}

	a.logger.InfoContext(ctx, "monitor: starting live-auction loop",
		slog.Duration("interval", interval),
		slog.Any("windows", windows),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First pass immediately rather than one interval in.
	a.monitorPass(ctx, deps, windows)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.monitorPass(ctx, deps, windows)
		}
	}
}

// monitorPass fetches and publishes one snapshot per time window. Failures
// are logged and skipped; the loop carries on at the next tick.
func (a *App) monitorPass(ctx context.Context, deps *Dependencies, windows []string) {
	for _, window := range windows {
		if err := a.publishSnapshot(ctx, deps, window); err != nil {
			a.logger.WarnContext(ctx, "monitor: snapshot failed",
				slog.String("window", window),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (a *App) publishSnapshot(ctx context.Context, deps *Dependencies, window string) error {
	root, err := deps.Upstream.GetLiveAuctions(ctx, "", window)
	if err != nil {
		return fmt.Errorf("monitor: fetch live auctions: %w", err)
	}

	event := domain.LiveAuctionEvent{
		Time:     window,
		Auctions: auction.NormalizeList(root),
		At:       time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("monitor: marshal snapshot: %w", err)
	}

	if err := deps.SignalBus.Publish(ctx, domain.ChannelLiveAuctions, payload); err != nil {
		return fmt.Errorf("monitor: publish snapshot: %w", err)
	}
	if err := deps.SignalBus.StreamAppend(ctx, domain.ChannelLiveAuctions, payload); err != nil {
		a.logger.WarnContext(ctx, "monitor: stream append failed",
			slog.String("window", window),
			slog.String("error", err.Error()),
		)
	}

	a.logger.DebugContext(ctx, "monitor: snapshot published",
		slog.String("window", window),
		slog.Int("auctions", len(event.Auctions)),
	)
	return nil
}
