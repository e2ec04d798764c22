package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mem "lead-activity-feed/internal/adapters/cache/memory"
	pg "lead-activity-feed/internal/adapters/cache/postgres"
	lite "lead-activity-feed/internal/adapters/cache/sqlite"
	"lead-activity-feed/internal/adapters/upstream"
	"lead-activity-feed/internal/config"
	"lead-activity-feed/internal/domain/feed"
	"lead-activity-feed/internal/platform/bus"
	"lead-activity-feed/internal/platform/errreport"
	"lead-activity-feed/internal/platform/logger"
	"lead-activity-feed/internal/platform/metrics"
	"lead-activity-feed/internal/platform/poller"
	"lead-activity-feed/internal/ports/crm"
	"lead-activity-feed/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    "lead-activity-feed",
	})

	if err := errreport.Init(errreport.Config{
		Enabled:     cfg.ErrReport.Enabled,
		DSN:         cfg.ErrReport.DSN,
		Environment: cfg.ErrReport.Environment,
		Release:     cfg.ErrReport.Release,
	}); err != nil {
		lg.Warn("error reporting disabled", map[string]any{"error": err.Error()})
	}
	defer errreport.Close()

	metrics.Init(cfg.Metrics.Enabled)

	crmClient, err := upstream.NewClient(upstream.Config{
		BaseURL: cfg.Upstream.BaseURL,
		APIKey:  cfg.Upstream.APIKey,
		Timeout: cfg.Upstream.Timeout,
	})
	if err != nil {
		log.Fatalf("upstream client: %v", err)
	}
	if !crmClient.IsConfigured() {
		lg.Warn("upstream base url not configured; every timeline request will fail", nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := openCache(ctx, cfg, lg)

	b := bus.New()
	svc := feed.NewService(crmClient, crmClient, crmClient, cache, lg)

	cancelSub := svc.SubscribeInvalidations(ctx, b)
	defer cancelSub()

	if crmClient.IsConfigured() {
		// Bounded readiness probe: stops on first successful ping.
		readiness := poller.Start(ctx, poller.Task{
			Name:        "upstream-readiness",
			Interval:    cfg.Poll.ReadinessInterval,
			MaxAttempts: cfg.Poll.ReadinessMaxAttempts,
			Log:         lg,
			Run: func(ctx context.Context) (bool, error) {
				if err := crmClient.Ping(ctx); err != nil {
					return false, err
				}
				lg.Info("upstream reachable", nil)
				return true, nil
			},
		})
		defer readiness.Stop()

		// Recurring activity tick: invalidates loaded feed state so stale
		// timelines refetch on their next request.
		activity := poller.Start(ctx, poller.Task{
			Name:     "activity-refresh",
			Interval: cfg.Poll.ActivityInterval,
			Log:      lg,
			Run: func(context.Context) (bool, error) {
				b.Publish(bus.Event{Topic: bus.TopicLeadActivity})
				return false, nil
			},
		})
		defer activity.Stop()
	}

	handler := router.New(router.Options{
		AuthVerifier:   nil, // dev mode; production wires a real verifier here
		Feed:           svc,
		Log:            lg,
		MetricsEnabled: cfg.Metrics.Enabled,
		SwaggerEnabled: true,
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("starting server", map[string]any{"addr": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case <-ctx.Done():
		lg.Info("shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error("shutdown error", map[string]any{"error": err.Error()})
		}
	}
}

// openCache picks the snapshot cache backend. Any backend that fails to open
// degrades to the in-memory cache: caching is an availability aid, never a
// reason not to start.
func openCache(ctx context.Context, cfg *config.Config, lg logger.Logger) crm.SnapshotCache {
	switch cfg.Cache.Driver {
	case "postgres":
		db, err := pg.Open(cfg.Cache.DSN)
		if err != nil {
			lg.Warn("postgres cache unavailable; using in-memory cache", map[string]any{"error": err.Error()})
			return mem.NewSnapshotCache()
		}
		cache := pg.NewSnapshotCache(db)
		if err := cache.EnsureSchema(ctx); err != nil {
			lg.Warn("postgres cache schema failed; using in-memory cache", map[string]any{"error": err.Error()})
			_ = db.Close()
			return mem.NewSnapshotCache()
		}
		return cache

	case "sqlite":
		db, err := lite.Open(cfg.Cache.Path)
		if err != nil {
			lg.Warn("sqlite cache unavailable; using in-memory cache", map[string]any{"error": err.Error()})
			return mem.NewSnapshotCache()
		}
		return lite.NewSnapshotCache(db)

	default:
		return mem.NewSnapshotCache()
	}
}
