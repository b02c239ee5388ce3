// Package main is the ChampTrack worker.
//
// The worker keeps one family's store in memory, follows its snapshot feed,
// delivers queued writes to the document backend, runs the scheduled jobs
// (conflict digest, dead letter requeue) and serves a read-only status API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/champtrack/champtrack-hub/config"
	"github.com/champtrack/champtrack-hub/internal/application/outbox"
	"github.com/champtrack/champtrack-hub/internal/application/store"
	"github.com/champtrack/champtrack-hub/internal/application/syncer"
	"github.com/champtrack/champtrack-hub/internal/infrastructure/messaging"
	"github.com/champtrack/champtrack-hub/internal/infrastructure/persistence"
	"github.com/champtrack/champtrack-hub/internal/infrastructure/scheduler"
	"github.com/champtrack/champtrack-hub/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/champtrack/champtrack-hub/internal/interface/http"
	"github.com/champtrack/champtrack-hub/internal/interface/http/handlers"
	"github.com/champtrack/champtrack-hub/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	startedAt := time.Now()

	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION AND LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := setupLogger(cfg)
	log.Info("starting ChampTrack worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("timezone", cfg.App.Timezone),
	)

	familyID := cfg.Sync.FamilyID
	if familyID == "" {
		return errors.New("SYNC_FAMILY_ID is required")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. DOCUMENT BACKEND
	// ─────────────────────────────────────────────────────────────────────────
	backend, err := persistence.Open(ctx, cfg, true, log)
	if err != nil {
		return fmt.Errorf("failed to open document backend: %w", err)
	}
	defer func() {
		log.Info("closing document backend")
		backend.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. EVENT BUS, OUTBOX, STORE
	// ─────────────────────────────────────────────────────────────────────────
	bus := messaging.NewInMemoryEventBus(messaging.Config{Async: true, Logger: log})
	defer func() { _ = bus.Close() }()
	if err := bus.SubscribeAll(messaging.LogHandler(log.Named("events"))); err != nil {
		return err
	}

	ob := outbox.New(backend.Store, append(outbox.ConfigOptions(cfg.Outbox),
		outbox.WithLogger(log),
		outbox.WithPublisher(bus),
	)...)
	st := store.New(append(store.ConfigOptions(cfg),
		store.WithPersister(ob),
		store.WithPublisher(bus),
		store.WithLogger(log),
	)...)

	snap, err := syncer.Load(ctx, backend.Store, st, familyID)
	if err != nil {
		return fmt.Errorf("failed to load family %s: %w", familyID, err)
	}
	log.Info("family loaded", logger.FamilyID(familyID), logger.Int("documents", snap.Len()))

	// ─────────────────────────────────────────────────────────────────────────
	// 4. SCHEDULED JOBS
	// ─────────────────────────────────────────────────────────────────────────
	hour, minute, err := cfg.Worker.DigestClock()
	if err != nil {
		return err
	}
	sched := scheduler.New(scheduler.Config{Logger: log})
	if err := sched.Register(
		jobs.NewConflictDigestJob(st, nil, cfg.App.Location, cfg.Worker.DigestDays, log),
		scheduler.Daily{Hour: hour, Minute: minute, Location: cfg.App.Location},
	); err != nil {
		return err
	}
	if err := sched.Register(
		jobs.NewRequeueDeadLettersJob(ob, log),
		scheduler.Every(cfg.Worker.RequeueInterval),
	); err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. STATUS API
	// ─────────────────────────────────────────────────────────────────────────
	var api *httpapi.Server
	if cfg.HTTP.Enabled {
		health := handlers.NewCompositeHealthChecker(cfg.App.Version)
		health.AddCheck("outbox", handlers.NewOutboxCheck(ob, 0))
		if backend.Conn != nil {
			health.AddCheck("postgres", handlers.NewPingCheck(backend.Conn))
		}
		if backend.Cache != nil {
			health.AddCheck("redis", handlers.NewPingCheck(backend.Cache))
		}
		api = httpapi.NewServer(cfg.HTTP, httpapi.Dependencies{
			Store:    st,
			Health:   health,
			Logger:   log,
			Location: cfg.App.Location,
		})
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. RUN
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ob.Run(gctx) })
	g.Go(func() error { return sched.Run(gctx) })
	if api != nil {
		g.Go(func() error { return api.Run(gctx) })
	}

	if backend.Subscriber != nil {
		sy := syncer.New(backend.Subscriber, st, log)
		g.Go(func() error { return sy.Run(gctx, familyID) })
	} else {
		log.Warn("backend has no change feed, snapshot following disabled", logger.String("backend", backend.Name))
	}

	log.Info("ChampTrack worker is running", logger.FamilyID(familyID))
	err = g.Wait()
	if err != nil && !syncer.IsStopped(err) {
		log.Error("worker stopped with error", logger.Err(err))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("starting graceful shutdown", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	ob.Close()

	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if ferr := ob.Flush(flushCtx); ferr != nil {
		log.Error("outbox not drained", logger.Int("pending", ob.Pending()), logger.Err(ferr))
	}
	if dead := ob.DeadLetters(); len(dead) > 0 {
		log.Warn("writes left undelivered", logger.Int("dead_letters", len(dead)))
	}

	log.Info("shutdown completed", logger.Duration("uptime", time.Since(startedAt)))
	if syncer.IsStopped(err) {
		return nil
	}
	return err
}

func setupLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Format:    logger.Format(cfg.Observability.LogFormat),
		AddCaller: cfg.App.Debug,
	}).Named(cfg.App.Name)
}
