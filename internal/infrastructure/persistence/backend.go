package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/champtrack/champtrack-hub/config"
	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/infrastructure/persistence/postgres"
	"github.com/champtrack/champtrack-hub/internal/infrastructure/persistence/redis"
	"github.com/champtrack/champtrack-hub/internal/infrastructure/persistence/sqlite"
	"github.com/champtrack/champtrack-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// BACKEND
// ══════════════════════════════════════════════════════════════════════════════

// Backend is the document storage selected by configuration: PostgreSQL when
// a database URL is set, SQLite otherwise, mirrored to the Redis snapshot
// feed when Redis is reachable.
type Backend struct {
	// Name is "postgres" or "sqlite".
	Name string

	Store document.Store

	// Subscriber follows snapshot changes. Nil for SQLite without Redis.
	Subscriber document.Subscriber

	// Postgres is set only for the PostgreSQL backend.
	Postgres *postgres.DocumentRepository
	Conn     *postgres.Connection

	Feed  *redis.SnapshotFeed
	Cache *redis.Cache

	closers []func()
}

// Open connects the configured backend. With migrate set, pending
// PostgreSQL migrations are applied.
func Open(ctx context.Context, cfg *config.Config, migrate bool, log *logger.Logger) (*Backend, error) {
	if log == nil {
		log = logger.Nop()
	}
	b := &Backend{}

	if cfg.Database.URL != "" {
		conn, err := postgres.NewConnection(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, conn.Close)
		if migrate {
			n, err := postgres.NewMigrator(conn).Migrate(ctx)
			if err != nil {
				b.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			log.Info("database schema is up to date", logger.Int("applied", n))
		}
		repo := postgres.NewDocumentRepository(conn, log)
		b.Name, b.Store, b.Subscriber, b.Postgres, b.Conn = "postgres", repo, repo, repo, conn
	} else {
		st, err := sqlite.Open(cfg.SQLite)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = st.Close() })
		b.Name, b.Store = "sqlite", st
	}

	cache, err := redis.NewCache(ctx, cfg.Redis)
	switch {
	case errors.Is(err, redis.ErrCacheDisabled):
	case err != nil:
		log.Warn("redis unavailable, snapshot feed disabled", logger.Err(err))
	default:
		b.closers = append(b.closers, func() { _ = cache.Close() })
		b.Cache = cache
		b.Feed = redis.NewSnapshotFeed(cache, cfg.Redis.SnapshotTTL, log)
		b.Store = NewMirror(b.Store, b.Feed, nil, log)
		b.Subscriber = b.Feed
	}

	log.Info("document backend ready",
		logger.String("backend", b.Name),
		logger.Bool("snapshot_feed", b.Feed != nil),
	)
	return b, nil
}

// Close releases connections in reverse order of opening.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
