package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/logger"
)

var _ document.Subscriber = (*SnapshotFeed)(nil)

// SnapshotFeed publishes whole family snapshots and lets other processes
// follow them. The latest snapshot is also cached so late subscribers start
// from current state.
type SnapshotFeed struct {
	cache *Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewSnapshotFeed creates a feed whose cached snapshots expire after ttl.
func NewSnapshotFeed(cache *Cache, ttl time.Duration, log *logger.Logger) *SnapshotFeed {
	if log == nil {
		log = logger.Nop()
	}
	return &SnapshotFeed{cache: cache, ttl: ttl, log: log.Named("redis")}
}

// Announce caches docs as the family's latest snapshot and publishes it.
func (f *SnapshotFeed) Announce(ctx context.Context, familyID string, docs []document.Document) error {
	if familyID == "" {
		return shared.ErrMissingFamilyID
	}
	return f.cache.SetAndPublish(ctx, SnapshotKey(familyID), FamilyChannel(familyID), docs, f.ttl)
}

// Latest returns the cached snapshot, or ErrCacheMiss.
func (f *SnapshotFeed) Latest(ctx context.Context, familyID string) ([]document.Document, error) {
	var docs []document.Document
	if err := f.cache.Get(ctx, SnapshotKey(familyID), &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Forget drops the cached snapshot.
func (f *SnapshotFeed) Forget(ctx context.Context, familyID string) error {
	return f.cache.Delete(ctx, SnapshotKey(familyID))
}

// Subscribe delivers the cached snapshot, when there is one, and then every
// published snapshot. A slow reader only sees the latest one.
func (f *SnapshotFeed) Subscribe(ctx context.Context, familyID string) (<-chan []document.Document, error) {
	if familyID == "" {
		return nil, shared.ErrMissingFamilyID
	}
	ps := f.cache.Subscribe(ctx, FamilyChannel(familyID))
	// wait for the subscription so nothing published after Latest is lost
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, shared.WrapError("redis", "Subscribe", shared.ErrServiceUnavailable, familyID, err)
	}

	out := make(chan []document.Document, 1)
	log := f.log.With(logger.FamilyID(familyID))

	latest, err := f.Latest(ctx, familyID)
	switch {
	case err == nil:
		out <- latest
	case !errors.Is(err, ErrCacheMiss):
		log.Warn("read cached snapshot", logger.Err(err))
	}

	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var docs []document.Document
				if err := json.Unmarshal([]byte(msg.Payload), &docs); err != nil {
					log.Warn("bad snapshot payload", logger.Err(err))
					continue
				}
				select {
				case <-out:
				default:
				}
				out <- docs
			}
		}
	}()
	return out, nil
}
