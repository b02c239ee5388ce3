// Package syncer follows a family's documents in a persistence backend and
// replaces the local store's records whenever a new snapshot arrives.
package syncer

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/logger"
)

// Applier receives decoded snapshots. *store.Store implements it.
type Applier interface {
	ApplySnapshot(snap document.Snapshot)
}

// Syncer applies remote family snapshots.
type Syncer struct {
	sub     document.Subscriber
	target  Applier
	log     *logger.Logger
	applied atomic.Int64
	skipped atomic.Int64
}

// New creates a syncer. A nil logger is replaced with a no-op one.
func New(sub document.Subscriber, target Applier, log *logger.Logger) *Syncer {
	if log == nil {
		log = logger.Nop()
	}
	return &Syncer{sub: sub, target: target, log: log.Named("syncer")}
}

// Run subscribes to the family and applies every snapshot until ctx is done
// or the subscription ends.
func (s *Syncer) Run(ctx context.Context, familyID string) error {
	if familyID == "" {
		return shared.ErrMissingFamilyID
	}
	ch, err := s.sub.Subscribe(ctx, familyID)
	if err != nil {
		return shared.WrapError("sync", "Subscribe", shared.ErrExternalService, familyID, err)
	}
	log := s.log.With(logger.FamilyID(familyID))
	log.Info("following family snapshots")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case docs, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return shared.ErrSubscriptionClosed
			}
			if err := s.Apply(familyID, docs); err != nil {
				log.Warn("snapshot skipped", logger.Int("documents", len(docs)), logger.Err(err))
			}
		}
	}
}

// Apply decodes one snapshot and hands it to the store. A snapshot without the
// family document is rejected so a half-written family never wipes local state.
func (s *Syncer) Apply(familyID string, docs []document.Document) error {
	snap, err := document.DecodeSnapshot(familyID, docs)
	if err != nil {
		s.skipped.Add(1)
		return err
	}
	if snap.Family == nil {
		s.skipped.Add(1)
		return shared.ErrSnapshotFamilyMissing
	}
	s.target.ApplySnapshot(snap)
	s.applied.Add(1)
	return nil
}

// Load reads the family once and applies it.
func Load(ctx context.Context, loader document.Loader, target Applier, familyID string) (document.Snapshot, error) {
	docs, err := loader.LoadFamily(ctx, familyID)
	if err != nil {
		return document.Snapshot{}, err
	}
	snap, err := document.DecodeSnapshot(familyID, docs)
	if err != nil {
		return document.Snapshot{}, err
	}
	if snap.Family == nil {
		return document.Snapshot{}, shared.ErrSnapshotFamilyMissing
	}
	target.ApplySnapshot(snap)
	return snap, nil
}

// Stats reports how many snapshots were applied and skipped.
func (s *Syncer) Stats() (applied, skipped int64) {
	return s.applied.Load(), s.skipped.Load()
}

// IsStopped reports whether err is a normal end of Run.
func IsStopped(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
