// Package persistence composes the document backends.
package persistence

import (
	"context"

	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/pkg/circuitbreaker"
	"github.com/champtrack/champtrack-hub/pkg/logger"
)

// Announcer broadcasts a family's full snapshot.
type Announcer interface {
	Announce(ctx context.Context, familyID string, docs []document.Document) error
}

// Mirror writes to a primary store and then announces the family's new
// snapshot. The primary write decides the result; a failed announcement is
// only logged, the next write announces again. While the breaker is open
// announcements are skipped without touching the feed.
type Mirror struct {
	primary document.Store
	feed    Announcer
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

var _ document.Store = (*Mirror)(nil)

// NewMirror wraps primary. A nil breaker gets the default feed breaker.
func NewMirror(primary document.Store, feed Announcer, breaker *circuitbreaker.CircuitBreaker, log *logger.Logger) *Mirror {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("mirror")
	if breaker == nil {
		breaker = circuitbreaker.FeedBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		})
	}
	return &Mirror{primary: primary, feed: feed, breaker: breaker, log: log}
}

func (m *Mirror) Save(ctx context.Context, doc document.Document) error {
	if err := m.primary.Save(ctx, doc); err != nil {
		return err
	}
	m.announce(ctx, doc.FamilyID)
	return nil
}

func (m *Mirror) Update(ctx context.Context, ref document.Ref, fields map[string]any) error {
	if err := m.primary.Update(ctx, ref, fields); err != nil {
		return err
	}
	m.announce(ctx, ref.FamilyID)
	return nil
}

func (m *Mirror) Delete(ctx context.Context, ref document.Ref) error {
	if err := m.primary.Delete(ctx, ref); err != nil {
		return err
	}
	m.announce(ctx, ref.FamilyID)
	return nil
}

func (m *Mirror) LoadFamily(ctx context.Context, familyID string) ([]document.Document, error) {
	return m.primary.LoadFamily(ctx, familyID)
}

func (m *Mirror) announce(ctx context.Context, familyID string) {
	err := m.breaker.Execute(ctx, func(ctx context.Context) error {
		docs, err := m.primary.LoadFamily(ctx, familyID)
		if err != nil {
			return err
		}
		return m.feed.Announce(ctx, familyID, docs)
	})
	switch {
	case circuitbreaker.IsRejection(err):
		m.log.Debug("snapshot announcement skipped", logger.FamilyID(familyID))
	case err != nil:
		m.log.Warn("snapshot not announced", logger.FamilyID(familyID), logger.Err(err))
	}
}
