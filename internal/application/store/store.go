// Package store holds the in-memory family snapshot and the command and
// query surface the UI calls. Every command runs under one mutex together
// with its derived effects: points, levels, achievements and nutrition
// targets. Persistence is handed to a Persister and never waited on.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/champtrack/champtrack-hub/config"
	"github.com/champtrack/champtrack-hub/internal/domain/child"
	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/domain/family"
	"github.com/champtrack/champtrack-hub/internal/domain/gamification"
	"github.com/champtrack/champtrack-hub/internal/domain/goal"
	"github.com/champtrack/champtrack-hub/internal/domain/nutrition"
	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/logger"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PERSISTENCE HAND-OFF
// ══════════════════════════════════════════════════════════════════════════════

// Persister accepts document writes without blocking. The outbox is the
// production implementation.
type Persister interface {
	Save(doc document.Document) error
	Update(ref document.Ref, fields map[string]any) error
	Delete(ref document.Ref) error
	LastError() string
}

type nopPersister struct{}

func (nopPersister) Save(document.Document) error              { return nil }
func (nopPersister) Update(document.Ref, map[string]any) error { return nil }
func (nopPersister) Delete(document.Ref) error                 { return nil }
func (nopPersister) LastError() string                         { return "" }

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store is the single source of truth for one family's records.
type Store struct {
	mu sync.Mutex

	family       *family.Family
	children     []child.Child
	sports       []schedule.Sport
	classes      []schedule.Class
	meals        []nutrition.Meal
	goals        []goal.Goal
	achievements []gamification.Achievement
	targets      map[string]nutrition.Target

	// events raised by the running command, published after unlock
	pending []shared.Event

	clock       timeutil.Clock
	loc         *time.Location
	log         *logger.Logger
	publisher   shared.EventPublisher
	persister   Persister
	curve       gamification.LevelCurve
	bonusPolicy config.BonusPolicy
	bonusPoints int
	flags       *config.FeatureFlags
	newID       func() string
}

// Option configures a Store.
type Option func(*Store)

func WithClock(c timeutil.Clock) Option { return func(s *Store) { s.clock = c } }

// WithLocation sets the zone used for calendar-day and week boundaries.
func WithLocation(loc *time.Location) Option { return func(s *Store) { s.loc = loc } }

func WithLogger(l *logger.Logger) Option { return func(s *Store) { s.log = l } }

func WithPublisher(p shared.EventPublisher) Option { return func(s *Store) { s.publisher = p } }

func WithPersister(p Persister) Option { return func(s *Store) { s.persister = p } }

func WithLevelCurve(c gamification.LevelCurve) Option { return func(s *Store) { s.curve = c } }

// WithNutritionBonus sets how often the daily nutrition bonus is paid and how much.
func WithNutritionBonus(policy config.BonusPolicy, points int) Option {
	return func(s *Store) {
		s.bonusPolicy = policy
		s.bonusPoints = points
	}
}

func WithFeatureFlags(ff *config.FeatureFlags) Option { return func(s *Store) { s.flags = ff } }

// WithIDGenerator replaces uuid generation, mostly for tests.
func WithIDGenerator(fn func() string) Option { return func(s *Store) { s.newID = fn } }

// ConfigOptions maps application config onto store options.
func ConfigOptions(cfg *config.Config) []Option {
	var curveOpts []gamification.CurveOption
	if cfg.Gamification.ExtendedLevels {
		curveOpts = append(curveOpts, gamification.WithExtrapolation())
	}
	return []Option{
		WithLocation(cfg.App.Location),
		WithLevelCurve(gamification.NewLevelCurve(curveOpts...)),
		WithNutritionBonus(cfg.Gamification.NutritionBonusPolicy, cfg.Gamification.NutritionBonusPoints),
		WithFeatureFlags(cfg.Features),
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		targets:     make(map[string]nutrition.Target),
		clock:       timeutil.SystemClock(),
		loc:         time.UTC,
		log:         logger.Nop(),
		persister:   nopPersister{},
		curve:       gamification.NewLevelCurve(),
		bonusPolicy: config.BonusOncePerDay,
		bonusPoints: 15,
		flags:       config.NewFeatureFlags(),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	s.log = s.log.Named("store")
	return s
}

// lock and unlock bracket every command. Events raised while locked are
// published after the lock is released so handlers may call back in.
func (s *Store) lock() { s.mu.Lock() }

func (s *Store) unlock() {
	events := s.pending
	s.pending = nil
	s.mu.Unlock()

	if s.publisher == nil {
		return
	}
	for _, e := range events {
		if err := s.publisher.Publish(e); err != nil {
			s.log.Warn("publish event failed", logger.String("event_type", string(e.EventType())), logger.Err(err))
		}
	}
}

func (s *Store) raise(e shared.Event) {
	s.pending = append(s.pending, e)
}

func (s *Store) now() time.Time { return s.clock() }

func (s *Store) enabled(feature string) bool {
	if s.flags == nil {
		return true
	}
	ctx := &config.FeatureContext{}
	if s.family != nil {
		ctx.FamilyID = s.family.ID
	}
	return s.flags.IsEnabled(feature, ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// PERSISTENCE HELPERS (called with the lock held)
// ══════════════════════════════════════════════════════════════════════════════

// familyID resolves the family a child's documents belong to.
func (s *Store) familyID(childID string) string {
	if i := s.childIndex(childID); i >= 0 && s.children[i].FamilyID != "" {
		return s.children[i].FamilyID
	}
	if s.family != nil {
		return s.family.ID
	}
	return ""
}

func (s *Store) save(familyID string, entity any) {
	doc, err := document.Encode(familyID, entity, s.now())
	if err != nil {
		s.log.Warn("skipping save", logger.FamilyID(familyID), logger.Err(err))
		return
	}
	if err := s.persister.Save(doc); err != nil {
		s.log.Error("enqueue save failed", logger.Collection(string(doc.Collection)), logger.EntityID(doc.ID), logger.Err(err))
	}
}

func (s *Store) patch(familyID string, entity any, fields map[string]any) {
	ref, err := document.RefFor(familyID, entity)
	if err != nil {
		s.log.Warn("skipping update", logger.FamilyID(familyID), logger.Err(err))
		return
	}
	if err := s.persister.Update(ref, fields); err != nil {
		s.log.Error("enqueue update failed", logger.Collection(string(ref.Collection)), logger.EntityID(ref.ID), logger.Err(err))
	}
}

func (s *Store) remove(familyID string, entity any) {
	ref, err := document.RefFor(familyID, entity)
	if err != nil {
		s.log.Warn("skipping delete", logger.FamilyID(familyID), logger.Err(err))
		return
	}
	if err := s.persister.Delete(ref); err != nil {
		s.log.Error("enqueue delete failed", logger.Collection(string(ref.Collection)), logger.EntityID(ref.ID), logger.Err(err))
	}
}

// LastPersistenceError is the message of the most recent write that failed
// for good, or "".
func (s *Store) LastPersistenceError() string {
	return s.persister.LastError()
}

// ══════════════════════════════════════════════════════════════════════════════
// LOOKUPS (called with the lock held)
// ══════════════════════════════════════════════════════════════════════════════

func indexOf[T any](items []T, match func(T) bool) int {
	for i, it := range items {
		if match(it) {
			return i
		}
	}
	return -1
}

func filter[T any](items []T, keep func(T) bool, clone func(T) T) []T {
	out := make([]T, 0)
	for _, it := range items {
		if keep(it) {
			out = append(out, clone(it))
		}
	}
	return out
}

func (s *Store) childIndex(id string) int {
	return indexOf(s.children, func(c child.Child) bool { return c.ID == id })
}

func (s *Store) sportIndex(id string) int {
	return indexOf(s.sports, func(sp schedule.Sport) bool { return sp.ID == id })
}

func (s *Store) classIndex(id string) int {
	return indexOf(s.classes, func(c schedule.Class) bool { return c.ID == id })
}

func (s *Store) mealIndex(id string) int {
	return indexOf(s.meals, func(m nutrition.Meal) bool { return m.ID == id })
}

func (s *Store) goalIndex(id string) int {
	return indexOf(s.goals, func(g goal.Goal) bool { return g.ID == id })
}

func (s *Store) achievementIndex(id string) int {
	return indexOf(s.achievements, func(a gamification.Achievement) bool { return a.ID == id })
}

func (s *Store) ensureID(id string) string {
	if id != "" {
		return id
	}
	return s.newID()
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
