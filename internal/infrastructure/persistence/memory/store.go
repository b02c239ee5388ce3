// Package memory implements an in-process document store. It backs tests and
// the demo CLI, and can be told to fail writes to exercise retry paths.
package memory

import (
	"context"
	"sync"

	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

// Store keeps documents per family and notifies subscribers after each write.
type Store struct {
	mu    sync.Mutex
	docs  map[string]map[string]document.Document // familyID -> ref -> doc
	subs  map[string][]*subscription
	clock timeutil.Clock

	failErr   error
	failTimes int
	writes    int
}

type subscription struct {
	ch     chan []document.Document
	closed bool
}

// New creates an empty store.
func New(clock timeutil.Clock) *Store {
	if clock == nil {
		clock = timeutil.SystemClock()
	}
	return &Store{
		docs:  make(map[string]map[string]document.Document),
		subs:  make(map[string][]*subscription),
		clock: clock,
	}
}

// FailWith makes the next n writes return err. A negative n fails every write
// until FailWith(nil, 0) is called.
func (s *Store) FailWith(err error, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr, s.failTimes = err, n
}

// Writes counts write attempts, failed ones included.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *Store) injected() error {
	s.writes++
	if s.failErr == nil || s.failTimes == 0 {
		return nil
	}
	if s.failTimes > 0 {
		s.failTimes--
	}
	return s.failErr
}

func (s *Store) Save(ctx context.Context, doc document.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.injected(); err != nil {
		return err
	}

	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = s.clock()
	}
	doc.Body = append([]byte(nil), doc.Body...)
	s.family(doc.FamilyID)[doc.Ref.String()] = doc
	s.notify(doc.FamilyID)
	return nil
}

func (s *Store) Update(ctx context.Context, ref document.Ref, fields map[string]any) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.injected(); err != nil {
		return err
	}

	fam := s.family(ref.FamilyID)
	doc, ok := fam[ref.String()]
	if !ok {
		return shared.WrapError("memory", "Update", shared.ErrNotFound, ref.String(), shared.ErrDocumentNotFound)
	}
	body, err := document.MergePatch(doc.Body, fields)
	if err != nil {
		return err
	}
	doc.Body = body
	doc.UpdatedAt = s.clock()
	fam[ref.String()] = doc
	s.notify(ref.FamilyID)
	return nil
}

// Delete removes a document. Deleting a missing document succeeds.
func (s *Store) Delete(ctx context.Context, ref document.Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.injected(); err != nil {
		return err
	}

	fam := s.family(ref.FamilyID)
	if _, ok := fam[ref.String()]; !ok {
		return nil
	}
	delete(fam, ref.String())
	s.notify(ref.FamilyID)
	return nil
}

// LoadFamily returns the family's documents in collection order, then by id.
func (s *Store) LoadFamily(ctx context.Context, familyID string) ([]document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(familyID), nil
}

// Get returns one document.
func (s *Store) Get(ref document.Ref) (document.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[ref.FamilyID][ref.String()]
	return doc, ok
}

// Len counts the family's documents.
func (s *Store) Len(familyID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[familyID])
}

// Subscribe delivers the current snapshot immediately and a fresh one after
// every write to the family. A slow reader only sees the latest snapshot.
func (s *Store) Subscribe(ctx context.Context, familyID string) (<-chan []document.Document, error) {
	if familyID == "" {
		return nil, shared.ErrMissingFamilyID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &subscription{ch: make(chan []document.Document, 1)}
	s.mu.Lock()
	s.subs[familyID] = append(s.subs[familyID], sub)
	sub.ch <- s.snapshot(familyID)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.subs[familyID]
		for i, other := range subs {
			if other == sub {
				s.subs[familyID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		sub.closed = true
		close(sub.ch)
	}()
	return sub.ch, nil
}

// family returns the family's map, creating it. Caller holds mu.
func (s *Store) family(familyID string) map[string]document.Document {
	fam, ok := s.docs[familyID]
	if !ok {
		fam = make(map[string]document.Document)
		s.docs[familyID] = fam
	}
	return fam
}

// notify replaces any undelivered snapshot with the current one. Caller holds mu.
func (s *Store) notify(familyID string) {
	subs := s.subs[familyID]
	if len(subs) == 0 {
		return
	}
	snap := s.snapshot(familyID)
	for _, sub := range subs {
		if sub.closed {
			continue
		}
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- snap
	}
}

// snapshot copies the family's documents. Caller holds mu.
func (s *Store) snapshot(familyID string) []document.Document {
	fam := s.docs[familyID]
	out := make([]document.Document, 0, len(fam))
	for _, d := range fam {
		d.Body = append([]byte(nil), d.Body...)
		out = append(out, d)
	}
	document.Sort(out)
	return out
}
