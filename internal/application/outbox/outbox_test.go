package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtrack/champtrack-hub/config"
	"github.com/champtrack/champtrack-hub/internal/application/store"
	"github.com/champtrack/champtrack-hub/internal/domain/child"
	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/internal/infrastructure/persistence/memory"
	"github.com/champtrack/champtrack-hub/pkg/retry"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

var (
	now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	_ store.Persister = (*Outbox)(nil)
)

type events struct {
	mu  sync.Mutex
	all []shared.Event
}

func (e *events) Publish(ev shared.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = append(e.all, ev)
	return nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func newOutbox(t *testing.T, attempts int, opts ...Option) (*Outbox, *memory.Store, *events) {
	t.Helper()
	mem := memory.New(timeutil.FixedClock(now))
	ev := &events{}
	cfg := config.OutboxConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	base := []Option{
		WithRetryConfig(cfg, retry.WithSleep(noSleep)),
		WithClock(timeutil.FixedClock(now)),
		WithPublisher(ev),
	}
	return New(mem, append(base, opts...)...), mem, ev
}

func childDoc(id string) document.Document {
	return document.Document{
		Ref:  document.Ref{Collection: document.Children, ID: id, FamilyID: "fam-1"},
		Body: json.RawMessage(`{"id":"` + id + `","totalPoints":0}`),
	}
}

func TestFlush_DeliversInOrder(t *testing.T) {
	ob, mem, _ := newOutbox(t, 3)

	require.NoError(t, ob.Save(childDoc("c1")))
	require.NoError(t, ob.Update(childDoc("c1").Ref, map[string]any{"totalPoints": 40}))
	require.NoError(t, ob.Save(childDoc("c2")))
	require.NoError(t, ob.Delete(childDoc("c2").Ref))
	assert.Equal(t, 4, ob.Pending())

	require.NoError(t, ob.Flush(context.Background()))
	assert.Zero(t, ob.Pending())
	assert.Empty(t, ob.LastError())

	got, ok := mem.Get(childDoc("c1").Ref)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"c1","totalPoints":40}`, string(got.Body))
	assert.Equal(t, 1, mem.Len("fam-1"))
}

func TestFlush_RetriesTransientFailures(t *testing.T) {
	ob, mem, ev := newOutbox(t, 3)
	mem.FailWith(shared.ErrPersistenceDown, 2)

	require.NoError(t, ob.Save(childDoc("c1")))
	require.NoError(t, ob.Flush(context.Background()))

	assert.Equal(t, 3, mem.Writes())
	assert.Equal(t, 2, ob.Retries())
	assert.Equal(t, 1, mem.Len("fam-1"))
	assert.Empty(t, ob.DeadLetters())
	assert.Empty(t, ev.all)
}

func TestFlush_DeadLetterAfterAttempts(t *testing.T) {
	ob, mem, ev := newOutbox(t, 3)
	mem.FailWith(retry.Retryable(errors.New("connection reset")), -1)

	require.NoError(t, ob.Save(childDoc("c1")))
	require.NoError(t, ob.Save(childDoc("c2")))
	require.NoError(t, ob.Flush(context.Background()))

	assert.Equal(t, 6, mem.Writes())
	dead := ob.DeadLetters()
	require.Len(t, dead, 2)
	assert.Equal(t, "c1", dead[0].Ref.ID)
	assert.Equal(t, now, dead[0].FailedAt)
	assert.Contains(t, ob.LastError(), "connection reset")

	require.Len(t, ev.all, 2)
	failed, ok := ev.all[0].(shared.PersistenceFailedEvent)
	require.True(t, ok)
	assert.Equal(t, shared.EventPersistenceFailed, failed.EventType())
	assert.Equal(t, "children", failed.Collection)
	assert.Equal(t, "save", failed.Operation)
	assert.Equal(t, 3, failed.Attempts)

	mem.FailWith(nil, 0)
	assert.Equal(t, 2, ob.Requeue())
	assert.Empty(t, ob.LastError())
	require.NoError(t, ob.Flush(context.Background()))
	assert.Equal(t, 2, mem.Len("fam-1"))
	assert.Empty(t, ob.DeadLetters())
}

func TestNewRetrier_JitterSpreadsBackoff(t *testing.T) {
	cfg := config.OutboxConfig{MaxAttempts: 4, InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, Jitter: 0.2}
	var delays []time.Duration
	r := NewRetrier(cfg,
		retry.WithSleep(noSleep),
		retry.WithOnRetry(func(_ int, _ error, d time.Duration) { delays = append(delays, d) }),
	)

	err := r.Do(context.Background(), func(context.Context) error {
		return shared.ErrPersistenceDown
	})
	require.Error(t, err)

	require.Len(t, delays, 3)
	for i, base := range []time.Duration{100, 200, 400} {
		base *= time.Millisecond
		assert.GreaterOrEqual(t, delays[i], base*8/10, "attempt %d", i+1)
		assert.LessOrEqual(t, delays[i], base*12/10, "attempt %d", i+1)
	}
}

func TestFlush_PermanentErrorNotRetried(t *testing.T) {
	ob, mem, _ := newOutbox(t, 5)

	// missing document: not found is not retryable
	require.NoError(t, ob.Update(childDoc("ghost").Ref, map[string]any{"totalPoints": 1}))
	require.NoError(t, ob.Flush(context.Background()))

	assert.Equal(t, 1, mem.Writes())
	assert.Zero(t, ob.Retries())
	require.Len(t, ob.DeadLetters(), 1)
	assert.NotEmpty(t, ob.LastError())
}

func TestFlush_CancelledKeepsOperation(t *testing.T) {
	ob, mem, _ := newOutbox(t, 3)
	require.NoError(t, ob.Save(childDoc("c1")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ob.Flush(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, ob.Pending())
	assert.Empty(t, ob.DeadLetters())
	assert.Zero(t, mem.Writes())
}

func TestClose_RejectsWrites(t *testing.T) {
	ob, _, _ := newOutbox(t, 1)
	require.NoError(t, ob.Save(childDoc("c1")))
	ob.Close()

	assert.ErrorIs(t, ob.Save(childDoc("c2")), shared.ErrOutboxClosed)
	assert.ErrorIs(t, ob.Delete(childDoc("c1").Ref), shared.ErrOutboxClosed)
	assert.Equal(t, 1, ob.Pending())
}

func TestRun_DeliversInBackground(t *testing.T) {
	ob, mem, _ := newOutbox(t, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- ob.Run(ctx) }()

	require.NoError(t, ob.Save(childDoc("c1")))
	require.Eventually(t, func() bool { return mem.Len("fam-1") == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestStoreWritesThroughOutbox(t *testing.T) {
	ob, mem, _ := newOutbox(t, 1)
	n := 0
	s := store.New(
		store.WithPersister(ob),
		store.WithClock(timeutil.FixedClock(now)),
		store.WithIDGenerator(func() string { n++; return "id-" + strconv.Itoa(n) }),
	)

	f := s.CreateFamily("Smith Family", "user1")
	emma := s.AddChild(child.Child{
		FirstName:   "Emma",
		DateOfBirth: now.AddDate(-10, 0, 0),
		Gender:      child.GenderFemale,
		WeightKg:    32,
		HeightCm:    140,
	})
	s.AwardPoints(emma.ID, 120)
	require.NoError(t, ob.Flush(context.Background()))
	assert.Empty(t, ob.LastError())
	assert.Empty(t, s.LastPersistenceError())

	docs, err := mem.LoadFamily(context.Background(), f.ID)
	require.NoError(t, err)
	snap, err := document.DecodeSnapshot(f.ID, docs)
	require.NoError(t, err)

	want := s.Snapshot()
	require.NotNil(t, snap.Family)
	assert.Equal(t, []string{emma.ID}, snap.Family.Children)
	require.Len(t, snap.Children, 1)
	assert.Equal(t, want.Children[0].TotalPoints, snap.Children[0].TotalPoints)
	assert.Equal(t, want.Children[0].CurrentLevel, snap.Children[0].CurrentLevel)
	assert.Len(t, snap.Achievements, len(want.Achievements))
	assert.Len(t, snap.Targets, 1)
}
