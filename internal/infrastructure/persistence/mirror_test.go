package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/infrastructure/persistence/memory"
	"github.com/champtrack/champtrack-hub/pkg/circuitbreaker"
)

type feed struct {
	sizes []int
	calls int
	err   error
}

func (f *feed) Announce(_ context.Context, _ string, docs []document.Document) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.sizes = append(f.sizes, len(docs))
	return nil
}

func TestMirror_AnnouncesAfterEachWrite(t *testing.T) {
	ctx := context.Background()
	mem := memory.New(nil)
	f := &feed{}
	m := NewMirror(mem, f, nil, nil)

	ref := document.Ref{Collection: document.Meals, ID: "m1", FamilyID: "fam-1"}
	require.NoError(t, m.Save(ctx, document.Document{Ref: ref, Body: json.RawMessage(`{"id":"m1"}`)}))
	require.NoError(t, m.Update(ctx, ref, map[string]any{"notes": "ok"}))
	require.NoError(t, m.Delete(ctx, ref))

	assert.Equal(t, []int{1, 1, 0}, f.sizes)
}

func TestMirror_PrimaryErrorSkipsAnnouncement(t *testing.T) {
	ctx := context.Background()
	mem := memory.New(nil)
	f := &feed{}
	m := NewMirror(mem, f, nil, nil)

	err := m.Update(ctx, document.Ref{Collection: document.Meals, ID: "missing", FamilyID: "fam-1"}, map[string]any{"x": 1})
	assert.Error(t, err)
	assert.Empty(t, f.sizes)
}

func TestMirror_FeedErrorIsNotFatal(t *testing.T) {
	ctx := context.Background()
	mem := memory.New(nil)
	m := NewMirror(mem, &feed{err: errors.New("redis down")}, nil, nil)

	ref := document.Ref{Collection: document.Meals, ID: "m1", FamilyID: "fam-1"}
	require.NoError(t, m.Save(ctx, document.Document{Ref: ref, Body: json.RawMessage(`{}`)}))

	docs, err := m.LoadFamily(ctx, "fam-1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestMirror_BreakerSkipsFailingFeed(t *testing.T) {
	ctx := context.Background()
	mem := memory.New(nil)
	f := &feed{err: errors.New("redis down")}
	m := NewMirror(mem, f, circuitbreaker.New("feed", circuitbreaker.WithFailureThreshold(2), circuitbreaker.WithTimeout(time.Hour)), nil)

	for i := 0; i < 5; i++ {
		ref := document.Ref{Collection: document.Meals, ID: "m" + strconv.Itoa(i), FamilyID: "fam-1"}
		require.NoError(t, m.Save(ctx, document.Document{Ref: ref, Body: json.RawMessage(`{}`)}))
	}
	assert.Equal(t, 2, f.calls)
}
