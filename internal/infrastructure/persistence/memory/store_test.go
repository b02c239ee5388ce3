package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

var now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func doc(coll document.Collection, id, body string) document.Document {
	return document.Document{
		Ref:  document.Ref{Collection: coll, ID: id, FamilyID: "fam-1"},
		Body: json.RawMessage(body),
	}
}

func TestStore_SaveUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := New(timeutil.FixedClock(now))

	require.NoError(t, s.Save(ctx, doc(document.Children, "c1", `{"id":"c1","totalPoints":0}`)))
	require.NoError(t, s.Update(ctx, document.Ref{Collection: document.Children, ID: "c1", FamilyID: "fam-1"},
		map[string]any{"totalPoints": 25, "dropoffAssignedTo": nil}))

	got, ok := s.Get(document.Ref{Collection: document.Children, ID: "c1", FamilyID: "fam-1"})
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"c1","totalPoints":25,"dropoffAssignedTo":null}`, string(got.Body))
	assert.Equal(t, now, got.UpdatedAt)

	require.NoError(t, s.Delete(ctx, got.Ref))
	require.NoError(t, s.Delete(ctx, got.Ref))
	assert.Zero(t, s.Len("fam-1"))
}

func TestStore_UpdateMissing(t *testing.T) {
	s := New(nil)
	err := s.Update(context.Background(), document.Ref{Collection: document.Goals, ID: "g1", FamilyID: "fam-1"}, map[string]any{"x": 1})
	assert.True(t, shared.IsNotFound(err))
}

func TestStore_RejectsInvalidRef(t *testing.T) {
	s := New(nil)
	err := s.Save(context.Background(), document.Document{Ref: document.Ref{Collection: document.Meals, ID: "m1"}})
	assert.ErrorIs(t, err, shared.ErrMissingFamilyID)
	assert.Zero(t, s.Writes())
}

func TestStore_FailWith(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	boom := errors.New("boom")
	s.FailWith(boom, 2)

	assert.ErrorIs(t, s.Save(ctx, doc(document.Meals, "m1", `{}`)), boom)
	assert.ErrorIs(t, s.Save(ctx, doc(document.Meals, "m1", `{}`)), boom)
	assert.NoError(t, s.Save(ctx, doc(document.Meals, "m1", `{}`)))
	assert.Equal(t, 3, s.Writes())
	assert.Equal(t, 1, s.Len("fam-1"))
}

func TestStore_LoadFamilyOrder(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	require.NoError(t, s.Save(ctx, doc(document.Goals, "g1", `{}`)))
	require.NoError(t, s.Save(ctx, doc(document.Children, "c2", `{}`)))
	require.NoError(t, s.Save(ctx, doc(document.Children, "c1", `{}`)))
	require.NoError(t, s.Save(ctx, doc(document.Families, "fam-1", `{}`)))

	docs, err := s.LoadFamily(ctx, "fam-1")
	require.NoError(t, err)
	var ids []string
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"fam-1", "c1", "c2", "g1"}, ids)

	other, err := s.LoadFamily(ctx, "fam-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_Subscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(nil)
	require.NoError(t, s.Save(ctx, doc(document.Families, "fam-1", `{}`)))

	ch, err := s.Subscribe(ctx, "fam-1")
	require.NoError(t, err)
	assert.Len(t, <-ch, 1)

	require.NoError(t, s.Save(ctx, doc(document.Children, "c1", `{}`)))
	require.NoError(t, s.Save(ctx, doc(document.Children, "c2", `{}`)))
	assert.Len(t, <-ch, 3, "only the latest snapshot is kept")

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 10*time.Millisecond)
}
