package presenter

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtrack/champtrack-hub/internal/application/store"
	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

var now = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func demoStore(t *testing.T) (*store.Store, store.Demo) {
	t.Helper()
	st := store.New(store.WithClock(timeutil.FixedClock(now)), store.WithLocation(time.UTC))
	return st, st.SeedDemo()
}

func TestBuildFamilyView_Demo(t *testing.T) {
	st, demo := demoStore(t)

	view, ok := BuildFamilyView(st, now, time.UTC, 4, 10)
	require.True(t, ok)

	assert.Equal(t, "Smith Family", view.Family.Name)
	require.Len(t, view.Children, 2)
	require.Len(t, view.Upcoming, 3)
	assert.Equal(t, "Soccer", view.Upcoming[0].Sport)
	assert.Equal(t, "Emma", view.Upcoming[0].ChildName)

	var unassigned []string
	for _, d := range view.Conflicts {
		for _, c := range d.Conflicts {
			if c.Type == schedule.UnassignedTransportation {
				unassigned = append(unassigned, d.Day)
			}
		}
	}
	assert.Equal(t, []string{"2026-10-17"}, unassigned)

	emma, _ := st.Level(demo.EmmaID)
	for _, c := range view.Children {
		if c.Child.ID == demo.EmmaID {
			assert.Equal(t, emma, c.Level)
			assert.NotNil(t, c.Target)
			assert.InDelta(t, 355, c.Today.Calories, 0.001)
		}
	}
}

func TestBuildFamilyView_Empty(t *testing.T) {
	_, ok := BuildFamilyView(store.New(), now, time.UTC, 1, 5)
	assert.False(t, ok)
}

func TestRenderFamily(t *testing.T) {
	st, demo := demoStore(t)
	view, _ := BuildFamilyView(st, now, time.UTC, 4, 10)

	var buf bytes.Buffer
	require.NoError(t, New(PlainStyles(), time.UTC).RenderFamily(&buf, view))
	out := buf.String()

	info, _ := st.Level(demo.EmmaID)
	assert.Contains(t, out, "Smith Family")
	assert.Contains(t, out, "Emma Smith")
	assert.Contains(t, out, fmt.Sprintf("Level %d %s, %d pts", info.Level, info.Title, info.Points))
	assert.Contains(t, out, "Score 5 Goals")
	assert.Contains(t, out, "First Goal")
	assert.Contains(t, out, "[unassigned]")
	assert.Contains(t, out, "2026-10-17  unassigned_transportation: Transportation not assigned")
}

func TestRenderCounts(t *testing.T) {
	counts := map[document.Collection]int{document.Families: 1, document.Children: 2, "legacy": 4}

	var buf bytes.Buffer
	require.NoError(t, New(PlainStyles(), nil).RenderCounts(&buf, "fam-1", counts))
	out := buf.String()

	assert.Contains(t, out, "Family fam-1")
	assert.Contains(t, out, "children          2")
	assert.Contains(t, out, "legacy            4 (unknown)")
	assert.Contains(t, out, "total 3")
}

func TestCountSnapshot(t *testing.T) {
	st, _ := demoStore(t)
	counts := CountSnapshot(st.Snapshot())
	assert.Equal(t, 1, counts[document.Families])
	assert.Equal(t, 2, counts[document.Children])
	assert.Equal(t, 3, counts[document.Sports])
	assert.Equal(t, 3, counts[document.Classes])
	assert.Equal(t, 1, counts[document.Meals])
}
