package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

type fakeQueue struct{ dead, pending int }

func (q *fakeQueue) Requeue() int {
	n := q.dead
	q.pending += n
	q.dead = 0
	return n
}
func (q *fakeQueue) Pending() int { return q.pending }

func TestRequeueDeadLettersJob(t *testing.T) {
	q := &fakeQueue{dead: 3}
	job := NewRequeueDeadLettersJob(q, nil)
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 3, q.pending)
	assert.Equal(t, 0, q.dead)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, job.Run(ctx), context.Canceled)
}

type fakeSchedule struct {
	days []time.Time
}

func (f *fakeSchedule) GetClassesForDate(date time.Time) []schedule.Class {
	f.days = append(f.days, date)
	return []schedule.Class{{ID: "k"}}
}

func (f *fakeSchedule) DetectConflicts(date time.Time) []schedule.Conflict {
	if date.Day() == 15 {
		return []schedule.Conflict{
			{Type: schedule.ChildDoubleBooked, ClassIDs: []string{"a", "b"}},
			{Type: schedule.UnassignedTransportation, ClassIDs: []string{"b"}},
		}
	}
	return nil
}

func TestConflictDigestJob(t *testing.T) {
	src := &fakeSchedule{}
	now := time.Date(2026, 10, 14, 20, 45, 0, 0, time.UTC)
	job := NewConflictDigestJob(src, timeutil.FixedClock(now), time.UTC, 3, nil)

	_, ok := job.LastStats()
	assert.False(t, ok)

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, src.days, 3)
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), src.days[0])

	stats, ok := job.LastStats()
	require.True(t, ok)
	assert.Equal(t, 3, stats.Classes)
	assert.Equal(t, 1, stats.Conflicts[schedule.ChildDoubleBooked])
	assert.Equal(t, 1, stats.Conflicts[schedule.UnassignedTransportation])
}
