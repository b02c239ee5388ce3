package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return j.name }
func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestDaily_Next(t *testing.T) {
	loc := time.FixedZone("X", 2*3600)
	d := Daily{Hour: 18, Minute: 30, Location: loc}

	morning := time.Date(2026, 10, 14, 9, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 10, 14, 18, 30, 0, 0, loc), d.Next(morning))

	exactly := time.Date(2026, 10, 14, 18, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 10, 15, 18, 30, 0, 0, loc), d.Next(exactly))
	assert.Equal(t, "daily at 18:30", d.String())
}

func TestEvery_Next(t *testing.T) {
	at := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(5*time.Minute), Every(5*time.Minute).Next(at))
}

func TestScheduler_Register(t *testing.T) {
	s := New(Config{})
	job := &countingJob{name: "a"}
	require.NoError(t, s.Register(job, Every(time.Minute)))
	assert.ErrorIs(t, s.Register(job, Every(time.Minute)), ErrJobExists)
	assert.Error(t, s.Register(nil, Every(time.Minute)))
}

func TestScheduler_StartsDueJobs(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	s := New(Config{Clock: func() time.Time { return now }})
	job := &countingJob{name: "a"}
	require.NoError(t, s.Register(job, Every(time.Minute)))

	s.startDue(context.Background())
	s.wg.Wait()
	assert.Equal(t, int32(0), job.runs.Load())

	now = now.Add(time.Minute)
	s.startDue(context.Background())
	s.wg.Wait()
	assert.Equal(t, int32(1), job.runs.Load())

	s.startDue(context.Background())
	s.wg.Wait()
	assert.Equal(t, int32(1), job.runs.Load())

	info := s.Jobs()
	require.Len(t, info, 1)
	assert.Equal(t, int64(1), info[0].RunCount)
	assert.Equal(t, now.Add(time.Minute), info[0].NextRun)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(Config{})
	failing := &countingJob{name: "b", err: errors.New("boom")}
	require.NoError(t, s.Register(failing, Every(time.Hour)))

	res, err := s.RunNow(context.Background(), "b")
	require.NoError(t, err)
	assert.False(t, res.Success())
	assert.Equal(t, int64(1), s.Jobs()[0].FailCount)
	require.NotNil(t, s.Jobs()[0].LastRun)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunStopsWithContext(t *testing.T) {
	s := New(Config{Tick: time.Millisecond})
	job := &countingJob{name: "c"}
	require.NoError(t, s.Register(job, Every(time.Millisecond)))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Run(ctx), context.DeadlineExceeded)
	assert.Positive(t, job.runs.Load())
}
