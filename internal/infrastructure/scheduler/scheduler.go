// Package scheduler runs the worker's periodic jobs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/champtrack/champtrack-hub/pkg/logger"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

var (
	ErrJobExists   = errors.New("job already registered")
	ErrJobNotFound = errors.New("job not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job is a unit of periodic work.
type Job interface {
	Name() string

	// Run executes the job. ctx is cancelled when the scheduler stops.
	Run(ctx context.Context) error
}

// Schedule decides when a job runs next.
type Schedule interface {
	Next(t time.Time) time.Time
	String() string
}

// JobResult records one execution.
type JobResult struct {
	JobName   string
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

// Success reports whether the run returned no error.
func (r JobResult) Success() bool { return r.Err == nil }

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULES
// ══════════════════════════════════════════════════════════════════════════════

// Every runs a job at a fixed interval.
type Every time.Duration

func (e Every) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }
func (e Every) String() string             { return "every " + time.Duration(e).String() }

// Daily runs a job once a day at a wall-clock time in Location.
type Daily struct {
	Hour, Minute int
	Location     *time.Location
}

func (d Daily) Next(t time.Time) time.Time {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	day := timeutil.StartOfDay(t, loc)
	next := time.Date(day.Year(), day.Month(), day.Day(), d.Hour, d.Minute, 0, 0, loc)
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (d Daily) String() string { return fmt.Sprintf("daily at %02d:%02d", d.Hour, d.Minute) }

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Scheduler checks registered jobs every tick and starts the due ones. A job
// never overlaps with itself.
type Scheduler struct {
	mu       sync.Mutex
	jobs     map[string]*scheduledJob
	lastRuns map[string]JobResult
	wg       sync.WaitGroup

	log   *logger.Logger
	clock timeutil.Clock
	tick  time.Duration
}

type scheduledJob struct {
	job       Job
	schedule  Schedule
	nextRun   time.Time
	running   bool
	runCount  int64
	failCount int64
}

// Config configures a Scheduler.
type Config struct {
	Logger *logger.Logger
	Clock  timeutil.Clock

	// Tick is how often due jobs are checked. Default: one second.
	Tick time.Duration
}

func New(cfg Config) *Scheduler {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.SystemClock()
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	return &Scheduler{
		jobs:     make(map[string]*scheduledJob),
		lastRuns: make(map[string]JobResult),
		log:      cfg.Logger.Named("scheduler"),
		clock:    cfg.Clock,
		tick:     cfg.Tick,
	}
}

// Register adds a job. Its first run is the schedule's next time after now.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil || schedule == nil {
		return errors.New("job and schedule are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrJobExists, job.Name())
	}
	next := schedule.Next(s.clock())
	s.jobs[job.Name()] = &scheduledJob{job: job, schedule: schedule, nextRun: next}
	s.log.Info("job registered",
		logger.String("job", job.Name()),
		logger.String("schedule", schedule.String()),
		logger.Time("next_run", next),
	)
	return nil
}

// Run blocks until ctx is done, then waits for running jobs.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	defer s.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.startDue(ctx)
		}
	}
}

func (s *Scheduler) startDue(ctx context.Context) {
	now := s.clock()

	s.mu.Lock()
	var due []*scheduledJob
	for _, sj := range s.jobs {
		if !sj.running && !now.Before(sj.nextRun) {
			sj.running = true
			sj.nextRun = sj.schedule.Next(now)
			due = append(due, sj)
		}
	}
	s.mu.Unlock()

	for _, sj := range due {
		s.wg.Add(1)
		go func(sj *scheduledJob) {
			defer s.wg.Done()
			s.execute(ctx, sj)
		}(sj)
	}
}

func (s *Scheduler) execute(ctx context.Context, sj *scheduledJob) JobResult {
	name := sj.job.Name()
	start := s.clock()
	began := time.Now()
	err := sj.job.Run(ctx)
	res := JobResult{JobName: name, StartedAt: start, Duration: time.Since(began), Err: err}

	s.mu.Lock()
	sj.running = false
	sj.runCount++
	if err != nil {
		sj.failCount++
	}
	s.lastRuns[name] = res
	s.mu.Unlock()

	if err != nil {
		s.log.Error("job failed", logger.String("job", name), logger.Latency(res.Duration), logger.Err(err))
	} else {
		s.log.Debug("job completed", logger.String("job", name), logger.Latency(res.Duration))
	}
	return res
}

// RunNow executes a job immediately, outside its schedule. It fails with
// ErrJobNotFound for unknown names.
func (s *Scheduler) RunNow(ctx context.Context, name string) (JobResult, error) {
	s.mu.Lock()
	sj, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return JobResult{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if sj.running {
		s.mu.Unlock()
		return JobResult{}, fmt.Errorf("job %s is already running", name)
	}
	sj.running = true
	s.mu.Unlock()

	return s.execute(ctx, sj), nil
}

// JobInfo describes a registered job.
type JobInfo struct {
	Name      string
	Schedule  string
	NextRun   time.Time
	RunCount  int64
	FailCount int64
	LastRun   *JobResult
}

// Jobs lists registered jobs by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for name, sj := range s.jobs {
		info := JobInfo{
			Name:      name,
			Schedule:  sj.schedule.String(),
			NextRun:   sj.nextRun,
			RunCount:  sj.runCount,
			FailCount: sj.failCount,
		}
		if r, ok := s.lastRuns[name]; ok {
			info.LastRun = &r
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
