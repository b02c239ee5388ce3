package jobs

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/pkg/logger"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFLICT DIGEST JOB
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleSource is the part of the store the digest reads.
type ScheduleSource interface {
	DetectConflicts(date time.Time) []schedule.Conflict
	GetClassesForDate(date time.Time) []schedule.Class
}

// ConflictDigestJob logs the classes and conflicts of the coming days so
// parents can sort out double bookings and missing drivers ahead of time.
type ConflictDigestJob struct {
	source ScheduleSource
	clock  timeutil.Clock
	loc    *time.Location
	days   int
	log    *logger.Logger

	last atomic.Value // DigestStats
}

// DigestStats summarises one digest run.
type DigestStats struct {
	Days      int
	Classes   int
	Conflicts map[schedule.ConflictType]int
}

// NewConflictDigestJob covers today and the following days-1 days.
func NewConflictDigestJob(source ScheduleSource, clock timeutil.Clock, loc *time.Location, days int, log *logger.Logger) *ConflictDigestJob {
	if days < 1 {
		days = 1
	}
	if clock == nil {
		clock = timeutil.SystemClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ConflictDigestJob{source: source, clock: clock, loc: loc, days: days, log: log.Named("digest")}
}

func (j *ConflictDigestJob) Name() string { return "conflict_digest" }

func (j *ConflictDigestJob) Run(ctx context.Context) error {
	stats := DigestStats{Days: j.days, Conflicts: make(map[schedule.ConflictType]int)}
	today := timeutil.StartOfDay(j.clock(), j.loc)

	for i := 0; i < j.days; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		day := today.AddDate(0, 0, i)
		key := timeutil.DayKey(day, j.loc)

		classes := j.source.GetClassesForDate(day)
		stats.Classes += len(classes)
		for _, c := range j.source.DetectConflicts(day) {
			stats.Conflicts[c.Type]++
			j.log.Warn("schedule conflict",
				logger.String("day", key),
				logger.String("type", string(c.Type)),
				logger.String("description", c.Description),
				logger.F("class_ids", c.ClassIDs),
			)
		}
	}

	j.last.Store(stats)
	j.log.Info("conflict digest",
		logger.Int("days", stats.Days),
		logger.Int("classes", stats.Classes),
		logger.Int("conflicts", total(stats.Conflicts)),
	)
	return nil
}

// LastStats returns the result of the latest run.
func (j *ConflictDigestJob) LastStats() (DigestStats, bool) {
	s, ok := j.last.Load().(DigestStats)
	return s, ok
}

func total(m map[schedule.ConflictType]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
