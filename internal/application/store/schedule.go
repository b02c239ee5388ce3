package store

import (
	"slices"
	"time"

	"github.com/champtrack/champtrack-hub/config"
	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/logger"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

// DefaultUpcomingLimit applies when GetUpcomingClasses is called with a
// negative limit.
const DefaultUpcomingLimit = 5

// ══════════════════════════════════════════════════════════════════════════════
// SPORTS
// ══════════════════════════════════════════════════════════════════════════════

// AddSport stores sp with catalog color and icon defaults.
func (s *Store) AddSport(sp schedule.Sport) schedule.Sport {
	s.lock()
	defer s.unlock()

	sp = sp.Clone()
	sp.ID = s.ensureID(sp.ID)
	sp.ApplyDefaults()
	if sp.FamilyID == "" {
		sp.FamilyID = s.familyID(sp.ChildID)
	}
	sp.CreatedAt = orNow(sp.CreatedAt, s.now())

	s.sports = append(s.sports, sp)
	s.save(s.familyID(sp.ChildID), sp)
	return sp.Clone()
}

func (s *Store) UpdateSport(sp schedule.Sport) {
	s.lock()
	defer s.unlock()

	i := s.sportIndex(sp.ID)
	if i < 0 {
		return
	}
	s.sports[i] = sp.Clone()
	s.save(s.familyID(sp.ChildID), sp)
}

// DeleteSport removes the sport and its classes.
func (s *Store) DeleteSport(id string) {
	s.lock()
	defer s.unlock()

	i := s.sportIndex(id)
	if i < 0 {
		return
	}
	sp := s.sports[i]
	fid := s.familyID(sp.ChildID)
	removed := 0

	s.classes = deleteOwned(s, fid, s.classes, func(c schedule.Class) bool { return c.SportID == id }, &removed)
	s.sports = slices.Delete(s.sports, i, i+1)
	s.remove(fid, sp)
	if removed > 0 {
		s.recomputeTarget(sp.ChildID)
	}
}

// GetSports returns the sports of a child.
func (s *Store) GetSports(childID string) []schedule.Sport {
	s.lock()
	defer s.unlock()

	return filter(s.sports, func(sp schedule.Sport) bool { return sp.ChildID == childID }, schedule.Sport.Clone)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLASSES
// ══════════════════════════════════════════════════════════════════════════════

// AddClass stores c with default duration, recurrence and status.
func (s *Store) AddClass(c schedule.Class) schedule.Class {
	s.lock()
	defer s.unlock()

	c = c.Clone()
	c.ID = s.ensureID(c.ID)
	c.ApplyDefaults()
	if c.FamilyID == "" {
		c.FamilyID = s.familyID(c.ChildID)
	}
	c.CreatedAt = orNow(c.CreatedAt, s.now())

	s.classes = append(s.classes, c)
	s.save(s.familyID(c.ChildID), c)
	s.recomputeTarget(c.ChildID)
	return c.Clone()
}

func (s *Store) UpdateClass(c schedule.Class) {
	s.lock()
	defer s.unlock()

	i := s.classIndex(c.ID)
	if i < 0 {
		return
	}
	previousChild := s.classes[i].ChildID
	s.classes[i] = c.Clone()
	s.save(s.familyID(c.ChildID), c)
	s.recomputeTarget(c.ChildID)
	if previousChild != c.ChildID {
		s.recomputeTarget(previousChild)
	}
}

func (s *Store) DeleteClass(id string) {
	s.lock()
	defer s.unlock()

	i := s.classIndex(id)
	if i < 0 {
		return
	}
	c := s.classes[i]
	s.classes = slices.Delete(s.classes, i, i+1)
	s.remove(s.familyID(c.ChildID), c)
	s.recomputeTarget(c.ChildID)
}

// MarkClassComplete completes a class and awards its type's points. A class
// already completed is left alone so points are paid once.
func (s *Store) MarkClassComplete(id string) {
	s.lock()
	defer s.unlock()

	i := s.classIndex(id)
	if i < 0 || s.classes[i].Status == schedule.StatusCompleted {
		return
	}
	s.classes[i].Status = schedule.StatusCompleted
	c := s.classes[i]
	s.patch(s.familyID(c.ChildID), c, map[string]any{"status": c.Status})

	points := c.Type.Points()
	s.raise(shared.NewClassCompletedEvent(c.ChildID, c.ID, string(c.Type), points, s.now()))
	s.awardPoints(c.ChildID, points, "class")
	s.recomputeTarget(c.ChildID)
}

// AssignTransportation sets both assignees; nil clears one.
func (s *Store) AssignTransportation(classID string, dropoff, pickup *string) {
	s.lock()
	defer s.unlock()

	i := s.classIndex(classID)
	if i < 0 {
		return
	}
	s.classes[i].DropoffAssignee = cloneStr(dropoff)
	s.classes[i].PickupAssignee = cloneStr(pickup)
	c := s.classes[i]
	s.patch(s.familyID(c.ChildID), c, map[string]any{
		"dropoffAssignedTo": c.DropoffAssignee,
		"pickupAssignedTo":  c.PickupAssignee,
	})
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// GetClassesForChild returns a child's classes in insertion order.
func (s *Store) GetClassesForChild(childID string) []schedule.Class {
	s.lock()
	defer s.unlock()

	return filter(s.classes, func(c schedule.Class) bool { return c.ChildID == childID }, schedule.Class.Clone)
}

// GetClassesForDate returns classes starting on the same calendar day as date.
func (s *Store) GetClassesForDate(date time.Time) []schedule.Class {
	s.lock()
	defer s.unlock()

	return filter(s.classes, func(c schedule.Class) bool {
		return timeutil.IsSameDay(c.StartsAt, date, s.loc)
	}, schedule.Class.Clone)
}

// GetUpcomingClasses returns up to limit scheduled classes starting after
// now, earliest first. A zero limit returns none.
func (s *Store) GetUpcomingClasses(limit int) []schedule.Class {
	if limit < 0 {
		limit = DefaultUpcomingLimit
	}

	s.lock()
	defer s.unlock()

	now := s.now()
	upcoming := filter(s.classes, func(c schedule.Class) bool {
		return c.Status == schedule.StatusScheduled && c.StartsAt.After(now)
	}, schedule.Class.Clone)
	slices.SortStableFunc(upcoming, func(a, b schedule.Class) int {
		return a.StartsAt.Compare(b.StartsAt)
	})
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

// DetectConflicts reports double bookings and missing transportation on the
// calendar day of date.
func (s *Store) DetectConflicts(date time.Time) []schedule.Conflict {
	s.lock()
	defer s.unlock()

	var opts []schedule.DetectOption
	if !s.enabled(config.FeatureConflictsParentDoubleBooking) {
		opts = append(opts, schedule.WithoutParentChecks())
	}
	conflicts := schedule.DetectConflicts(s.classes, date, s.loc, s.childName, opts...)
	if len(conflicts) > 0 {
		s.log.Debug("conflicts detected", logger.Int("count", len(conflicts)), logger.Time("date", date))
	}
	return conflicts
}
