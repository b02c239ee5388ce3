package store

import (
	"github.com/champtrack/champtrack-hub/internal/domain/child"
	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/domain/gamification"
	"github.com/champtrack/champtrack-hub/internal/domain/goal"
	"github.com/champtrack/champtrack-hub/internal/domain/nutrition"
	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/logger"
)

// ApplySnapshot replaces every collection with the snapshot's records. The
// last snapshot applied wins. Nothing is written back to persistence and no
// points are awarded; levels are re-derived from points.
func (s *Store) ApplySnapshot(snap document.Snapshot) {
	s.lock()
	defer s.unlock()

	if snap.Family != nil {
		f := snap.Family.Clone()
		s.family = &f
	}
	s.children = cloneAll(snap.Children, child.Child.Clone)
	for i := range s.children {
		s.children[i].CurrentLevel = s.curve.LevelFor(s.children[i].TotalPoints)
	}
	s.sports = cloneAll(snap.Sports, schedule.Sport.Clone)
	s.classes = cloneAll(snap.Classes, schedule.Class.Clone)
	s.meals = cloneAll(snap.Meals, nutrition.Meal.Clone)
	s.goals = cloneAll(snap.Goals, goal.Goal.Clone)
	s.achievements = cloneAll(snap.Achievements, gamification.Achievement.Clone)
	s.targets = make(map[string]nutrition.Target, len(snap.Targets))
	for _, t := range snap.Targets {
		s.targets[t.ChildID] = t
	}

	familyID := ""
	if s.family != nil {
		familyID = s.family.ID
	}
	s.raise(shared.NewSnapshotAppliedEvent(familyID, snap.Len(), s.now()))
	s.log.Info("snapshot applied", logger.FamilyID(familyID), logger.Int("records", snap.Len()))
}

// Snapshot copies every record currently held.
func (s *Store) Snapshot() document.Snapshot {
	s.lock()
	defer s.unlock()

	snap := document.Snapshot{
		Children:     cloneAll(s.children, child.Child.Clone),
		Sports:       cloneAll(s.sports, schedule.Sport.Clone),
		Classes:      cloneAll(s.classes, schedule.Class.Clone),
		Meals:        cloneAll(s.meals, nutrition.Meal.Clone),
		Goals:        cloneAll(s.goals, goal.Goal.Clone),
		Achievements: cloneAll(s.achievements, gamification.Achievement.Clone),
	}
	if s.family != nil {
		f := s.family.Clone()
		snap.Family = &f
	}
	for _, c := range s.children {
		if t, ok := s.targets[c.ID]; ok {
			snap.Targets = append(snap.Targets, t)
		}
	}
	return snap
}

func cloneAll[T any](items []T, clone func(T) T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = clone(it)
	}
	return out
}
