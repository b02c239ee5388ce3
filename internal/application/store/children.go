package store

import (
	"slices"

	"github.com/champtrack/champtrack-hub/internal/domain/child"
	"github.com/champtrack/champtrack-hub/internal/domain/family"
	"github.com/champtrack/champtrack-hub/internal/domain/gamification"
	"github.com/champtrack/champtrack-hub/internal/domain/goal"
	"github.com/champtrack/champtrack-hub/internal/domain/nutrition"
	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAMILY
// ══════════════════════════════════════════════════════════════════════════════

// CreateFamily replaces the current family with a new one whose only member
// is userID.
func (s *Store) CreateFamily(name, userID string) family.Family {
	s.lock()
	defer s.unlock()

	f := family.Family{
		ID:        s.newID(),
		Name:      name,
		CreatedBy: userID,
		Members:   []string{userID},
		Children:  []string{},
		CreatedAt: s.now(),
	}
	s.family = &f
	s.save(f.ID, f)
	s.log.Info("family created", logger.FamilyID(f.ID))
	return f.Clone()
}

// Family returns the current family.
func (s *Store) Family() (family.Family, bool) {
	s.lock()
	defer s.unlock()

	if s.family == nil {
		return family.Family{}, false
	}
	return s.family.Clone(), true
}

func (s *Store) linkChild(c child.Child) {
	if s.family == nil || s.family.ID != c.FamilyID || s.family.HasChild(c.ID) {
		return
	}
	s.family.Children = append(s.family.Children, c.ID)
	s.patch(s.family.ID, *s.family, map[string]any{"children": slices.Clone(s.family.Children)})
}

func (s *Store) unlinkChild(childID string) {
	if s.family == nil || !s.family.HasChild(childID) {
		return
	}
	s.family.Children = slices.DeleteFunc(s.family.Children, func(id string) bool { return id == childID })
	s.patch(s.family.ID, *s.family, map[string]any{"children": slices.Clone(s.family.Children)})
}

// ══════════════════════════════════════════════════════════════════════════════
// CHILDREN
// ══════════════════════════════════════════════════════════════════════════════

// AddChild stores c, instantiates its achievements and computes its
// nutrition target. The level is derived from the points carried in.
func (s *Store) AddChild(c child.Child) child.Child {
	s.lock()
	defer s.unlock()

	now := s.now()
	c = c.Clone()
	c.ID = s.ensureID(c.ID)
	if c.FamilyID == "" && s.family != nil {
		c.FamilyID = s.family.ID
	}
	c.CurrentLevel = s.curve.LevelFor(c.TotalPoints)
	c.CreatedAt = orNow(c.CreatedAt, now)

	s.children = append(s.children, c)
	s.save(c.FamilyID, c)
	s.linkChild(c)
	s.generateAchievements(c.ID)
	s.recomputeTarget(c.ID)

	s.raise(shared.NewChildAddedEvent(c.ID, c.FamilyID, c.FirstName, now))
	s.log.Info("child added", logger.ChildID(c.ID), logger.FamilyID(c.FamilyID))
	return c.Clone()
}

// UpdateChild replaces the profile of an existing child. Points and level
// belong to the award pipeline and are kept.
func (s *Store) UpdateChild(c child.Child) {
	s.lock()
	defer s.unlock()

	i := s.childIndex(c.ID)
	if i < 0 {
		return
	}
	old := s.children[i]
	c = c.Clone()
	c.TotalPoints = old.TotalPoints
	c.CurrentLevel = old.CurrentLevel
	c.CreatedAt = old.CreatedAt
	if c.FamilyID == "" {
		c.FamilyID = old.FamilyID
	}

	s.children[i] = c
	s.save(c.FamilyID, c)
	s.recomputeTarget(c.ID)
}

// DeleteChild removes the child and everything it owns.
func (s *Store) DeleteChild(id string) {
	s.lock()
	defer s.unlock()

	i := s.childIndex(id)
	if i < 0 {
		return
	}
	c := s.children[i]
	fid := s.familyID(id)
	removed := 0

	s.sports = deleteOwned(s, fid, s.sports, func(v schedule.Sport) bool { return v.ChildID == id }, &removed)
	s.classes = deleteOwned(s, fid, s.classes, func(v schedule.Class) bool { return v.ChildID == id }, &removed)
	s.meals = deleteOwned(s, fid, s.meals, func(v nutrition.Meal) bool { return v.ChildID == id }, &removed)
	s.goals = deleteOwned(s, fid, s.goals, func(v goal.Goal) bool { return v.ChildID == id }, &removed)
	s.achievements = deleteOwned(s, fid, s.achievements, func(v gamification.Achievement) bool { return v.ChildID == id }, &removed)
	if t, ok := s.targets[id]; ok {
		delete(s.targets, id)
		s.remove(fid, t)
		removed++
	}

	s.children = slices.Delete(s.children, i, i+1)
	s.remove(fid, c)
	s.unlinkChild(id)

	s.raise(shared.NewChildRemovedEvent(id, c.FamilyID, removed, s.now()))
	s.log.Info("child deleted", logger.ChildID(id), logger.Int("cascaded", removed))
}

// deleteOwned drops matching items and enqueues their deletion.
func deleteOwned[T any](s *Store, familyID string, items []T, owned func(T) bool, removed *int) []T {
	return slices.DeleteFunc(items, func(v T) bool {
		if !owned(v) {
			return false
		}
		s.remove(familyID, v)
		*removed++
		return true
	})
}

// GetChild returns the child with id.
func (s *Store) GetChild(id string) (child.Child, bool) {
	s.lock()
	defer s.unlock()

	i := s.childIndex(id)
	if i < 0 {
		return child.Child{}, false
	}
	return s.children[i].Clone(), true
}

// Children returns every child in insertion order.
func (s *Store) Children() []child.Child {
	s.lock()
	defer s.unlock()

	return filter(s.children, func(child.Child) bool { return true }, child.Child.Clone)
}

func (s *Store) childName(id string) string {
	if i := s.childIndex(id); i >= 0 {
		return s.children[i].FirstName
	}
	return ""
}
