package store

import (
	"slices"

	"github.com/champtrack/champtrack-hub/internal/domain/goal"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/logger"
)

// AddGoal stores g with default status, priority and reward.
func (s *Store) AddGoal(g goal.Goal) goal.Goal {
	s.lock()
	defer s.unlock()

	g = g.Clone()
	g.ID = s.ensureID(g.ID)
	g.ApplyDefaults()
	if g.FamilyID == "" {
		g.FamilyID = s.familyID(g.ChildID)
	}
	for i := range g.Milestones {
		g.Milestones[i].ID = s.ensureID(g.Milestones[i].ID)
	}
	g.CreatedAt = orNow(g.CreatedAt, s.now())

	s.goals = append(s.goals, g)
	s.save(s.familyID(g.ChildID), g)
	return g.Clone()
}

// UpdateGoal replaces a goal. Setting the status here pays no reward.
func (s *Store) UpdateGoal(g goal.Goal) {
	s.lock()
	defer s.unlock()

	i := s.goalIndex(g.ID)
	if i < 0 {
		return
	}
	s.goals[i] = g.Clone()
	s.save(s.familyID(g.ChildID), g)
}

func (s *Store) DeleteGoal(id string) {
	s.lock()
	defer s.unlock()

	i := s.goalIndex(id)
	if i < 0 {
		return
	}
	g := s.goals[i]
	s.goals = slices.Delete(s.goals, i, i+1)
	s.remove(s.familyID(g.ChildID), g)
}

// CompleteGoal forces the goal to its target and pays its reward. A goal
// that is already completed is left alone.
func (s *Store) CompleteGoal(id string) {
	s.lock()
	defer s.unlock()

	s.completeGoal(id)
}

// UpdateGoalProgress records a new current value, marks reached milestones
// and completes the goal once the target is met.
func (s *Store) UpdateGoalProgress(id string, value float64) {
	s.lock()
	defer s.unlock()

	i := s.goalIndex(id)
	if i < 0 {
		return
	}
	g := &s.goals[i]
	g.CurrentValue = value
	g.ReachMilestones(s.now())
	s.patch(s.familyID(g.ChildID), *g, map[string]any{
		"currentValue": g.CurrentValue,
		"milestones":   g.Clone().Milestones,
	})

	if g.Status != goal.StatusCompleted && g.IsComplete() {
		s.completeGoal(id)
	}
}

func (s *Store) completeGoal(id string) {
	i := s.goalIndex(id)
	if i < 0 || s.goals[i].Status == goal.StatusCompleted {
		return
	}
	now := s.now()
	g := &s.goals[i]
	g.Status = goal.StatusCompleted
	g.CurrentValue = g.TargetValue
	g.ReachMilestones(now)

	done := g.Clone()
	s.patch(s.familyID(done.ChildID), done, map[string]any{
		"status":       done.Status,
		"currentValue": done.CurrentValue,
		"milestones":   done.Milestones,
	})
	s.raise(shared.NewGoalCompletedEvent(done.ChildID, done.ID, done.PointsReward, now))
	s.log.Info("goal completed", logger.ChildID(done.ChildID), logger.EntityID(done.ID), logger.Points(done.PointsReward))
	s.awardPoints(done.ChildID, done.PointsReward, "goal")
}

// GetGoals returns a child's goals.
func (s *Store) GetGoals(childID string) []goal.Goal {
	s.lock()
	defer s.unlock()

	return filter(s.goals, func(g goal.Goal) bool { return g.ChildID == childID }, goal.Goal.Clone)
}

// GetActiveGoals returns a child's goals with status active.
func (s *Store) GetActiveGoals(childID string) []goal.Goal {
	s.lock()
	defer s.unlock()

	return filter(s.goals, func(g goal.Goal) bool {
		return g.ChildID == childID && g.Status == goal.StatusActive
	}, goal.Goal.Clone)
}

func (s *Store) goalsCompleted(childID string) int {
	n := 0
	for _, g := range s.goals {
		if g.ChildID == childID && g.Status == goal.StatusCompleted {
			n++
		}
	}
	return n
}
