package goal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func TestProgressPercentage(t *testing.T) {
	g := Goal{TargetValue: 8, CurrentValue: 5}
	assert.InDelta(t, 62.5, g.ProgressPercentage(), 1e-9)

	g.CurrentValue = 12
	assert.Equal(t, 100.0, g.ProgressPercentage())

	g.TargetValue = 0
	assert.Equal(t, 0.0, g.ProgressPercentage())
}

func TestIsComplete(t *testing.T) {
	assert.False(t, Goal{TargetValue: 5, CurrentValue: 4}.IsComplete())
	assert.True(t, Goal{TargetValue: 5, CurrentValue: 5}.IsComplete())
}

func TestIsOverdue(t *testing.T) {
	g := Goal{Status: StatusActive, EndDate: now.Add(-time.Hour)}
	assert.True(t, g.IsOverdue(now))

	g.Status = StatusCompleted
	assert.False(t, g.IsOverdue(now))

	g = Goal{Status: StatusActive, EndDate: now.Add(time.Hour)}
	assert.False(t, g.IsOverdue(now))
}

func TestDaysRemaining(t *testing.T) {
	g := Goal{EndDate: now.AddDate(0, 0, 10)}
	assert.Equal(t, 10, g.DaysRemaining(now))

	g.EndDate = now.Add(36 * time.Hour)
	assert.Equal(t, 1, g.DaysRemaining(now))

	g.EndDate = now.AddDate(0, 0, -3)
	assert.Equal(t, -3, g.DaysRemaining(now))
}

func TestApplyDefaults(t *testing.T) {
	var g Goal
	g.ApplyDefaults()

	assert.Equal(t, StatusActive, g.Status)
	assert.Equal(t, PriorityMedium, g.Priority)
	assert.Equal(t, DefaultPointsReward, g.PointsReward)
}

func TestReachMilestones(t *testing.T) {
	g := Goal{
		TargetValue:  10,
		CurrentValue: 5,
		Milestones: []Milestone{
			{ID: "m1", TargetValue: 3},
			{ID: "m2", TargetValue: 5},
			{ID: "m3", TargetValue: 8},
		},
	}

	assert.Equal(t, 2, g.ReachMilestones(now))
	assert.True(t, g.Milestones[0].IsCompleted)
	assert.True(t, g.Milestones[1].IsCompleted)
	assert.False(t, g.Milestones[2].IsCompleted)
	assert.Equal(t, now, *g.Milestones[0].CompletedAt)

	assert.Equal(t, 0, g.ReachMilestones(now.Add(time.Hour)))
	assert.Equal(t, now, *g.Milestones[0].CompletedAt)
}

func TestCloneIsDeep(t *testing.T) {
	g := Goal{Milestones: []Milestone{{ID: "m1", Title: "Half way"}}}

	cp := g.Clone()
	cp.Milestones[0].Title = "Changed"

	assert.Equal(t, "Half way", g.Milestones[0].Title)
}

func TestPriorityColor(t *testing.T) {
	assert.Equal(t, "E74C3C", PriorityHigh.ColorHex())
	assert.Equal(t, "F39C12", PriorityMedium.ColorHex())
}
