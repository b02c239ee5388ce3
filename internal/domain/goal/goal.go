// Package goal models a child's measurable goals and their milestones.
package goal

import "time"

// DefaultPointsReward applies when a goal is added without a reward.
const DefaultPointsReward = 100

type Type string

const (
	TypeSports     Type = "sports"
	TypeNutrition  Type = "nutrition"
	TypeAttendance Type = "attendance"
	TypePersonal   Type = "personal"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ColorHex returns the display color for the priority.
func (p Priority) ColorHex() string {
	switch p {
	case PriorityLow:
		return "7F8C8D"
	case PriorityHigh:
		return "E74C3C"
	default:
		return "F39C12"
	}
}

// Milestone is an intermediate checkpoint on the way to the target.
type Milestone struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	TargetValue float64    `json:"targetValue"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Goal is a target value a child works toward before EndDate.
type Goal struct {
	ID             string      `json:"id"`
	ChildID        string      `json:"childId"`
	FamilyID       string      `json:"familyId"`
	Type           Type        `json:"type"`
	Title          string      `json:"title"`
	Description    string      `json:"description,omitempty"`
	TargetValue    float64     `json:"targetValue"`
	CurrentValue   float64     `json:"currentValue"`
	Unit           string      `json:"unit"`
	StartDate      time.Time   `json:"startDate"`
	EndDate        time.Time   `json:"endDate"`
	Status         Status      `json:"status"`
	Priority       Priority    `json:"priority"`
	RelatedSportID string      `json:"relatedSportId,omitempty"`
	ParentNotes    string      `json:"parentNotes,omitempty"`
	ChildNotes     string      `json:"childNotes,omitempty"`
	Milestones     []Milestone `json:"milestones"`
	PointsReward   int         `json:"pointsReward"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// ProgressPercentage is current/target as a percentage capped at 100.
// A non-positive target yields 0.
func (g Goal) ProgressPercentage() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	return min(100, g.CurrentValue/g.TargetValue*100)
}

// IsComplete reports whether the current value has reached the target.
func (g Goal) IsComplete() bool {
	return g.CurrentValue >= g.TargetValue
}

// IsOverdue reports whether an active goal is past its end date.
func (g Goal) IsOverdue(now time.Time) bool {
	return g.Status == StatusActive && now.After(g.EndDate)
}

// DaysRemaining counts whole days until EndDate, negative once it has passed.
func (g Goal) DaysRemaining(now time.Time) int {
	return int(g.EndDate.Sub(now).Hours() / 24)
}

// ApplyDefaults fills status, priority and reward when unset.
func (g *Goal) ApplyDefaults() {
	if g.Status == "" {
		g.Status = StatusActive
	}
	if g.Priority == "" {
		g.Priority = PriorityMedium
	}
	if g.PointsReward == 0 {
		g.PointsReward = DefaultPointsReward
	}
}

// ReachMilestones marks milestones whose target the current value has met.
// It returns the number newly completed.
func (g *Goal) ReachMilestones(now time.Time) int {
	reached := 0
	for i := range g.Milestones {
		m := &g.Milestones[i]
		if !m.IsCompleted && g.CurrentValue >= m.TargetValue {
			t := now
			m.IsCompleted = true
			m.CompletedAt = &t
			reached++
		}
	}
	return reached
}

// Clone returns a copy that shares no milestones with g.
func (g Goal) Clone() Goal {
	if g.Milestones != nil {
		ms := make([]Milestone, len(g.Milestones))
		for i, m := range g.Milestones {
			if m.CompletedAt != nil {
				t := *m.CompletedAt
				m.CompletedAt = &t
			}
			ms[i] = m
		}
		g.Milestones = ms
	}
	return g
}
