package gamification

import "time"

// Type distinguishes trophies from badges.
type Type string

const (
	TypeTrophy Type = "trophy"
	TypeBadge  Type = "badge"
)

type Category string

const (
	CategorySports    Category = "sports"
	CategoryNutrition Category = "nutrition"
	CategoryStreak    Category = "streak"
	CategoryMilestone Category = "milestone"
	CategorySpecial   Category = "special"
)

type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// ColorHex returns the medal color of the tier.
func (t Tier) ColorHex() string {
	switch t {
	case TierBronze:
		return "CD7F32"
	case TierSilver:
		return "C0C0C0"
	case TierGold:
		return "FFD700"
	default:
		return ""
	}
}

// Achievement is a per-child instance of a catalog template.
type Achievement struct {
	ID            string     `json:"id"`
	ChildID       string     `json:"childId"`
	Type          Type       `json:"type"`
	Category      Category   `json:"category"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	IconName      string     `json:"iconName"`
	Tier          Tier       `json:"tier"`
	PointsAwarded int        `json:"pointsAwarded"`
	EarnedAt      *time.Time `json:"earnedDate,omitempty"`
	RelatedGoalID string     `json:"relatedGoalId,omitempty"`
	IsUnlocked    bool       `json:"isUnlocked"`
	Progress      *float64   `json:"progress,omitempty"`
	Requirement   *float64   `json:"requirement,omitempty"`
	Trigger       Trigger    `json:"trigger"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ProgressPercentage reports partial progress, or 0/100 by lock state when
// no progress is tracked.
func (a Achievement) ProgressPercentage() float64 {
	if a.Progress == nil || a.Requirement == nil || *a.Requirement <= 0 {
		if a.IsUnlocked {
			return 100
		}
		return 0
	}
	return min(100, *a.Progress / *a.Requirement * 100)
}

// Unlock marks the achievement earned at now. It returns false when it
// was already unlocked.
func (a *Achievement) Unlock(now time.Time) bool {
	if a.IsUnlocked {
		return false
	}
	t := now
	a.IsUnlocked = true
	a.EarnedAt = &t
	if a.Requirement != nil {
		done := *a.Requirement
		a.Progress = &done
	}
	return true
}

// Track records the trigger's current measure as progress, capped at the
// requirement. Manual and unlocked achievements are left alone.
func (a *Achievement) Track(p Progress) {
	if a.IsUnlocked {
		return
	}
	v, ok := a.Trigger.Measure(p)
	if !ok {
		return
	}
	if a.Requirement != nil {
		v = min(v, *a.Requirement)
	}
	a.Progress = &v
}

// Clone returns a copy that shares no pointers with a.
func (a Achievement) Clone() Achievement {
	a.EarnedAt = clonePtr(a.EarnedAt)
	a.Progress = clonePtr(a.Progress)
	a.Requirement = clonePtr(a.Requirement)
	return a
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Template is a catalog entry cloned per child.
type Template struct {
	Type        Type
	Category    Category
	Title       string
	Description string
	IconName    string
	Tier        Tier
	Points      int
	Requirement float64
	Trigger     Trigger
}

// Templates returns the achievement catalog in catalog order.
func Templates() []Template {
	return []Template{
		{TypeBadge, CategorySports, "First Goal", "Complete your first sports goal", "star.fill", TierBronze, 50, 1, GoalsCompleted(1)},
		{TypeTrophy, CategorySports, "Perfect Attendance", "Attend all sessions in a month", "calendar.badge.checkmark", TierGold, 200, 1, Manual()},
		{TypeBadge, CategoryStreak, "Week Warrior", "Complete a 7-day streak", "flame.fill", TierBronze, 50, 7, Manual()},
		{TypeBadge, CategoryStreak, "Month Master", "Complete a 30-day streak", "flame.fill", TierGold, 200, 30, Manual()},
		{TypeBadge, CategoryNutrition, "Nutrition Ninja", "Meet nutrition goals for 7 days", "leaf.fill", TierSilver, 100, 7, NutritionDaysMet(7)},
		{TypeTrophy, CategoryNutrition, "Hydration Hero", "Meet hydration goals for 14 days", "drop.fill", TierSilver, 150, 14, Manual()},
		{TypeBadge, CategoryMilestone, "Century Club", "Earn 100 points", "100.circle.fill", TierBronze, 25, 100, PointsThreshold(100)},
		{TypeTrophy, CategoryMilestone, "Goal Crusher", "Complete 10 goals", "target", TierGold, 300, 10, GoalsCompleted(10)},
	}
}

// Instantiate clones templates for childID, all locked, in template order.
// Calling it twice for the same child produces duplicates.
func Instantiate(childID string, templates []Template, newID func() string, now time.Time) []Achievement {
	out := make([]Achievement, 0, len(templates))
	for _, t := range templates {
		req := t.Requirement
		out = append(out, Achievement{
			ID:            newID(),
			ChildID:       childID,
			Type:          t.Type,
			Category:      t.Category,
			Title:         t.Title,
			Description:   t.Description,
			IconName:      t.IconName,
			Tier:          t.Tier,
			PointsAwarded: t.Points,
			Requirement:   &req,
			Trigger:       t.Trigger,
			CreatedAt:     now,
		})
	}
	return out
}
