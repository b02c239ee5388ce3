package gamification

// TriggerKind names the measure an automatic unlock watches.
type TriggerKind string

const (
	// TriggerManual achievements are only unlocked by an explicit command.
	TriggerManual          TriggerKind = "manual"
	TriggerPointsThreshold TriggerKind = "points_threshold"
	TriggerGoalsCompleted  TriggerKind = "goals_completed"
	// TriggerNutritionDays counts days on which the nutrition target was met.
	TriggerNutritionDays TriggerKind = "nutrition_days"
)

// Trigger is the unlock rule stored on an achievement.
type Trigger struct {
	Kind      TriggerKind `json:"kind"`
	Threshold float64     `json:"threshold,omitempty"`
}

func Manual() Trigger                { return Trigger{Kind: TriggerManual} }
func PointsThreshold(n int) Trigger  { return Trigger{Kind: TriggerPointsThreshold, Threshold: float64(n)} }
func GoalsCompleted(n int) Trigger   { return Trigger{Kind: TriggerGoalsCompleted, Threshold: float64(n)} }
func NutritionDaysMet(n int) Trigger { return Trigger{Kind: TriggerNutritionDays, Threshold: float64(n)} }

// IsAutomatic reports whether the store should evaluate the trigger.
func (t Trigger) IsAutomatic() bool {
	return t.Kind != "" && t.Kind != TriggerManual
}

// Progress is the per-child state triggers are evaluated against.
type Progress struct {
	TotalPoints    int
	GoalsCompleted int
	NutritionDays  int
}

// Measure returns the current value of the trigger's measure.
// ok is false for manual or unknown triggers.
func (t Trigger) Measure(p Progress) (value float64, ok bool) {
	switch t.Kind {
	case TriggerPointsThreshold:
		return float64(p.TotalPoints), true
	case TriggerGoalsCompleted:
		return float64(p.GoalsCompleted), true
	case TriggerNutritionDays:
		return float64(p.NutritionDays), true
	default:
		return 0, false
	}
}

// Satisfied reports whether an automatic trigger has reached its threshold.
func (t Trigger) Satisfied(p Progress) bool {
	v, ok := t.Measure(p)
	return ok && v >= t.Threshold
}

// Evaluate returns the ids of locked achievements whose trigger is satisfied,
// in input order.
func Evaluate(achievements []Achievement, p Progress) []string {
	var ids []string
	for _, a := range achievements {
		if !a.IsUnlocked && a.Trigger.Satisfied(p) {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
