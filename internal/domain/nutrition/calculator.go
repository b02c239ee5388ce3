package nutrition

import "time"

// ActivityLevel scales the adjusted basal rate into daily calories.
type ActivityLevel string

const (
	Sedentary  ActivityLevel = "sedentary"
	Moderate   ActivityLevel = "moderate"
	Active     ActivityLevel = "active"
	VeryActive ActivityLevel = "veryActive"
)

// Multiplier returns the calorie multiplier for the level.
func (l ActivityLevel) Multiplier() float64 {
	switch l {
	case Moderate:
		return 1.375
	case Active:
		return 1.55
	case VeryActive:
		return 1.725
	default:
		return 1.2
	}
}

func (l ActivityLevel) DisplayName() string {
	switch l {
	case Moderate:
		return "Moderate (3-4 activities/week)"
	case Active:
		return "Active (5-6 activities/week)"
	case VeryActive:
		return "Very Active (7+ activities/week)"
	default:
		return "Sedentary (0-2 activities/week)"
	}
}

// ActivityLevelForSessions maps scheduled sessions per week to a level.
func ActivityLevelForSessions(n int) ActivityLevel {
	switch {
	case n <= 2:
		return Sedentary
	case n <= 4:
		return Moderate
	case n <= 6:
		return Active
	default:
		return VeryActive
	}
}

// Sex selects the Harris-Benedict coefficients.
type Sex int

const (
	Female Sex = iota
	Male
)

// Biometrics is the calculator input. Values are not validated:
// zero or negative measurements give a defined but meaningless result.
type Biometrics struct {
	ChildID  string
	Sex      Sex
	WeightKg float64
	HeightCm float64
	AgeYears int
}

// Target is a child's daily nutrition goal. Macros are in grams, hydration in ml.
type Target struct {
	ID               string    `json:"id"`
	ChildID          string    `json:"childId"`
	Date             time.Time `json:"date"`
	Calories         float64   `json:"calories"`
	Protein          float64   `json:"protein"`
	Carbs            float64   `json:"carbs"`
	Fats             float64   `json:"fats"`
	HydrationML      float64   `json:"hydration"`
	IsAutoCalculated bool      `json:"isAutoCalculated"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// BasalMetabolicRate applies the Harris-Benedict equation.
func BasalMetabolicRate(b Biometrics) float64 {
	age := float64(b.AgeYears)
	if b.Sex == Male {
		return 88.362 + 13.397*b.WeightKg + 4.799*b.HeightCm - 5.677*age
	}
	return 447.593 + 9.247*b.WeightKg + 3.098*b.HeightCm - 4.330*age
}

// AgeFactor raises the basal rate for younger children.
func AgeFactor(ageYears int) float64 {
	switch {
	case ageYears < 10:
		return 1.10
	case ageYears < 14:
		return 1.05
	default:
		return 1.0
	}
}

// CalculateTarget derives the daily target. Fats take 30% and carbs 50% of
// calories; protein is 1.2 g and water 35 ml per kg of body weight.
func CalculateTarget(b Biometrics, level ActivityLevel, now time.Time) Target {
	calories := BasalMetabolicRate(b) * AgeFactor(b.AgeYears) * level.Multiplier()

	return Target{
		ChildID:          b.ChildID,
		Date:             now,
		Calories:         calories,
		Protein:          b.WeightKg * 1.2,
		Carbs:            calories * 0.50 / 4,
		Fats:             calories * 0.30 / 9,
		HydrationML:      b.WeightKg * 35,
		IsAutoCalculated: true,
		UpdatedAt:        now,
	}
}

// Met reports whether daily intake reaches ratio of the calorie and protein targets.
func (t Target) Met(daily Macros, ratio float64) bool {
	return daily.Calories >= t.Calories*ratio && daily.Protein >= t.Protein*ratio
}
