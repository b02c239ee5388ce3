// Package nutrition models meals, daily targets and the target calculator.
package nutrition

import (
	"slices"
	"time"
)

// MealType is the slot a meal was eaten in.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// DefaultTime returns the usual hour and minute for the slot.
func (t MealType) DefaultTime() (hour, minute int) {
	switch t {
	case Breakfast:
		return 8, 0
	case Lunch:
		return 12, 0
	case Dinner:
		return 18, 0
	case Snack:
		return 15, 0
	default:
		return 12, 0
	}
}

// FoodItem is one entry of a meal. Macros are in grams.
type FoodItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Calories     float64  `json:"calories"`
	Protein      float64  `json:"protein"`
	Carbs        float64  `json:"carbs"`
	Fats         float64  `json:"fats"`
	Portion      string   `json:"portion"`
	PortionGrams *float64 `json:"portionGrams,omitempty"`
}

// Macros sums calories and macro grams.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// Add returns the element-wise sum.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fats:     m.Fats + o.Fats,
	}
}

// Meal is a logged meal for one child.
type Meal struct {
	ID        string     `json:"id"`
	ChildID   string     `json:"childId"`
	Date      time.Time  `json:"date"`
	Type      MealType   `json:"mealType"`
	PhotoURLs []string   `json:"photoURLs"`
	Foods     []FoodItem `json:"foods"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (m Meal) TotalCalories() float64 { return m.Totals().Calories }
func (m Meal) TotalProtein() float64  { return m.Totals().Protein }
func (m Meal) TotalCarbs() float64    { return m.Totals().Carbs }
func (m Meal) TotalFats() float64     { return m.Totals().Fats }

// Totals sums every food in the meal.
func (m Meal) Totals() Macros {
	var t Macros
	for _, f := range m.Foods {
		t = t.Add(Macros{Calories: f.Calories, Protein: f.Protein, Carbs: f.Carbs, Fats: f.Fats})
	}
	return t
}

// Clone returns a copy that shares no slices with m.
func (m Meal) Clone() Meal {
	m.PhotoURLs = slices.Clone(m.PhotoURLs)
	if m.Foods != nil {
		foods := make([]FoodItem, len(m.Foods))
		for i, f := range m.Foods {
			if f.PortionGrams != nil {
				g := *f.PortionGrams
				f.PortionGrams = &g
			}
			foods[i] = f
		}
		m.Foods = foods
	}
	return m
}

// SumMeals totals a set of meals.
func SumMeals(meals []Meal) Macros {
	var t Macros
	for _, m := range meals {
		t = t.Add(m.Totals())
	}
	return t
}
