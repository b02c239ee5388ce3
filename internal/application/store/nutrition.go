package store

import (
	"slices"
	"time"

	"github.com/champtrack/champtrack-hub/config"
	"github.com/champtrack/champtrack-hub/internal/domain/child"
	"github.com/champtrack/champtrack-hub/internal/domain/nutrition"
	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/logger"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

// TargetMetRatio is the share of the calorie and protein targets a day must
// reach to count as met.
const TargetMetRatio = 0.9

// ══════════════════════════════════════════════════════════════════════════════
// MEALS
// ══════════════════════════════════════════════════════════════════════════════

// AddMeal logs a meal and pays the daily nutrition bonus when the day now
// meets the child's target.
func (s *Store) AddMeal(m nutrition.Meal) nutrition.Meal {
	s.lock()
	defer s.unlock()

	now := s.now()
	m = m.Clone()
	m.ID = s.ensureID(m.ID)
	m.Date = orNow(m.Date, now)
	m.CreatedAt = orNow(m.CreatedAt, now)

	s.meals = append(s.meals, m)
	s.save(s.familyID(m.ChildID), m)
	s.checkNutritionGoal(m, nil)
	s.evaluateAchievements(m.ChildID)
	return m.Clone()
}

// UpdateMeal replaces a meal. The bonus is paid when the edit brings its
// day to target for the first time.
func (s *Store) UpdateMeal(m nutrition.Meal) {
	s.lock()
	defer s.unlock()

	i := s.mealIndex(m.ID)
	if i < 0 {
		return
	}
	previous := s.meals[i]
	s.meals[i] = m.Clone()
	s.save(s.familyID(m.ChildID), m)
	s.checkNutritionGoal(m, &previous)
	s.evaluateAchievements(m.ChildID)
}

func (s *Store) DeleteMeal(id string) {
	s.lock()
	defer s.unlock()

	i := s.mealIndex(id)
	if i < 0 {
		return
	}
	m := s.meals[i]
	s.meals = slices.Delete(s.meals, i, i+1)
	s.remove(s.familyID(m.ChildID), m)
}

// GetMeals returns a child's meals on the calendar day of date.
func (s *Store) GetMeals(childID string, date time.Time) []nutrition.Meal {
	s.lock()
	defer s.unlock()

	return s.mealsOn(childID, date)
}

// GetDailyNutrition sums a child's meals on the calendar day of date.
func (s *Store) GetDailyNutrition(childID string, date time.Time) nutrition.Macros {
	s.lock()
	defer s.unlock()

	return nutrition.SumMeals(s.mealsOn(childID, date))
}

func (s *Store) mealsOn(childID string, date time.Time) []nutrition.Meal {
	return filter(s.meals, func(m nutrition.Meal) bool {
		return m.ChildID == childID && timeutil.IsSameDay(m.Date, date, s.loc)
	}, nutrition.Meal.Clone)
}

// checkNutritionGoal pays the bonus for the day of m. Under once_per_day the
// bonus is paid only by the meal that first brings the day to target.
// previous is the replaced version of m when m is an edit; edits pay only
// on that first crossing whatever the policy.
func (s *Store) checkNutritionGoal(m nutrition.Meal, previous *nutrition.Meal) {
	if !s.enabled(config.FeatureNutritionDailyBonus) {
		return
	}
	target, ok := s.targets[m.ChildID]
	if !ok {
		return
	}

	daily := nutrition.SumMeals(s.mealsOn(m.ChildID, m.Date))
	if !target.Met(daily, TargetMetRatio) {
		return
	}
	if previous != nil || s.bonusPolicy != config.BonusEveryMeal {
		before := nutrition.Macros{
			Calories: daily.Calories - m.TotalCalories(),
			Protein:  daily.Protein - m.TotalProtein(),
		}
		if previous != nil && previous.ChildID == m.ChildID && timeutil.IsSameDay(previous.Date, m.Date, s.loc) {
			before.Calories += previous.TotalCalories()
			before.Protein += previous.TotalProtein()
		}
		if target.Met(before, TargetMetRatio) {
			return
		}
	}

	day := timeutil.DayKey(m.Date, s.loc)
	s.raise(shared.NewNutritionGoalMetEvent(m.ChildID, day, daily.Calories, daily.Protein, s.now()))
	s.log.Info("daily nutrition goal met", logger.ChildID(m.ChildID), logger.String("day", day))
	s.awardPoints(m.ChildID, s.bonusPoints, "nutrition")
}

// nutritionDays counts the distinct days on which the child's meals meet
// the current target.
func (s *Store) nutritionDays(childID string) int {
	target, ok := s.targets[childID]
	if !ok {
		return 0
	}
	totals := make(map[string]nutrition.Macros)
	for _, m := range s.meals {
		if m.ChildID != childID {
			continue
		}
		key := timeutil.DayKey(m.Date, s.loc)
		totals[key] = totals[key].Add(m.Totals())
	}
	days := 0
	for _, t := range totals {
		if target.Met(t, TargetMetRatio) {
			days++
		}
	}
	return days
}

// ══════════════════════════════════════════════════════════════════════════════
// TARGETS
// ══════════════════════════════════════════════════════════════════════════════

// SetNutritionTarget stores a manual target. Automatic recomputation never
// replaces it.
func (s *Store) SetNutritionTarget(t nutrition.Target) nutrition.Target {
	s.lock()
	defer s.unlock()

	now := s.now()
	if existing, ok := s.targets[t.ChildID]; ok && t.ID == "" {
		t.ID = existing.ID
	}
	t.ID = s.ensureID(t.ID)
	t.IsAutoCalculated = false
	t.Date = orNow(t.Date, now)
	t.UpdatedAt = now

	s.targets[t.ChildID] = t
	s.save(s.familyID(t.ChildID), t)
	return t
}

// GetNutritionTarget returns the child's current target.
func (s *Store) GetNutritionTarget(childID string) (nutrition.Target, bool) {
	s.lock()
	defer s.unlock()

	t, ok := s.targets[childID]
	return t, ok
}

// recomputeTarget recalculates an automatic target from the child's
// biometrics and this week's scheduled classes.
func (s *Store) recomputeTarget(childID string) {
	i := s.childIndex(childID)
	if i < 0 {
		return
	}
	existing, ok := s.targets[childID]
	if ok && !existing.IsAutoCalculated {
		return
	}

	now := s.now()
	c := s.children[i]
	level := nutrition.ActivityLevelForSessions(s.sessionsThisWeek(childID, now))
	t := nutrition.CalculateTarget(biometrics(c, now), level, now)
	t.ID = existing.ID
	if t.ID == "" {
		t.ID = s.newID()
	}

	s.targets[childID] = t
	s.save(s.familyID(childID), t)
}

func (s *Store) sessionsThisWeek(childID string, now time.Time) int {
	start := timeutil.StartOfWeek(now, s.loc)
	end := start.AddDate(0, 0, 7)
	n := 0
	for _, c := range s.classes {
		if c.ChildID == childID && c.Status == schedule.StatusScheduled &&
			!c.StartsAt.Before(start) && c.StartsAt.Before(end) {
			n++
		}
	}
	return n
}

// biometrics maps a child onto calculator input. Gender other uses the
// female coefficients.
func biometrics(c child.Child, now time.Time) nutrition.Biometrics {
	sex := nutrition.Female
	if c.Gender == child.GenderMale {
		sex = nutrition.Male
	}
	return nutrition.Biometrics{
		ChildID:  c.ID,
		Sex:      sex,
		WeightKg: c.WeightKg,
		HeightCm: c.HeightCm,
		AgeYears: c.AgeAt(now),
	}
}
