package store

import (
	"slices"
	"time"

	"github.com/champtrack/champtrack-hub/internal/domain/child"
	"github.com/champtrack/champtrack-hub/internal/domain/goal"
	"github.com/champtrack/champtrack-hub/internal/domain/nutrition"
	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

// Demo holds the ids of the seeded demo family.
type Demo struct {
	FamilyID string
	EmmaID   string
	JakeID   string
}

// SeedDemo fills the store with the Smith family: two children, three
// sports, classes over the next three days, three goals and a breakfast.
func (s *Store) SeedDemo() Demo {
	f := s.CreateFamily("Smith Family", "user1")
	s.lock()
	s.family.Members = append(s.family.Members, "user2")
	s.patch(f.ID, *s.family, map[string]any{"members": slices.Clone(s.family.Members)})
	s.unlock()

	now := s.now()
	emma := s.AddChild(child.Child{
		FamilyID:    f.ID,
		FirstName:   "Emma",
		LastName:    "Smith",
		DateOfBirth: now.AddDate(-10, 0, 0),
		Gender:      child.GenderFemale,
		WeightKg:    32,
		HeightCm:    140,
		TotalPoints: 350,
	})
	jake := s.AddChild(child.Child{
		FamilyID:    f.ID,
		FirstName:   "Jake",
		LastName:    "Smith",
		DateOfBirth: now.AddDate(-8, 0, 0),
		Gender:      child.GenderMale,
		WeightKg:    28,
		HeightCm:    125,
		TotalPoints: 180,
	})

	// Emma earned First Goal before the demo starts; no points are paid.
	s.lock()
	for i := range s.achievements {
		a := &s.achievements[i]
		if a.ChildID == emma.ID && a.Title == "First Goal" {
			a.Unlock(now.AddDate(0, 0, -5))
			s.save(f.ID, *a)
			break
		}
	}
	s.unlock()

	soccer := s.AddSport(schedule.Sport{
		ChildID: emma.ID, FamilyID: f.ID, Name: "Soccer", TeamName: "Lightning Strikers",
		CoachName: "Coach Williams", CoachContact: "555-1234", Location: "City Sports Complex", IsActive: true,
	})
	swimming := s.AddSport(schedule.Sport{
		ChildID: emma.ID, FamilyID: f.ID, Name: "Swimming", TeamName: "Dolphins Swim Club",
		CoachName: "Coach Miller", Location: "Community Pool", IsActive: true,
	})
	basketball := s.AddSport(schedule.Sport{
		ChildID: jake.ID, FamilyID: f.ID, Name: "Basketball", TeamName: "Junior Hawks",
		CoachName: "Coach Johnson", Location: "Elementary School Gym", IsActive: true,
	})

	at := func(days, hour, minute int) time.Time {
		d := timeutil.StartOfDay(now, s.loc).AddDate(0, 0, days)
		return d.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	}
	user1, user2 := "user1", "user2"

	s.AddClass(schedule.Class{
		SportID:         soccer.ID,
		ChildID:         emma.ID,
		FamilyID:        f.ID,
		Type:            schedule.ClassPractice,
		StartsAt:        at(1, 16, 0),
		DurationMinutes: 90,
		Location:        &schedule.Location{Name: "City Sports Complex", Address: "123 Sports Ave"},
		DropoffAssignee: &user1,
		PickupAssignee:  &user2,
	})
	s.AddClass(schedule.Class{
		SportID:         swimming.ID,
		ChildID:         emma.ID,
		FamilyID:        f.ID,
		Type:            schedule.ClassTraining,
		StartsAt:        at(2, 17, 30),
		DurationMinutes: 60,
		Location:        &schedule.Location{Name: "Community Pool", Address: "456 Pool Lane"},
		DropoffAssignee: &user1,
	})
	s.AddClass(schedule.Class{
		SportID:         basketball.ID,
		ChildID:         jake.ID,
		FamilyID:        f.ID,
		Type:            schedule.ClassGame,
		StartsAt:        at(3, 10, 0),
		DurationMinutes: 60,
		Location:        &schedule.Location{Name: "Elementary School Gym", Address: "789 School St"},
	})

	s.AddGoal(goal.Goal{
		ChildID: emma.ID, FamilyID: f.ID, Type: goal.TypeSports, Title: "Score 5 Goals",
		Description: "Score 5 goals during soccer games this season",
		TargetValue: 5, CurrentValue: 3, Unit: "goals", StartDate: now, EndDate: now.AddDate(0, 2, 0),
		Priority: goal.PriorityHigh, RelatedSportID: soccer.ID, PointsReward: 150,
	})
	s.AddGoal(goal.Goal{
		ChildID: emma.ID, FamilyID: f.ID, Type: goal.TypeAttendance, Title: "Perfect Attendance",
		Description: "Attend all swim practices this month",
		TargetValue: 8, CurrentValue: 5, Unit: "sessions", StartDate: now, EndDate: now.AddDate(0, 1, 0),
		Priority: goal.PriorityMedium, RelatedSportID: swimming.ID, PointsReward: 100,
	})
	s.AddGoal(goal.Goal{
		ChildID: jake.ID, FamilyID: f.ID, Type: goal.TypeNutrition, Title: "Hydration Hero",
		Description: "Drink 6 glasses of water every day for a week",
		TargetValue: 7, CurrentValue: 4, Unit: "days", StartDate: now, EndDate: now.AddDate(0, 0, 10),
		Priority: goal.PriorityMedium, PointsReward: 75,
	})

	s.AddMeal(nutrition.Meal{
		ChildID: emma.ID, Date: now, Type: nutrition.Breakfast,
		Foods: []nutrition.FoodItem{
			{ID: s.newID(), Name: "Oatmeal", Calories: 150, Protein: 5, Carbs: 27, Fats: 3, Portion: "1 serving"},
			{ID: s.newID(), Name: "Banana", Calories: 105, Protein: 1, Carbs: 27, Fats: 0, Portion: "1 serving"},
			{ID: s.newID(), Name: "Milk", Calories: 100, Protein: 8, Carbs: 12, Fats: 2, Portion: "1 serving"},
		},
	})

	return Demo{FamilyID: f.ID, EmmaID: emma.ID, JakeID: jake.ID}
}
