package gamification

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ach-%d", n)
	}
}

func TestLevelFor(t *testing.T) {
	c := NewLevelCurve()

	cases := []struct {
		points int
		level  int
	}{
		{-50, 1}, {0, 1}, {99, 1}, {100, 2}, {249, 2}, {250, 3},
		{350, 3}, {500, 4}, {17299, 19}, {17300, 20}, {1_000_000, 20},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, c.LevelFor(tc.points), "points=%d", tc.points)
	}
}

func TestLevelFor_Monotonic(t *testing.T) {
	for _, c := range []LevelCurve{NewLevelCurve(), NewLevelCurve(WithExtrapolation())} {
		prev := c.LevelFor(0)
		for p := 0; p <= 40000; p += 7 {
			l := c.LevelFor(p)
			require.GreaterOrEqual(t, l, prev, "points=%d", p)
			prev = l
		}
	}
}

func TestLevelFor_Extended(t *testing.T) {
	c := NewLevelCurve(WithExtrapolation())

	assert.Equal(t, 20, c.LevelFor(19299))
	assert.Equal(t, 21, c.LevelFor(19300))
	assert.Equal(t, 22, c.LevelFor(21300))
	assert.Equal(t, 0, c.MaxLevel())
	assert.Equal(t, 20, NewLevelCurve().MaxLevel())
}

func TestPointsToNextLevel(t *testing.T) {
	c := NewLevelCurve()

	assert.Equal(t, 100, c.PointsToNextLevel(0))
	assert.Equal(t, 70, c.PointsToNextLevel(30))
	assert.Equal(t, 150, c.PointsToNextLevel(350))
	assert.Equal(t, 1, c.PointsToNextLevel(17299))
	assert.Equal(t, 0, c.PointsToNextLevel(17300))

	ext := NewLevelCurve(WithExtrapolation())
	assert.Equal(t, 2000, ext.PointsToNextLevel(17300))
	assert.Equal(t, 1500, ext.PointsToNextLevel(19800))
}

func TestThreshold(t *testing.T) {
	c := NewLevelCurve()

	p, ok := c.Threshold(1)
	assert.True(t, ok)
	assert.Equal(t, 0, p)

	_, ok = c.Threshold(0)
	assert.False(t, ok)

	_, ok = c.Threshold(21)
	assert.False(t, ok)

	p, ok = NewLevelCurve(WithExtrapolation()).Threshold(23)
	assert.True(t, ok)
	assert.Equal(t, 23300, p)
}

func TestLevelTitle(t *testing.T) {
	assert.Equal(t, "Rookie", LevelTitle(1))
	assert.Equal(t, "Rookie", LevelTitle(5))
	assert.Equal(t, "Rising Star", LevelTitle(6))
	assert.Equal(t, "Rising Star", LevelTitle(10))
	assert.Equal(t, "Champion", LevelTitle(11))
	assert.Equal(t, "Champion", LevelTitle(20))
	assert.Equal(t, "Legend", LevelTitle(21))
}

func TestTemplates_Catalog(t *testing.T) {
	templates := Templates()
	require.Len(t, templates, 8)

	titles := make([]string, len(templates))
	for i, tpl := range templates {
		titles[i] = tpl.Title
	}
	assert.Equal(t, []string{
		"First Goal", "Perfect Attendance", "Week Warrior", "Month Master",
		"Nutrition Ninja", "Hydration Hero", "Century Club", "Goal Crusher",
	}, titles)

	century := templates[6]
	assert.Equal(t, PointsThreshold(100), century.Trigger)
	assert.Equal(t, 25, century.Points)
	assert.Equal(t, TierBronze, century.Tier)

	categories := map[Category]bool{}
	for _, tpl := range templates {
		categories[tpl.Category] = true
	}
	assert.Len(t, categories, 4)
}

func TestInstantiate(t *testing.T) {
	achievements := Instantiate("child-1", Templates(), sequentialIDs(), now)

	require.Len(t, achievements, 8)
	for i, a := range achievements {
		assert.Equal(t, fmt.Sprintf("ach-%d", i+1), a.ID)
		assert.Equal(t, "child-1", a.ChildID)
		assert.False(t, a.IsUnlocked)
		assert.Nil(t, a.EarnedAt)
		assert.Equal(t, now, a.CreatedAt)
	}
	assert.Equal(t, 100.0, *achievements[6].Requirement)

	// A second call is not guarded and duplicates the catalog.
	again := Instantiate("child-1", Templates(), sequentialIDs(), now)
	assert.Len(t, append(achievements, again...), 16)
}

func TestEvaluate(t *testing.T) {
	achievements := Instantiate("c", Templates(), sequentialIDs(), now)

	assert.Empty(t, Evaluate(achievements, Progress{TotalPoints: 99}))

	ids := Evaluate(achievements, Progress{TotalPoints: 100, GoalsCompleted: 1})
	assert.Equal(t, []string{"ach-1", "ach-7"}, ids)

	achievements[6].Unlock(now)
	ids = Evaluate(achievements, Progress{TotalPoints: 5000, GoalsCompleted: 10, NutritionDays: 7})
	assert.Equal(t, []string{"ach-1", "ach-5", "ach-8"}, ids)
}

func TestTrigger_ManualNeverSatisfied(t *testing.T) {
	assert.False(t, Manual().Satisfied(Progress{TotalPoints: 1 << 30}))
	assert.False(t, Trigger{}.Satisfied(Progress{TotalPoints: 1 << 30}))
	assert.False(t, Manual().IsAutomatic())
	assert.True(t, PointsThreshold(1).IsAutomatic())
}

func TestAchievement_UnlockIsIdempotent(t *testing.T) {
	a := Instantiate("c", Templates()[:1], sequentialIDs(), now)[0]

	assert.True(t, a.Unlock(now))
	assert.False(t, a.Unlock(now.Add(time.Hour)))
	assert.Equal(t, now, *a.EarnedAt)
	assert.Equal(t, 100.0, a.ProgressPercentage())
}

func TestAchievement_Track(t *testing.T) {
	a := Instantiate("c", Templates()[6:7], sequentialIDs(), now)[0]

	a.Track(Progress{TotalPoints: 40})
	assert.Equal(t, 40.0, *a.Progress)
	assert.InDelta(t, 40.0, a.ProgressPercentage(), 1e-9)

	a.Track(Progress{TotalPoints: 400})
	assert.Equal(t, 100.0, *a.Progress)

	manual := Instantiate("c", Templates()[1:2], sequentialIDs(), now)[0]
	manual.Track(Progress{TotalPoints: 400})
	assert.Nil(t, manual.Progress)
	assert.Equal(t, 0.0, manual.ProgressPercentage())
}

func TestTierColor(t *testing.T) {
	assert.Equal(t, "CD7F32", TierBronze.ColorHex())
	assert.Equal(t, "C0C0C0", TierSilver.ColorHex())
	assert.Equal(t, "FFD700", TierGold.ColorHex())
}
