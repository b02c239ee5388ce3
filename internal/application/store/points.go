package store

import (
	"github.com/champtrack/champtrack-hub/config"
	"github.com/champtrack/champtrack-hub/internal/domain/gamification"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD PIPELINE
// points → level → achievement triggers → (unlock → points ...)
// The chain ends because an unlocked achievement is never evaluated again.
// ══════════════════════════════════════════════════════════════════════════════

// AwardPoints adds amount (which may be negative) to the child's total and
// re-derives the level and automatic achievements.
func (s *Store) AwardPoints(childID string, amount int) {
	s.lock()
	defer s.unlock()

	s.awardPoints(childID, amount, "manual")
}

func (s *Store) awardPoints(childID string, amount int, source string) {
	i := s.childIndex(childID)
	if i < 0 {
		return
	}
	now := s.now()
	c := &s.children[i]
	oldLevel := c.CurrentLevel
	c.TotalPoints += amount
	c.CurrentLevel = s.curve.LevelFor(c.TotalPoints)

	s.patch(s.familyID(childID), *c, map[string]any{
		"totalPoints":  c.TotalPoints,
		"currentLevel": c.CurrentLevel,
	})
	if amount != 0 {
		s.raise(shared.NewPointsAwardedEvent(childID, amount, c.TotalPoints, source, now))
		s.log.Debug("points awarded", logger.ChildID(childID), logger.Points(amount), logger.String("source", source))
	}
	if c.CurrentLevel != oldLevel {
		s.raise(shared.NewLevelUpEvent(childID, oldLevel, c.CurrentLevel, gamification.LevelTitle(c.CurrentLevel), now))
		s.log.Info("level changed", logger.ChildID(childID), logger.Int("level", c.CurrentLevel))
	}

	s.evaluateAchievements(childID)
}

// progress gathers the measures automatic triggers watch.
func (s *Store) progress(childID string) gamification.Progress {
	p := gamification.Progress{
		GoalsCompleted: s.goalsCompleted(childID),
		NutritionDays:  s.nutritionDays(childID),
	}
	if i := s.childIndex(childID); i >= 0 {
		p.TotalPoints = s.children[i].TotalPoints
	}
	return p
}

// evaluateAchievements refreshes progress on the child's locked achievements
// and unlocks those whose trigger is satisfied. Goal and nutrition triggers
// only run behind their feature flag.
func (s *Store) evaluateAchievements(childID string) {
	extended := s.enabled(config.FeatureExtendedTriggers)
	p := s.progress(childID)

	var owned []gamification.Achievement
	for i := range s.achievements {
		a := &s.achievements[i]
		if a.ChildID != childID {
			continue
		}
		if a.Trigger.Kind != gamification.TriggerPointsThreshold && !extended {
			continue
		}
		before := a.Progress
		a.Track(p)
		if changed(before, a.Progress) {
			s.patch(s.familyID(childID), *a, map[string]any{"progress": a.Progress})
		}
		owned = append(owned, *a)
	}

	for _, id := range gamification.Evaluate(owned, p) {
		s.unlockAchievement(id)
	}
}

func changed(a, b *float64) bool {
	if a == nil || b == nil {
		return a != b
	}
	return *a != *b
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// GenerateAchievements instantiates the full catalog for a child. AddChild
// already does this; calling it again duplicates the catalog.
func (s *Store) GenerateAchievements(childID string) []gamification.Achievement {
	s.lock()
	defer s.unlock()

	return s.generateAchievements(childID)
}

func (s *Store) generateAchievements(childID string) []gamification.Achievement {
	created := gamification.Instantiate(childID, gamification.Templates(), s.newID, s.now())
	s.achievements = append(s.achievements, created...)

	fid := s.familyID(childID)
	out := make([]gamification.Achievement, len(created))
	for i, a := range created {
		s.save(fid, a)
		out[i] = a.Clone()
	}
	return out
}

// UnlockAchievement unlocks an achievement and pays its points. Unlocking
// twice pays once.
func (s *Store) UnlockAchievement(id string) {
	s.lock()
	defer s.unlock()

	s.unlockAchievement(id)
}

func (s *Store) unlockAchievement(id string) {
	i := s.achievementIndex(id)
	if i < 0 {
		return
	}
	now := s.now()
	a := &s.achievements[i]
	if !a.Unlock(now) {
		return
	}

	done := a.Clone()
	s.patch(s.familyID(done.ChildID), done, map[string]any{
		"isUnlocked": true,
		"earnedDate": done.EarnedAt,
		"progress":   done.Progress,
	})
	s.raise(shared.NewAchievementUnlockedEvent(done.ChildID, done.ID, done.Title, done.PointsAwarded, now))
	s.log.Info("achievement unlocked", logger.ChildID(done.ChildID), logger.String("title", done.Title))
	s.awardPoints(done.ChildID, done.PointsAwarded, "achievement")
}

// GetAchievements returns a child's achievements in catalog order.
func (s *Store) GetAchievements(childID string) []gamification.Achievement {
	s.lock()
	defer s.unlock()

	return filter(s.achievements, func(a gamification.Achievement) bool {
		return a.ChildID == childID
	}, gamification.Achievement.Clone)
}

func (s *Store) GetUnlockedAchievements(childID string) []gamification.Achievement {
	s.lock()
	defer s.unlock()

	return filter(s.achievements, func(a gamification.Achievement) bool {
		return a.ChildID == childID && a.IsUnlocked
	}, gamification.Achievement.Clone)
}

// LevelInfo describes a child's position on the level curve.
type LevelInfo struct {
	Points            int    `json:"points"`
	Level             int    `json:"level"`
	Title             string `json:"title"`
	PointsToNextLevel int    `json:"pointsToNextLevel"`
}

// Level reports the child's level, title and distance to the next level.
func (s *Store) Level(childID string) (LevelInfo, bool) {
	s.lock()
	defer s.unlock()

	i := s.childIndex(childID)
	if i < 0 {
		return LevelInfo{}, false
	}
	c := s.children[i]
	return LevelInfo{
		Points:            c.TotalPoints,
		Level:             c.CurrentLevel,
		Title:             gamification.LevelTitle(c.CurrentLevel),
		PointsToNextLevel: s.curve.PointsToNextLevel(c.TotalPoints),
	}, true
}
