package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles with per-family rollout and overrides.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// familyOverrides maps family id -> feature -> enabled.
	familyOverrides map[string]map[string]bool
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100). Families are bucketed by a hash of their id.
	RolloutPercent int

	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	FamilyID string
}

// Predefined feature flag names.
const (
	// Levels beyond 20 are granted every 2000 points after the last threshold.
	FeatureLevelsExtended = "levels.extended"

	// Report the same adult assigned to overlapping classes of different children.
	FeatureConflictsParentDoubleBooking = "conflicts.parent_double_booking"

	// Award the daily nutrition bonus when a logged meal brings the day to 90% of target.
	FeatureNutritionDailyBonus = "nutrition.daily_bonus"

	// Unlock goal and nutrition achievements from their triggers. Points
	// thresholds are always evaluated.
	FeatureExtendedTriggers = "gamification.extended_triggers"
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := NewFeatureFlags()
	ff.loadFromEnvironment()
	return ff
}

// NewFeatureFlags returns the registry with default values only.
func NewFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:        make(map[string]*Feature),
		familyOverrides: make(map[string]map[string]bool),
	}
	ff.initializeDefaults()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureLevelsExtended] = &Feature{
		Name:           FeatureLevelsExtended,
		Description:    "Extend the level curve past level 20",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureConflictsParentDoubleBooking] = &Feature{
		Name:           FeatureConflictsParentDoubleBooking,
		Description:    "Detect adults assigned to overlapping classes",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNutritionDailyBonus] = &Feature{
		Name:           FeatureNutritionDailyBonus,
		Description:    "Award points for meeting the daily nutrition target",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureExtendedTriggers] = &Feature{
		Name:           FeatureExtendedTriggers,
		Description:    "Unlock goal and nutrition achievements automatically",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_LEVELS_EXTENDED=true
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		val := os.Getenv(featureNameToEnvKey(name))
		if val == "" {
			continue
		}
		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}
		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "levels.extended" -> "FEATURE_LEVELS_EXTENDED"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
// A nil context evaluates the global setting only.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if ctx != nil && ctx.FamilyID != "" {
		if overrides, ok := ff.familyOverrides[ctx.FamilyID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok || !feature.Enabled {
		return false
	}

	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	if feature.RolloutPercent < 100 && ctx != nil && ctx.FamilyID != "" {
		return inRollout(ctx.FamilyID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// Enabled is IsEnabled without a family context.
func (ff *FeatureFlags) Enabled(featureName string) bool {
	return ff.IsEnabled(featureName, nil)
}

// inRollout buckets a family consistently so it stays in or out across restarts.
func inRollout(familyID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(familyID))
	return int(h.Sum32()%100) < percent
}

// SetFamilyOverride forces a feature on or off for one family.
func (ff *FeatureFlags) SetFamilyOverride(familyID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.familyOverrides[familyID]; !ok {
		ff.familyOverrides[familyID] = make(map[string]bool)
	}
	ff.familyOverrides[familyID][featureName] = enabled
}

// ClearFamilyOverrides removes all overrides for a family.
func (ff *FeatureFlags) ClearFamilyOverrides(familyID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.familyOverrides, familyID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0
	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
