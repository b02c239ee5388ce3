package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "champtrack-hub", cfg.App.Name)
	assert.Equal(t, time.UTC, cfg.App.Location)
	assert.Equal(t, BonusOncePerDay, cfg.Gamification.NutritionBonusPolicy)
	assert.Equal(t, 15, cfg.Gamification.NutritionBonusPoints)
	assert.False(t, cfg.Gamification.ExtendedLevels)
	assert.Equal(t, 5, cfg.Outbox.MaxAttempts)
	assert.Equal(t, 0.2, cfg.Outbox.Jitter)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Europe/Berlin")
	t.Setenv("GAMIFICATION_NUTRITION_BONUS_POLICY", "every_meal")
	t.Setenv("FEATURE_LEVELS_EXTENDED", "true")
	t.Setenv("OUTBOX_INITIAL_BACKOFF", "1s")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "champ")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", cfg.App.Timezone)
	assert.Equal(t, BonusEveryMeal, cfg.Gamification.NutritionBonusPolicy)
	assert.True(t, cfg.Gamification.ExtendedLevels)
	assert.Equal(t, time.Second, cfg.Outbox.InitialBackoff)
	assert.Equal(t, "postgres://champ:secret@db:5432/champtrack?sslmode=disable", cfg.Database.URL)
}

func TestFromEnv_RejectsUnknownBonusPolicy(t *testing.T) {
	t.Setenv("GAMIFICATION_NUTRITION_BONUS_POLICY", "hourly")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GAMIFICATION_NUTRITION_BONUS_POLICY")
}

func TestFromEnv_OutboxJitter(t *testing.T) {
	t.Setenv("OUTBOX_JITTER", "0.5")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Outbox.Jitter)

	t.Setenv("OUTBOX_JITTER", "1.5")
	_, err = FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OUTBOX_JITTER")
}

func TestFromEnv_WorkerDigestTime(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	h, m, err := cfg.Worker.DigestClock()
	require.NoError(t, err)
	assert.Equal(t, 19, h)
	assert.Equal(t, 0, m)

	t.Setenv("WORKER_DIGEST_TIME", "7pm")
	_, err = FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKER_DIGEST_TIME")
}

func TestFromEnv_HTTP(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.HTTP.Enabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Address())

	t.Setenv("HTTP_PORT", "70000")
	_, err = FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT")

	t.Setenv("HTTP_ENABLED", "false")
	_, err = FromEnv()
	require.NoError(t, err)
}

func TestFromEnv_ProductionNeedsDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestFeatureFlags(t *testing.T) {
	ff := NewFeatureFlags()

	assert.False(t, ff.Enabled(FeatureLevelsExtended))
	assert.True(t, ff.Enabled(FeatureNutritionDailyBonus))
	assert.False(t, ff.Enabled("unknown.flag"))

	ff.SetFamilyOverride("fam-1", FeatureLevelsExtended, true)
	assert.True(t, ff.IsEnabled(FeatureLevelsExtended, &FeatureContext{FamilyID: "fam-1"}))
	assert.False(t, ff.IsEnabled(FeatureLevelsExtended, &FeatureContext{FamilyID: "fam-2"}))

	ff.ClearFamilyOverrides("fam-1")
	assert.False(t, ff.IsEnabled(FeatureLevelsExtended, &FeatureContext{FamilyID: "fam-1"}))

	require.NoError(t, ff.DisableFeature(FeatureNutritionDailyBonus))
	assert.False(t, ff.Enabled(FeatureNutritionDailyBonus))

	assert.ErrorIs(t, ff.SetRolloutPercent("unknown.flag", 10), ErrFeatureNotFound)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureLevelsExtended, 101), ErrInvalidRolloutPercent)
}

func TestFeatureFlags_RolloutIsStable(t *testing.T) {
	ff := NewFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureLevelsExtended, 50))

	ctx := &FeatureContext{FamilyID: "family-42"}
	first := ff.IsEnabled(FeatureLevelsExtended, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureLevelsExtended, ctx))
	}
}

func TestFeatureNameToEnvKey(t *testing.T) {
	assert.Equal(t, "FEATURE_CONFLICTS_PARENT_DOUBLE_BOOKING", featureNameToEnvKey(FeatureConflictsParentDoubleBooking))
}
