package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.HTTPPort)
	assert.Equal(t, 5, cfg.Quota.DailyFree)
	assert.Equal(t, 15, cfg.Quota.DailyBoosted)
	assert.Equal(t, time.Hour, cfg.Scheduler.SweepInterval)
	assert.InDelta(t, 0.25, cfg.Matching.WeightSkills, 1e-9)
	assert.Equal(t, time.UTC, cfg.Quota.Location())

	h, m, err := cfg.Scheduler.MatchGenerationTime()
	require.NoError(t, err)
	assert.Equal(t, uint(2), h)
	assert.Equal(t, uint(0), m)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsWeightsNotSummingToOne(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "test-secret")
	t.Setenv("MATCH_WEIGHT_SKILLS", "0.5")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, errInvalidConfig)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

func TestValidate_CollectsProblems(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "test-secret")
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Matching.TierGood = 0.4
	cfg.Quota.Timezone = "Mars/Olympus"
	cfg.Scheduler.MatchGenerationAt = "25:00"
	cfg.App.HTTPPort = "0"

	err = cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"thresholds", "QUOTA_TIMEZONE", "MATCH_GENERATION_AT", "HTTP_PORT"} {
		assert.Contains(t, err.Error(), want)
	}
}
