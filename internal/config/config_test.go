package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SEASON", "SEASON_TYPE", "CACHE_TTL", "MAX_RETRIES", "ENABLE_DAILY_BUILD"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "2024-25", cfg.Season)
	assert.Equal(t, "Regular Season", cfg.SeasonType)
	assert.Equal(t, 6*time.Hour, cfg.NBAStats.CacheTTL)
	assert.Equal(t, 3, cfg.NBAStats.MaxRetries)
	assert.True(t, cfg.EnableDailyBuild)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SEASON", "2023-24")
	t.Setenv("SEASON_TYPE", "playoffs")
	t.Setenv("CACHE_TTL", "15m")
	t.Setenv("REQUESTS_PER_SECOND", "2")
	t.Setenv("ENABLE_DAILY_BUILD", "false")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "2023-24", cfg.Season)
	assert.Equal(t, "Playoffs", cfg.SeasonType)
	assert.Equal(t, 15*time.Minute, cfg.NBAStats.CacheTTL)
	assert.Equal(t, 2.0, cfg.NBAStats.RequestsPerSecond)
	assert.False(t, cfg.EnableDailyBuild)
	assert.Equal(t, 3, cfg.NBAStats.MaxRetries)
}

func TestValidate_Rejects(t *testing.T) {
	cfg := &Config{Season: "2024", SeasonType: "Regular Season"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Season: "2024-25", SeasonType: "Summer League"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Season: "2024-25", SeasonType: "Regular Season", DailyBuildHour: 24}
	assert.Error(t, cfg.Validate())
}
