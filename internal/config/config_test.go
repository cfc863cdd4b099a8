package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SQLITE_PATH", "HTTP_ADDR", "LEADERBOARD_TIMEZONE", "LEADERBOARD_CACHE_TTL", "DAILY_MAX_CO2", "WA_ENABLED", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "./data/ecotrace.db", cfg.SQLitePath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Zero(t, cfg.CacheTTL)
	assert.True(t, cfg.WAEnabled)
	assert.Equal(t, 100.0, cfg.Limits().MaxDailyCo2)
	assert.Equal(t, 2000.0, cfg.Limits().MaxDailyWater)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("LEADERBOARD_TIMEZONE", "Europe/Vienna")
	t.Setenv("LEADERBOARD_CACHE_TTL", "30s")
	t.Setenv("DAILY_MAX_CO2", "55.5")
	t.Setenv("WA_ENABLED", "false")
	t.Setenv("FETCH_CONCURRENCY", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://eco.example.org,")

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 55.5, cfg.Limits().MaxDailyCo2)
	assert.False(t, cfg.WAEnabled)
	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, []string{"http://localhost:5173", "https://eco.example.org"}, cfg.CORSOrigins)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Vienna", loc.String())
}

func TestLocation_Invalid(t *testing.T) {
	_, err := Config{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
