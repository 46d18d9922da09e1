package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("DAILY_POINTS", "")
	t.Setenv("RENAME_COOLDOWN", "")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, int64(7500), cfg.DailyPoints)
	assert.Equal(t, 5*time.Minute, cfg.RenameCooldown)
	assert.Equal(t, 4, cfg.StoreRefreshesPerDay)
	assert.Equal(t, 15*time.Second, cfg.BlackjackJoinWindow)
	assert.Equal(t, 30*time.Second, cfg.BlackjackTurnTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0, cfg.DailyResetHour)
	assert.Equal(t, 4, cfg.ThemeSortHour)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("DAILY_POINTS", "100")
	t.Setenv("RENAME_COOLDOWN", "90s")
	t.Setenv("NATS_ENABLED", "true")
	t.Setenv("STORE_REFRESHES_PER_DAY", "6")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, int64(100), cfg.DailyPoints)
	assert.Equal(t, 90*time.Second, cfg.RenameCooldown)
	assert.True(t, cfg.NATSEnabled)
	assert.Equal(t, 6, cfg.StoreRefreshesPerDay)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("DAILY_POINTS", "lots")
	t.Setenv("RENAME_COOLDOWN", "soon")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, int64(7500), cfg.DailyPoints)
	assert.Equal(t, 5*time.Minute, cfg.RenameCooldown)
}

func TestLoad_RequiresTokenOutsideTest(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DATABASE_URL", "postgres://localhost")

	_, err := load()
	assert.Error(t, err)
}

func TestLoad_RejectsZeroRefreshes(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("STORE_REFRESHES_PER_DAY", "0")

	_, err := load()
	assert.Error(t, err)
}

func TestLoad_RejectsBadScheduleHours(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("THEME_SORT_HOUR", "24")

	_, err := load()
	assert.Error(t, err)

	t.Setenv("THEME_SORT_HOUR", "")
	t.Setenv("THEME_SORT_MINUTE", "75")
	_, err = load()
	assert.Error(t, err)
}

func TestSetTestConfig(t *testing.T) {
	defer ResetConfig()

	cfg := NewTestConfig()
	cfg.DailyPoints = 42
	SetTestConfig(cfg)

	assert.Equal(t, int64(42), Get().DailyPoints)
}
