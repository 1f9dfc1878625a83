package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/janitor")
	t.Setenv("ADMIN_SERVER_ID", "admin")
	t.Setenv("ADMIN_SERVER_LOG_CHANNEL", "admin-log")
}

func TestLoad(t *testing.T) {
	setRequired(t)
	t.Setenv("SCREENSHOT_DIR", "proofs")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "token", cfg.Token)
	assert.Equal(t, "admin", cfg.AdminServerID)
	assert.Equal(t, "proofs", cfg.ScreenshotDir)
}

func TestLoadDefaultsScreenshotDir(t *testing.T) {
	setRequired(t)
	t.Setenv("SCREENSHOT_DIR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "screenshots", cfg.ScreenshotDir)
}

func TestLoadRequiresToken(t *testing.T) {
	setRequired(t)
	t.Setenv("DISCORD_BOT_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_BOT_TOKEN")
}
