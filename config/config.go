package config

import (
	"fmt"
	"os"
)

// Configuration holds every environment-backed setting the bot needs.
type Configuration struct {
	Token                 string
	DatabaseURL           string
	AdminServerID         string
	AdminServerLogChannel string
	SuperuserID           string
	ScreenshotDir         string
	SentryDSN             string
}

// Load reads the configuration from the environment. Call godotenv.Load
// before this if a .env file should be picked up.
func Load() (*Configuration, error) {
	c := &Configuration{
		Token:                 os.Getenv("DISCORD_BOT_TOKEN"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		AdminServerID:         os.Getenv("ADMIN_SERVER_ID"),
		AdminServerLogChannel: os.Getenv("ADMIN_SERVER_LOG_CHANNEL"),
		SuperuserID:           os.Getenv("SUPERUSER"),
		ScreenshotDir:         os.Getenv("SCREENSHOT_DIR"),
		SentryDSN:             os.Getenv("SENTRY_DSN"),
	}

	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "screenshots"
	}

	required := map[string]string{
		"DISCORD_BOT_TOKEN":        c.Token,
		"DATABASE_URL":             c.DatabaseURL,
		"ADMIN_SERVER_ID":          c.AdminServerID,
		"ADMIN_SERVER_LOG_CHANNEL": c.AdminServerLogChannel,
	}

	for key, value := range required {
		if value == "" {
			return nil, fmt.Errorf("missing value for key: %s", key)
		}
	}

	return c, nil
}
