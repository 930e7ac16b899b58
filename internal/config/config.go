// Package config loads the process configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config is everything the bot process needs to start.
type Config struct {
	// GeminiAPIKey authenticates against the generative model API.
	GeminiAPIKey string
	// DatabaseURL is the Postgres connection string.
	DatabaseURL string
	// WebhookSecret authenticates the chat transport adapter. Empty
	// disables the check.
	WebhookSecret string
	// Port the HTTP server listens on.
	Port string
	// DashboardURL is the web dashboard origin; empty disables /dashboard.
	DashboardURL string
	// DashboardSecret signs dashboard auth tokens.
	DashboardSecret string
	// MediaBucket is the GCS bucket for raw media; empty disables archival.
	MediaBucket string
}

// Load reads the configuration. A missing .env file is not an error; the
// environment always wins over file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		WebhookSecret:   os.Getenv("WEBHOOK_SECRET"),
		Port:            os.Getenv("PORT"),
		DashboardURL:    os.Getenv("DASHBOARD_URL"),
		DashboardSecret: os.Getenv("DASHBOARD_SECRET_KEY"),
		MediaBucket:     os.Getenv("MEDIA_BUCKET"),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("config: GEMINI_API_KEY is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.DashboardURL != "" && c.DashboardSecret == "" {
		return fmt.Errorf("config: DASHBOARD_SECRET_KEY is required when DASHBOARD_URL is set")
	}
	return nil
}
