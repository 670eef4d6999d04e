package config

import (
	"fmt"
	"os"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL        string
	Port               string
	LogLevel           string
	CronSecret         string
	CronSpec           string
	TokenEncryptionKey string
	PhotoDir           string
	PhotosAPIToken     string
	OAuthClientID      string
	OAuthClientSecret  string
	OAuthTokenURL      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		Port:           getEnvOrDefault("PORT", "8080"),
		CronSpec:       getEnvOrDefault("CRON_SPEC", "@every 15m"),
		PhotoDir:       getEnvOrDefault("PHOTO_DIR", "data/photos"),
		OAuthTokenURL:  getEnvOrDefault("OAUTH_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		CronSecret:     os.Getenv("CRON_SECRET"),
		PhotosAPIToken: os.Getenv("PHOTOS_API_TOKEN"),
	}
	cfg.OAuthClientID = os.Getenv("OAUTH_CLIENT_ID")
	cfg.OAuthClientSecret = os.Getenv("OAUTH_CLIENT_SECRET")

	// Required environment variables
	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.TokenEncryptionKey = os.Getenv("TOKEN_ENCRYPTION_KEY"); cfg.TokenEncryptionKey == "" {
		return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY environment variable is required")
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
