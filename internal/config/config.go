// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// server mode, timeouts, scraping and session storage.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Telegram Bot Configuration
	TelegramBotToken string
	WebhookURL       string // Public webhook URL; empty = long polling

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir            string        // Data directory for the SQLite session store
	KnowledgeAreasPath string        // Knowledge area keyword configuration (YAML)
	SessionTTL         time.Duration // Conversation sessions older than this are purged

	// Scraper Configuration
	ScraperTimeout    time.Duration
	ScraperMaxRetries int

	// Per-chat rate limiting
	ChatRateBurst  float64 // burst capacity of a chat's token bucket
	ChatRateRefill float64 // tokens refilled per second

	// Error Tracking (Better Stack via Sentry SDK, optional)
	SentryToken string
	SentryHost  string
	Environment string
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		DataDir:            getEnv("DATA_DIR", "./data"),
		KnowledgeAreasPath: getEnv("KNOWLEDGE_AREAS_PATH", "./knowledge_areas.yaml"),
		SessionTTL:         getDurationEnv("SESSION_TTL", 720*time.Hour), // 30 days

		ScraperTimeout:    getDurationEnv("SCRAPER_TIMEOUT", 60*time.Second),
		ScraperMaxRetries: getIntEnv("SCRAPER_MAX_RETRIES", 5),

		ChatRateBurst:  getFloatEnv("CHAT_RATE_BURST", 6),
		ChatRateRefill: getFloatEnv("CHAT_RATE_REFILL", 0.5),

		SentryToken: getEnv("SENTRY_TOKEN", ""),
		SentryHost:  getEnv("SENTRY_HOST", ""),
		Environment: getEnv("ENVIRONMENT", "production"),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.TelegramBotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.KnowledgeAreasPath == "" {
		errs = append(errs, errors.New("KNOWLEDGE_AREAS_PATH is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be positive, got %v", c.SessionTTL))
	}
	if c.ScraperTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_TIMEOUT must be positive, got %v", c.ScraperTimeout))
	}
	if c.ScraperMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_MAX_RETRIES cannot be negative, got %d", c.ScraperMaxRetries))
	}
	if c.ChatRateBurst <= 0 {
		errs = append(errs, fmt.Errorf("CHAT_RATE_BURST must be positive, got %v", c.ChatRateBurst))
	}
	if c.ChatRateRefill <= 0 {
		errs = append(errs, fmt.Errorf("CHAT_RATE_REFILL must be positive, got %v", c.ChatRateRefill))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SQLitePath returns the full path to the SQLite session database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "sessions.db")
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
