// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// server mode, timeouts, storage paths, and media bucket settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	LineChannelToken  string
	LineChannelSecret string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir string // Data directory for the SQLite database

	// Media Storage Configuration (S3-compatible, e.g. Cloudflare R2)
	MediaEndpoint    string // S3 endpoint URL
	MediaAccessKeyID string
	MediaSecretKey   string
	MediaBucket      string
	MediaPublicURL   string // Public base URL serving bucket objects (HTTPS)

	// Scraper Configuration
	ScraperTimeout    time.Duration
	ScraperMaxRetries int

	// Observability
	BetterstackToken string // Better Stack log shipping token (empty = stdout only)
	SentryToken      string // Better Stack Errors token for Sentry SDK (empty = disabled)
	SentryHost       string // Better Stack Errors ingesting host
	MetricsUsername  string // Username for /metrics Basic Auth (default: "prometheus")
	MetricsPassword  string // Password for /metrics Basic Auth (empty = no auth)

	// Bot Configuration (embedded)
	Bot BotConfig
}

// BotConfig holds bot-specific configuration
type BotConfig struct {
	WebhookTimeout      time.Duration // Timeout for per-event bot processing
	MaxMessagesPerReply int           // Maximum messages per reply (LINE API limit: 5)
	MaxEventsPerWebhook int           // Maximum events per webhook batch
	MinReplyTokenLength int           // Minimum reply token length
	MaxListingsCarousel int           // Maximum listings per carousel reply
	WarningChance       float64       // Probability of the legacy warning reply (0.0-1.0)
	ThumbnailMaxEdge    int           // Longest edge of derived thumbnails in pixels
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		// LINE Bot Configuration
		LineChannelToken:  getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineChannelSecret: getEnv("LINE_CHANNEL_SECRET", ""),

		// Server Configuration
		Port:            getEnv("PORT", "10000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Data Configuration
		DataDir: getEnv("DATA_DIR", "./data"),

		// Media Storage Configuration
		MediaEndpoint:    getEnv("MEDIA_ENDPOINT", ""),
		MediaAccessKeyID: getEnv("MEDIA_ACCESS_KEY_ID", ""),
		MediaSecretKey:   getEnv("MEDIA_SECRET_ACCESS_KEY", ""),
		MediaBucket:      getEnv("MEDIA_BUCKET", ""),
		MediaPublicURL:   strings.TrimSuffix(getEnv("MEDIA_PUBLIC_URL", ""), "/"),

		// Scraper Configuration
		ScraperTimeout:    getDurationEnv("SCRAPER_TIMEOUT", 30*time.Second),
		ScraperMaxRetries: getIntEnv("SCRAPER_MAX_RETRIES", 3),

		// Observability
		BetterstackToken: getEnv("BETTERSTACK_TOKEN", ""),
		SentryToken:      getEnv("SENTRY_TOKEN", ""),
		SentryHost:       getEnv("SENTRY_HOST", "errors.betterstack.com"),
		MetricsUsername:  getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword:  getEnv("METRICS_PASSWORD", ""),

		// Bot Configuration
		Bot: BotConfig{
			WebhookTimeout:      getDurationEnv("WEBHOOK_TIMEOUT", 25*time.Second),
			MaxMessagesPerReply: 5,
			MaxEventsPerWebhook: 100,
			MinReplyTokenLength: 10,
			MaxListingsCarousel: getIntEnv("MAX_LISTINGS_CAROUSEL", 6),
			WarningChance:       getFloatEnv("WARNING_CHANCE", 0.07),
			ThumbnailMaxEdge:    getIntEnv("THUMBNAIL_MAX_EDGE", 240),
		},
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

	if c.LineChannelToken == "" {
		errs = append(errs, errors.New("LINE_CHANNEL_ACCESS_TOKEN is required"))
	}
	if c.LineChannelSecret == "" {
		errs = append(errs, errors.New("LINE_CHANNEL_SECRET is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.MediaEndpoint == "" {
		errs = append(errs, errors.New("MEDIA_ENDPOINT is required"))
	}
	if c.MediaAccessKeyID == "" {
		errs = append(errs, errors.New("MEDIA_ACCESS_KEY_ID is required"))
	}
	if c.MediaSecretKey == "" {
		errs = append(errs, errors.New("MEDIA_SECRET_ACCESS_KEY is required"))
	}
	if c.MediaBucket == "" {
		errs = append(errs, errors.New("MEDIA_BUCKET is required"))
	}
	if c.MediaPublicURL == "" {
		errs = append(errs, errors.New("MEDIA_PUBLIC_URL is required"))
	}
	if c.ScraperTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_TIMEOUT must be positive, got %v", c.ScraperTimeout))
	}
	if c.ScraperMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_MAX_RETRIES cannot be negative, got %d", c.ScraperMaxRetries))
	}
	if err := c.Bot.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bot config: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks bot-specific configuration values
func (c *BotConfig) Validate() error {
	var errs []error

	if c.WebhookTimeout <= 0 {
		errs = append(errs, fmt.Errorf("WEBHOOK_TIMEOUT must be positive, got %v", c.WebhookTimeout))
	}
	if c.MaxListingsCarousel <= 0 || c.MaxListingsCarousel > 10 {
		errs = append(errs, fmt.Errorf("MAX_LISTINGS_CAROUSEL must be in 1..10, got %d", c.MaxListingsCarousel))
	}
	if c.WarningChance < 0 || c.WarningChance > 1 {
		errs = append(errs, fmt.Errorf("WARNING_CHANCE must be in 0..1, got %v", c.WarningChance))
	}
	if c.ThumbnailMaxEdge <= 0 {
		errs = append(errs, fmt.Errorf("THUMBNAIL_MAX_EDGE must be positive, got %d", c.ThumbnailMaxEdge))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
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

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "bot.db")
}
