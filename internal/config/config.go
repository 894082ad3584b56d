// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/outfitter/internal/modules/media"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir           string // Base directory for all databases, always absolute
	Port              int
	LogLevel          string
	DevMode           bool
	PublicBaseURL     string
	OpenWeatherAPIKey string
	RedisURL          string
	CORSOrigins       []string
	CatalogSeed       bool
	Cache             CacheConfig
	Queue             QueueConfig
	Media             MediaConfig
	Backup            BackupConfig
}

// CacheConfig controls the outfit result cache
type CacheConfig struct {
	Enabled bool
}

// QueueConfig controls the outfit generation queue
type QueueConfig struct {
	Enabled     bool
	Concurrency int
	Timeout     time.Duration
}

// MediaConfig controls product image delivery
type MediaConfig struct {
	S3           media.S3Config
	SignedURLTTL time.Duration
}

// BackupConfig controls scheduled database backups
type BackupConfig struct {
	Enabled bool
	Keep    int // local archives kept after rotation
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("OUTFITTER_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		Port:              getEnvAsInt("PORT", 4000),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		PublicBaseURL:     strings.TrimRight(getEnv("API_PUBLIC_BASE_URL", "http://localhost:4000"), "/"),
		OpenWeatherAPIKey: getEnv("OPENWEATHER_API_KEY", ""),
		RedisURL:          strings.TrimSpace(getEnv("REDIS_URL", "")),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		CatalogSeed:       getEnvAsBool("CATALOG_SEED", true),
		Cache: CacheConfig{
			Enabled: getEnvAsBool("AI_CACHE_ENABLED", true),
		},
		Queue: QueueConfig{
			Enabled:     getEnvAsBool("OUTFIT_QUEUE_ENABLED", false),
			Concurrency: getEnvAsInt("OUTFIT_WORKER_CONCURRENCY", 6),
			Timeout:     getEnvAsDuration("OUTFIT_QUEUE_TIMEOUT_MS", 30000*time.Millisecond, time.Millisecond),
		},
		Media: MediaConfig{
			S3: media.S3Config{
				Bucket:    getEnv("MEDIA_S3_BUCKET", ""),
				Region:    getEnv("MEDIA_S3_REGION", "us-east-1"),
				Endpoint:  getEnv("MEDIA_S3_ENDPOINT", ""),
				AccessKey: getEnv("MEDIA_S3_ACCESS_KEY", ""),
				SecretKey: getEnv("MEDIA_S3_SECRET_KEY", ""),
			},
			SignedURLTTL: getEnvAsDuration("MEDIA_SIGNED_URL_TTL_SEC", 900*time.Second, time.Second),
		},
		Backup: BackupConfig{
			Enabled: getEnvAsBool("BACKUP_ENABLED", true),
			Keep:    getEnvAsInt("BACKUP_KEEP", 7),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.Queue.Concurrency < 1 {
		return fmt.Errorf("OUTFIT_WORKER_CONCURRENCY must be at least 1, got %d", c.Queue.Concurrency)
	}
	if c.Queue.Timeout < time.Second {
		return fmt.Errorf("OUTFIT_QUEUE_TIMEOUT_MS must be at least 1000, got %d", c.Queue.Timeout.Milliseconds())
	}
	if c.Backup.Enabled && c.Backup.Keep < 1 {
		return fmt.Errorf("BACKUP_KEEP must be at least 1, got %d", c.Backup.Keep)
	}
	if c.Media.S3.Bucket != "" && (c.Media.S3.AccessKey == "" || c.Media.S3.SecretKey == "") {
		return fmt.Errorf("MEDIA_S3_BUCKET requires MEDIA_S3_ACCESS_KEY and MEDIA_S3_SECRET_KEY")
	}
	return nil
}

// QueueActive reports whether the queue can run (enabled and redis configured)
func (c *Config) QueueActive() bool {
	return c.Queue.Enabled && c.RedisURL != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration reads an integer count of unit
func getEnvAsDuration(key string, defaultValue, unit time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal) * unit
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
