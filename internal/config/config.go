// Package config loads runtime settings from ROBOTD_ environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bhavanagoud111/The-Robot-driver/internal/artifact"
)

type Config struct {
	HTTPAddr     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	AuthToken string

	CDPBaseURL string

	TaskQueueSize  int
	TaskWorkers    int
	TaskTimeout    time.Duration
	StepBudget     time.Duration
	StealthMode    string
	TaskRetention  time.Duration
	RetentionSweep time.Duration

	CatalogFile string

	EnricherURL     string
	EnricherToken   string
	EnricherModel   string
	EnricherTimeout time.Duration

	IdempotencyTTL     time.Duration
	IdempotencyLockTTL time.Duration

	ArtifactsEnabled bool
	ArtifactDir      string
	ArtifactBaseURL  string
}

func Load() Config {
	return Config{
		HTTPAddr:     envOrDefault("ROBOTD_HTTP_ADDR", ":8080"),
		ReadTimeout:  durationOrDefault("ROBOTD_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: durationOrDefault("ROBOTD_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  durationOrDefault("ROBOTD_IDLE_TIMEOUT", 60*time.Second),

		AuthToken: strings.TrimSpace(os.Getenv("ROBOTD_AUTH_TOKEN")),

		CDPBaseURL: envOrDefault("ROBOTD_CDP_BASE_URL", "http://127.0.0.1:9222"),

		TaskQueueSize:  intOrDefault("ROBOTD_TASK_QUEUE_SIZE", 64),
		TaskWorkers:    intOrDefault("ROBOTD_TASK_WORKERS", 2),
		TaskTimeout:    durationOrDefault("ROBOTD_TASK_TIMEOUT", 90*time.Second),
		StepBudget:     durationOrDefault("ROBOTD_STEP_BUDGET", 8*time.Second),
		StealthMode:    envOrDefault("ROBOTD_STEALTH_MODE", "balanced"),
		TaskRetention:  durationOrDefault("ROBOTD_TASK_RETENTION", 24*time.Hour),
		RetentionSweep: durationOrDefault("ROBOTD_TASK_RETENTION_SWEEP", time.Minute),

		CatalogFile: strings.TrimSpace(os.Getenv("ROBOTD_CATALOG_FILE")),

		EnricherURL:     strings.TrimSpace(os.Getenv("ROBOTD_ENRICHER_URL")),
		EnricherToken:   strings.TrimSpace(os.Getenv("ROBOTD_ENRICHER_TOKEN")),
		EnricherModel:   strings.TrimSpace(os.Getenv("ROBOTD_ENRICHER_MODEL")),
		EnricherTimeout: durationOrDefault("ROBOTD_ENRICHER_TIMEOUT", 8*time.Second),

		IdempotencyTTL:     durationOrDefault("ROBOTD_IDEMPOTENCY_TTL", 24*time.Hour),
		IdempotencyLockTTL: durationOrDefault("ROBOTD_IDEMPOTENCY_LOCK_TTL", 30*time.Second),

		ArtifactsEnabled: boolOrDefault("ROBOTD_ARTIFACTS_ENABLED", true),
		ArtifactDir:      artifact.DefaultRootDir(os.Getenv("ROBOTD_ARTIFACTS_DIR")),
		ArtifactBaseURL:  normalizeBasePath(os.Getenv("ROBOTD_ARTIFACT_BASE_URL"), "/artifacts"),
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func intOrDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func boolOrDefault(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return fallback
	}
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func normalizeBasePath(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	normalized := strings.TrimSuffix(trimmed, "/")
	if normalized == "" {
		return fallback
	}
	return normalized
}
