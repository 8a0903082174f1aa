// Package config centralises configuration parsing for the wellbeing service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration values for the wellbeing service.
type Config struct {
	HTTPAddress        string
	MetricsAddress     string
	PostgresURL        string // Empty keeps scores in process memory.
	CachePath          string // SQLite file for the local cache; empty keeps it in memory.
	KafkaBrokers       []string
	SensorTopics       []string
	ConsumerGroupID    string
	SchemaRegistryURL  string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	JWTSecret          string
	JWTIssuer          string
	DLQPollInterval    time.Duration // Interval between DLQ polling iterations.
	DLQMaxRetries      int           // Maximum number of DLQ retry attempts before quarantine.
	DLQBaseDelay       time.Duration // Base delay used for exponential backoff.
	TickInterval       time.Duration
	ScoringSchedule    string
	SmoothingAlpha     float64
	EventRetention     time.Duration
	SessionIdleTimeout time.Duration
	TimeZone           *time.Location
}

// Load reads environment variables into Config, applying sensible defaults for local dev.
func Load() Config {
	cfg := Config{
		HTTPAddress:        getEnv("HTTP_ADDRESS", ":8080"),
		MetricsAddress:     getEnv("METRICS_ADDRESS", ":9090"),
		PostgresURL:        getEnv("POSTGRES_URL", ""),
		CachePath:          getEnv("CACHE_PATH", ""),
		ConsumerGroupID:    getEnv("CONSUMER_GROUP_ID", "wellbeing-sensor-consumer"),
		SchemaRegistryURL:  getEnv("SCHEMA_REGISTRY_URL", "http://schema-registry:8081"),
		OutboxPollInterval: getDurationEnv("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    getIntEnv("OUTBOX_BATCH_SIZE", 25),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:          getEnv("JWT_ISSUER", "wellbeing.identity"),
		DLQPollInterval:    getDurationEnv("DLQ_POLL_INTERVAL", 30*time.Second),
		DLQMaxRetries:      getIntEnv("DLQ_MAX_RETRIES", 5),
		DLQBaseDelay:       getDurationEnv("DLQ_BASE_DELAY", time.Minute),
		TickInterval:       getDurationEnv("TICK_INTERVAL", time.Second),
		ScoringSchedule:    getEnv("SCORING_SCHEDULE", "@every 5m"),
		SmoothingAlpha:     getFloatEnv("SMOOTHING_ALPHA", 0.3),
		EventRetention:     getDurationEnv("EVENT_RETENTION", 168*time.Hour),
		SessionIdleTimeout: getDurationEnv("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		TimeZone:           getLocationEnv("TZ_NAME", time.Local),
	}

	cfg.KafkaBrokers = splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092"))
	cfg.SensorTopics = splitAndTrim(getEnv("SENSOR_TOPICS", "sensor.batches"))
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getLocationEnv(key string, fallback *time.Location) *time.Location {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if loc, err := time.LoadLocation(value); err == nil {
			return loc
		}
	}
	return fallback
}
