package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort string
	RedisURL   string

	// RabbitMQURL is optional for the tracking service: without it the
	// sync pipeline is disabled and sessions stay local. The worker
	// requires it.
	RabbitMQURL      string
	RabbitMQPrefetch int

	// DatabaseURL backs the worker's store of synced sessions.
	DatabaseURL string

	// DeviceID identifies this installation in sync jobs.
	DeviceID string

	AllowedOrigins string
	RateLimit      string
	EnableHSTS     bool

	IdleThreshold   time.Duration
	TickInterval    time.Duration
	SaveInterval    time.Duration
	CleanupInterval time.Duration
	RetentionWeeks  int
	FlushInterval   time.Duration

	ServerDebugMode bool
	WorkerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load loads the tracking service configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DeviceID:         getEnv("DEVICE_ID", "default-device"),
		AllowedOrigins:   getEnv("ALLOWED_ORIGINS", ""),
		RateLimit:        getEnv("RATE_LIMIT", "20-S"),
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		IdleThreshold:    getEnvDuration("IDLE_THRESHOLD", 30*time.Second),
		TickInterval:     getEnvDuration("TICK_INTERVAL", 5*time.Second),
		SaveInterval:     getEnvDuration("SAVE_INTERVAL", 10*time.Second),
		CleanupInterval:  getEnvDuration("CLEANUP_INTERVAL", 7*24*time.Hour),
		RetentionWeeks:   getEnvInt("RETENTION_WEEKS", 12),
		FlushInterval:    getEnvDuration("SYNC_FLUSH_INTERVAL", 30*time.Second),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.IdleThreshold <= 0 {
		return nil, fmt.Errorf("IDLE_THRESHOLD must be positive")
	}
	if cfg.RetentionWeeks <= 0 {
		return nil, fmt.Errorf("RETENTION_WEEKS must be positive")
	}

	return cfg, nil
}

// LoadWorker loads the sync worker configuration, which additionally
// requires the queue and the database.
func LoadWorker() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the sync worker")
	}
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for the sync worker")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
