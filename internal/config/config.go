package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vytor/skola/internal/logger"
)

type Config struct {
	Addr               string
	DBPath             string
	LogLevel           string
	PersistWorkerCount int
	PersistQueueSize   int
	// SchedulerConfig is an optional TOML file with scheduler parameters.
	SchedulerConfig         string
	RateLimitRPS            float64
	RateLimitBurst          int
	DefaultNewToReviewRatio float64
	SessionTTL              time.Duration
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or unparsable.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                    envOr("ADDR", ":8080"),
		DBPath:                  envOr("DB_PATH", "skola.db"),
		LogLevel:                envOr("LOG_LEVEL", "INFO"),
		PersistWorkerCount:      envIntOr("PERSIST_WORKER_COUNT", 2),
		PersistQueueSize:        envIntOr("PERSIST_QUEUE_SIZE", 256),
		SchedulerConfig:         os.Getenv("SCHEDULER_CONFIG"),
		RateLimitRPS:            envFloatOr("RATE_LIMIT_RPS", 20),
		RateLimitBurst:          envIntOr("RATE_LIMIT_BURST", 40),
		DefaultNewToReviewRatio: envFloatOr("DEFAULT_NEW_TO_REVIEW_RATIO", 0.5),
		SessionTTL:              time.Duration(envIntOr("SESSION_TTL_MINUTES", 120)) * time.Minute,
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL: %v", err))
	}
	if c.PersistWorkerCount < 1 {
		problems = append(problems, "PERSIST_WORKER_COUNT must be at least 1")
	}
	if c.PersistQueueSize < 1 {
		problems = append(problems, "PERSIST_QUEUE_SIZE must be at least 1")
	}
	if c.RateLimitRPS <= 0 {
		problems = append(problems, "RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimitBurst < 1 {
		problems = append(problems, "RATE_LIMIT_BURST must be at least 1")
	}
	if c.DefaultNewToReviewRatio < 0 || c.DefaultNewToReviewRatio > 1 {
		problems = append(problems, "DEFAULT_NEW_TO_REVIEW_RATIO must be between 0 and 1")
	}
	if c.SessionTTL < 0 {
		problems = append(problems, "SESSION_TTL_MINUTES cannot be negative")
	}
	if c.SchedulerConfig != "" {
		if info, err := os.Stat(c.SchedulerConfig); err == nil && info.IsDir() {
			problems = append(problems, fmt.Sprintf("SCHEDULER_CONFIG %q is a directory", c.SchedulerConfig))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %g", key, v, def)
	}
	return def
}
