package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultMaxIDAttempts   = 1000
	defaultConflictRetries = 3
	defaultRetryInterval   = 50 * time.Millisecond
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppEnv     string

	// Ledger tuning
	MaxIDAttempts   int
	ConflictRetries int
	RetryInterval   time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:          os.Getenv("DB_HOST"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBName:          os.Getenv("DB_NAME"),
		DBPort:          os.Getenv("DB_PORT"),
		AppEnv:          os.Getenv("APP_ENV"),
		MaxIDAttempts:   envInt("LEDGER_MAX_ID_ATTEMPTS", defaultMaxIDAttempts),
		ConflictRetries: envInt("LEDGER_CONFLICT_RETRIES", defaultConflictRetries),
		RetryInterval:   envDuration("LEDGER_RETRY_INTERVAL", defaultRetryInterval),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

// envInt reads a positive integer, falling back to def when unset or malformed.
func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return def
	}
	return d
}
