package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	Port         string
	APIBaseURL   string
	FetchTimeout time.Duration

	CacheEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	StoreDriver string
	SQLitePath  string

	SearchRateLimit float64
	SearchRateBurst int
	SessionTTL      time.Duration
}

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Load reads the optional .env files, then the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		APIBaseURL:   getEnv("API_BASE_URL", "http://localhost:3001"),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 5*time.Second),

		CacheEnabled:  getEnvBool("CACHE_ENABLED", true),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisTTL:      getEnvDuration("REDIS_TTL", 5*time.Minute),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
		SQLitePath:  getEnv("SQLITE_PATH", "flightdeals.db"),

		SearchRateLimit: getEnvFloat("SEARCH_RATE_LIMIT", 2),
		SearchRateBurst: getEnvInt("SEARCH_RATE_BURST", 5),
		SessionTTL:      getEnvDuration("SESSION_TTL", 30*time.Minute),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverRedis, DriverSQLite:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.SearchRateLimit <= 0 || c.SearchRateBurst <= 0 {
		return fmt.Errorf("SEARCH_RATE_LIMIT and SEARCH_RATE_BURST must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if value == "yes" {
		return true
	}
	b, err := cast.ToBoolE(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := cast.ToIntE(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
