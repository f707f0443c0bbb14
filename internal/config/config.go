// Package config loads client configuration from a JSON file with
// environment overrides, following COURIER_* variable names.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/vexlio/courier/internal/auth"
)

// Backend names accepted for the event bus and job cache.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// PostgresConfig holds the job cache DSN.
type PostgresConfig struct {
	DSN string `json:"dsn"`
}

// AuthConfig selects and populates the authorizer.
type AuthConfig struct {
	// Enabled switches credential checking on. When false every
	// credentialed request is still accepted.
	Enabled  bool           `json:"enabled"`
	TokenTTL time.Duration  `json:"token_ttl"`
	Users    []auth.UserACL `json:"users"`
}

// Config is the central configuration struct for the dispatch client.
type Config struct {
	EventBus    string         `json:"event_bus"` // memory | redis
	JobCache    string         `json:"job_cache"` // memory | redis | postgres | none
	Redis       RedisConfig    `json:"redis"`
	Postgres    PostgresConfig `json:"postgres"`
	Auth        AuthConfig     `json:"auth"`
	Output      string         `json:"output"` // text | json | yaml
	Quiet       bool           `json:"quiet"`
	LogLevel    string         `json:"log_level"`
	MetricsAddr string         `json:"metrics_addr"` // empty disables the endpoint
	JobTTL      time.Duration  `json:"job_ttl"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		EventBus: BackendMemory,
		JobCache: BackendMemory,
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		},
		Output:   "text",
		LogLevel: "info",
		JobTTL:   24 * time.Hour,
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv applies environment variable overrides to the config
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("COURIER_EVENT_BUS"); v != "" {
		cfg.EventBus = v
	}
	if v := os.Getenv("COURIER_JOB_CACHE"); v != "" {
		cfg.JobCache = v
	}
	if v := os.Getenv("COURIER_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("COURIER_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("COURIER_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("COURIER_POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("COURIER_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("COURIER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("COURIER_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
}
