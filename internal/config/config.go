package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Engine    EngineConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level    string
	Redact   bool
	HashSalt string
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host            string
	Port            string
	Namespace       string
	Database        string
	User            string
	Password        string
	ConnectAttempts int
	AutoMigrate     bool
}

// RedisConfig holds the optional Redis settings. When Addr is empty the
// engine uses in-process locks.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// EngineConfig holds intervention engine settings
type EngineConfig struct {
	// GapMinimum is the shortest gap pause accepted
	GapMinimum time.Duration
	// SessionTTL is how long an idle session stays alive
	SessionTTL time.Duration
	// Timezone decides calendar days for streaks (IANA name)
	Timezone string
	// ProgressAttempts bounds compare-and-swap retries on topic progress
	ProgressAttempts int
	ProgressBackoff  time.Duration

	EfficiencyInterval    time.Duration
	EfficiencyMaxAttempts int
	EfficiencyBackoff     time.Duration
	SweepInterval         time.Duration
	// CatalogPath overrides the embedded starter card catalog
	CatalogPath string
}

// RateLimitConfig holds per-client rate limit settings
type RateLimitConfig struct {
	Rate   int
	Window time.Duration
	Burst  int
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:8081"}),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Redact:   getBoolEnv("LOG_REDACT", true),
			HashSalt: getEnv("LOG_HASH_SALT", ""),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "8000"),
			Namespace:       getEnv("DB_NAMESPACE", "pausemo"),
			Database:        getEnv("DB_DATABASE", "main"),
			User:            getEnv("DB_USER", "root"),
			Password:        getEnv("DB_PASSWORD", "root"),
			ConnectAttempts: getIntEnv("DB_CONNECT_ATTEMPTS", 5),
			AutoMigrate:     getBoolEnv("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			LockTTL:  getDurationEnv("REDIS_LOCK_TTL", 10*time.Second),
		},
		Engine: EngineConfig{
			GapMinimum:            getDurationEnv("ENGINE_GAP_MINIMUM", 3*time.Second),
			SessionTTL:            getDurationEnv("ENGINE_SESSION_TTL", 30*time.Minute),
			Timezone:              getEnv("ENGINE_TIMEZONE", "UTC"),
			ProgressAttempts:      getIntEnv("ENGINE_PROGRESS_ATTEMPTS", 5),
			ProgressBackoff:       getDurationEnv("ENGINE_PROGRESS_BACKOFF", 10*time.Millisecond),
			EfficiencyInterval:    getDurationEnv("ENGINE_EFFICIENCY_INTERVAL", 5*time.Second),
			EfficiencyMaxAttempts: getIntEnv("ENGINE_EFFICIENCY_MAX_ATTEMPTS", 5),
			EfficiencyBackoff:     getDurationEnv("ENGINE_EFFICIENCY_BACKOFF", time.Second),
			SweepInterval:         getDurationEnv("ENGINE_SWEEP_INTERVAL", time.Minute),
			CatalogPath:           getEnv("ENGINE_CATALOG_PATH", ""),
		},
		RateLimit: RateLimitConfig{
			Rate:   getIntEnv("RATE_LIMIT_RATE", 100),
			Window: getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			Burst:  getIntEnv("RATE_LIMIT_BURST", 20),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Location resolves Engine.Timezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Engine.Timezone)
}

// UseRedis reports whether a Redis address is configured
func (c *Config) UseRedis() bool {
	return c.Redis.Addr != ""
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	// Log validation
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got '%s'", c.Log.Level))
	}
	if c.IsProduction() && c.Log.Redact && c.Log.HashSalt == "" {
		errs = append(errs, errors.New("LOG_HASH_SALT is required in production when LOG_REDACT is true"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}
	if c.Database.ConnectAttempts <= 0 {
		errs = append(errs, errors.New("DB_CONNECT_ATTEMPTS must be positive"))
	}

	// Redis validation
	if c.UseRedis() {
		if c.Redis.DB < 0 {
			errs = append(errs, errors.New("REDIS_DB must not be negative"))
		}
		if c.Redis.LockTTL <= 0 {
			errs = append(errs, errors.New("REDIS_LOCK_TTL must be positive"))
		}
	}

	// Engine validation
	if c.Engine.GapMinimum < 0 {
		errs = append(errs, errors.New("ENGINE_GAP_MINIMUM must not be negative"))
	}
	if c.Engine.SessionTTL <= 0 {
		errs = append(errs, errors.New("ENGINE_SESSION_TTL must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("ENGINE_TIMEZONE is not a known location: %w", err))
	}
	if c.Engine.ProgressAttempts <= 0 {
		errs = append(errs, errors.New("ENGINE_PROGRESS_ATTEMPTS must be positive"))
	}
	if c.Engine.EfficiencyInterval <= 0 {
		errs = append(errs, errors.New("ENGINE_EFFICIENCY_INTERVAL must be positive"))
	}
	if c.Engine.EfficiencyMaxAttempts <= 0 {
		errs = append(errs, errors.New("ENGINE_EFFICIENCY_MAX_ATTEMPTS must be positive"))
	}
	if c.Engine.SweepInterval <= 0 {
		errs = append(errs, errors.New("ENGINE_SWEEP_INTERVAL must be positive"))
	}

	// Rate limit validation
	if c.RateLimit.Rate <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RATE must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
