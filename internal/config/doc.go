// Package config manages application configuration for the Pausemo engine.
//
// Configuration is loaded from environment variables and validated once at
// startup:
//
//	cfg, _ := config.Load()
//	if err := cfg.Validate(); err != nil {
//	    // every failure is listed, joined with errors.Join
//	}
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS)
//   - LogConfig: zap level and identifier redaction
//   - DatabaseConfig: SurrealDB connection settings
//   - RedisConfig: optional distributed lock backend
//   - EngineConfig: gap minimum, session TTL, streak timezone, retries
//   - RateLimitConfig: per-client request budget
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT          - HTTP server port (default: 8080)
//	SERVER_ENV           - development, production or test
//	DB_HOST, DB_PORT     - SurrealDB address
//	REDIS_ADDR           - enables Redis locks when set
//	ENGINE_GAP_MINIMUM   - shortest accepted gap (default: 3s)
//	ENGINE_SESSION_TTL   - idle session lifetime (default: 30m)
//	ENGINE_TIMEZONE      - IANA zone for calendar days (default: UTC)
package config
