package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config holds all server configuration loaded from environment variables
type Config struct {
	Port string

	StorageType   string
	RedisURL      string
	StorageSecret string

	SessionIdleTimeout  time.Duration
	SessionMaxLifetime  time.Duration
	RoomEmptyTimeout    time.Duration
	RoomInactiveTimeout time.Duration
	OracleTimeout       time.Duration
	SweepInterval       time.Duration

	CORSOrigins []string
	LogLevel    slog.Level
}

// Load reads the configuration. Unset or unparsable values fall back to
// their defaults.
func Load() *Config {
	return &Config{
		Port:                getenv("PORT", "8080"),
		StorageType:         getenv("STORAGE_TYPE", "memory"),
		RedisURL:            getenv("REDIS_URL", ""),
		StorageSecret:       getenv("STORAGE_SECRET", ""),
		SessionIdleTimeout:  getenvDuration("SESSION_IDLE_TIMEOUT", time.Hour),
		SessionMaxLifetime:  getenvDuration("SESSION_MAX_LIFETIME", 24*time.Hour),
		RoomEmptyTimeout:    getenvDuration("ROOM_EMPTY_TIMEOUT", 5*time.Minute),
		RoomInactiveTimeout: getenvDuration("ROOM_INACTIVE_TIMEOUT", time.Hour),
		OracleTimeout:       getenvDuration("ORACLE_TIMEOUT", 60*time.Second),
		SweepInterval:       getenvDuration("SWEEP_INTERVAL", time.Minute),
		CORSOrigins:         getenvList("CORS_ORIGINS", []string{"*"}),
		LogLevel:            getenvLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getenvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getenvLevel(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return level
}
