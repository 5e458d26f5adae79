package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, time.Hour, cfg.SessionIdleTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionMaxLifetime)
	assert.Equal(t, 5*time.Minute, cfg.RoomEmptyTimeout)
	assert.Equal(t, time.Hour, cfg.RoomInactiveTimeout)
	assert.Equal(t, 60*time.Second, cfg.OracleTimeout)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_TYPE", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("STORAGE_SECRET", "s3cret")
	t.Setenv("SESSION_IDLE_TIMEOUT", "30m")
	t.Setenv("ORACLE_TIMEOUT", "15s")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://arena.example.com ,")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "redis", cfg.StorageType)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "s3cret", cfg.StorageSecret)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 15*time.Second, cfg.OracleTimeout)
	assert.Equal(t, []string{"http://localhost:5173", "https://arena.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "soon")
	t.Setenv("ROOM_EMPTY_TIMEOUT", "-5m")
	t.Setenv("LOG_LEVEL", "chatty")
	t.Setenv("CORS_ORIGINS", " , ")

	cfg := Load()

	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 5*time.Minute, cfg.RoomEmptyTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}
