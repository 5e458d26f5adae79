package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTL settings for different entity types. The registries expire records
	// on their own schedule; these only stop abandoned keys lingering.
	SessionTTL time.Duration
	RoomTTL    time.Duration

	// Secret seals AI keys before rooms are written. Empty stores them as-is.
	Secret string
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		SessionTTL:   48 * time.Hour,
		RoomTTL:      24 * time.Hour,
	}
}
