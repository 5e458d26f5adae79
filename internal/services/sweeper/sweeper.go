package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/gomoku-arena/internal/services/session"
)

// SessionCleaner removes expired sessions
type SessionCleaner interface {
	Cleanup(ctx context.Context) (session.CleanupResult, error)
}

// RoomSweeper destroys empty and inactive rooms
type RoomSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// HubPruner closes event hubs nobody is listening to
type HubPruner interface {
	CleanupEmptyHubs() int
}

// Config holds configuration for the sweeper
type Config struct {
	Interval time.Duration
}

// DefaultConfig returns default sweeper configuration
func DefaultConfig() Config {
	return Config{
		Interval: time.Minute,
	}
}

// Sweeper periodically expires sessions, rooms and idle event hubs. The
// registries take the same locks as their opportunistic sweeps.
type Sweeper struct {
	sessions SessionCleaner
	rooms    RoomSweeper
	hubs     HubPruner
	cfg      Config
	logger   *slog.Logger
}

// New creates a new sweeper. hubs may be nil.
func New(sessions SessionCleaner, rooms RoomSweeper, hubs HubPruner, cfg Config, logger *slog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Sweeper{
		sessions: sessions,
		rooms:    rooms,
		hubs:     hubs,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "sweeper")),
	}
}

// Run sweeps every interval until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", slog.Duration("interval", s.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return nil
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single pass. Failures are logged and the pass continues.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	result, err := s.sessions.Cleanup(ctx)
	if err != nil {
		s.logger.Error("session cleanup failed", slog.String("error", err.Error()))
	}

	rooms, err := s.rooms.Sweep(ctx)
	if err != nil {
		s.logger.Error("room sweep failed", slog.String("error", err.Error()))
	}

	hubs := 0
	if s.hubs != nil {
		hubs = s.hubs.CleanupEmptyHubs()
	}

	if result.SessionsRemoved > 0 || rooms > 0 || hubs > 0 {
		s.logger.Info("sweep completed",
			slog.Int("sessions_removed", result.SessionsRemoved),
			slog.Int("usernames_removed", result.UsernamesRemoved),
			slog.Int("rooms_removed", rooms),
			slog.Int("hubs_removed", hubs),
		)
	}
}
