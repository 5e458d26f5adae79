package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/gomoku-arena/internal/dependencies/clock"
	"github.com/mcoot/gomoku-arena/internal/dependencies/idgen"
	"github.com/mcoot/gomoku-arena/internal/dependencies/random"
	"github.com/mcoot/gomoku-arena/internal/events"
	"github.com/mcoot/gomoku-arena/internal/services/autoplay"
	"github.com/mcoot/gomoku-arena/internal/services/match"
	"github.com/mcoot/gomoku-arena/internal/services/oracle"
	"github.com/mcoot/gomoku-arena/internal/services/rooms"
	"github.com/mcoot/gomoku-arena/internal/services/session"
	"github.com/mcoot/gomoku-arena/internal/services/sweeper"
	"github.com/mcoot/gomoku-arena/internal/storage"
	"github.com/mcoot/gomoku-arena/internal/storage/memory"
	redisstorage "github.com/mcoot/gomoku-arena/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	IDs    idgen.Generator
	Oracle oracle.Oracle

	// Services
	Sessions   *session.Registry
	Rooms      *rooms.Registry
	Match      *match.Controller
	Autoplay   *autoplay.Service
	Sweeper    *sweeper.Sweeper
	HubManager *events.HubManager
	Logger     *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config

	// Per-component settings, zero values mean defaults
	SessionConfig  session.Config
	RoomConfig     rooms.Config
	MatchConfig    match.Config
	AutoplayConfig autoplay.Config
	SweeperConfig  sweeper.Config
	OpenAIConfig   oracle.OpenAIConfig
	// OracleTimeout bounds every oracle call
	OracleTimeout time.Duration
}

// DefaultOracleTimeout bounds oracle calls when Config.OracleTimeout is zero
const DefaultOracleTimeout = 60 * time.Second

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	cfg = cfg.withDefaults()
	moveOracle := oracle.WithTimeout(oracle.NewOpenAI(cfg.OpenAIConfig, logger), cfg.OracleTimeout)

	deps := dependencies{
		storage: store,
		clock:   clock.New(),
		random:  random.New(),
		ids:     idgen.New(),
		oracle:  moveOracle,
	}
	return newWithDependencies(deps, cfg, logger), nil
}

// withDefaults fills the oracle timeout and sizes the step lease to it, so a
// slow oracle call is never mistaken for an abandoned step
func (cfg Config) withDefaults() Config {
	if cfg.OracleTimeout == 0 {
		cfg.OracleTimeout = DefaultOracleTimeout
	}
	if cfg.MatchConfig.StepLease == 0 {
		cfg.MatchConfig.StepLease = match.LeaseFor(cfg.OracleTimeout)
	}
	return cfg
}

// dependencies are the swappable externals of an App
type dependencies struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	ids     idgen.Generator
	oracle  oracle.Oracle
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies, cfg Config, logger *slog.Logger) *App {
	hubManager := events.NewHubManager(logger)
	publisher := events.NewBroadcaster(hubManager, logger)

	roomRegistry := rooms.New(deps.storage, deps.clock, deps.ids, publisher, cfg.RoomConfig, logger)
	sessionRegistry := session.New(deps.storage, deps.clock, deps.random, deps.ids, roomRegistry, cfg.SessionConfig, logger)
	matchController := match.NewController(roomRegistry, deps.oracle, deps.clock, cfg.MatchConfig, logger)
	autoplayService := autoplay.New(matchController, deps.clock, deps.ids, cfg.AutoplayConfig, logger)
	roomSweeper := sweeper.New(sessionRegistry, roomRegistry, hubManager, cfg.SweeperConfig, logger)

	return &App{
		Storage:    deps.storage,
		Clock:      deps.clock,
		Random:     deps.random,
		IDs:        deps.ids,
		Oracle:     deps.oracle,
		Sessions:   sessionRegistry,
		Rooms:      roomRegistry,
		Match:      matchController,
		Autoplay:   autoplayService,
		Sweeper:    roomSweeper,
		HubManager: hubManager,
		Logger:     logger,
	}
}

// Close stops background work and releases the storage backend
func (a *App) Close() error {
	a.Autoplay.Close()
	a.HubManager.CloseAll()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Migrate upgrades stored state left by earlier versions. It runs once at
// boot, before the server accepts requests.
func (a *App) Migrate(ctx context.Context) error {
	migrated, err := a.Sessions.Migrate(ctx)
	if err != nil {
		return err
	}
	a.Logger.Info("storage ready", slog.Int("sessions_migrated", migrated))
	return nil
}
