package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/gomoku-arena/internal/api"
	"github.com/mcoot/gomoku-arena/internal/config"
	"github.com/mcoot/gomoku-arena/internal/factory"
	"github.com/mcoot/gomoku-arena/internal/services/rooms"
	"github.com/mcoot/gomoku-arena/internal/services/session"
	"github.com/mcoot/gomoku-arena/internal/services/sweeper"
	redisstorage "github.com/mcoot/gomoku-arena/internal/storage/redis"
)

func main() {
	cfg := config.Load()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
		SessionConfig: session.Config{
			IdleTimeout: cfg.SessionIdleTimeout,
			MaxLifetime: cfg.SessionMaxLifetime,
		},
		RoomConfig: rooms.Config{
			EmptyTimeout:    cfg.RoomEmptyTimeout,
			InactiveTimeout: cfg.RoomInactiveTimeout,
		},
		SweeperConfig: sweeper.Config{Interval: cfg.SweepInterval},
		OracleTimeout: cfg.OracleTimeout,
	}

	if cfg.StorageType == factory.StorageTypeRedis {
		if cfg.RedisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.Secret = cfg.StorageSecret
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close error", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Migrate(ctx); err != nil {
		logger.Error("migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Sessions:    app.Sessions,
		Rooms:       app.Rooms,
		Match:       app.Match,
		Autoplay:    app.Autoplay,
		HubManager:  app.HubManager,
		CORSOrigins: cfg.CORSOrigins,
	})

	serverConfig := api.DefaultServerConfig().FitOracleTimeout(cfg.OracleTimeout)
	serverConfig.Addr = cfg.Addr()
	server := api.NewServer(router, serverConfig, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error { return app.Sweeper.Run(gctx) })

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		stop()
		_ = app.Close()
		os.Exit(1)
	}

	logger.Info("server stopped")
}
