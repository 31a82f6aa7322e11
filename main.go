package main

import (
	"context"
	"embed"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"werewolf/internal/config"
	"werewolf/internal/lobby"
	"werewolf/internal/server"
	"werewolf/internal/session"
	"werewolf/internal/storage"
	"werewolf/internal/storage/memory"
	"werewolf/internal/storage/sqlite"
)

const sweepInterval = time.Minute

//go:embed web/static
var static embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	addr := flag.String("addr", cfg.Addr, "listen address")
	flag.Parse()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		config.Exitf("WEREWOLF_LOG_LEVEL: %v", err)
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	var (
		archive storage.Store
		closeDB func() error
	)
	if cfg.DBPath != "" {
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			config.Exitf("open database: %v", err)
		}
		archive, closeDB = db, db.Close
		logger.Info().Str("path", cfg.DBPath).Msg("match archive on sqlite")
	} else {
		archive = memory.NewStore()
		logger.Warn().Msg("WEREWOLF_DB_PATH not set, match archive kept in memory")
	}

	handlers := server.NewHandlers(server.Options{
		Lobbies: lobby.NewManager(lobby.Settings{
			MinPlayers: cfg.MinPlayers,
			MaxPlayers: cfg.MaxPlayers,
		}),
		Archive: archive,
		Session: session.Options{
			VoteWindow: cfg.VoteWindow,
			AutoOpen:   true,
		},
		PublicURL: cfg.PublicURL,
		Logger:    logger,
	})
	srv := server.New(*addr, static, handlers, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		return handlers.Sweep(gctx, sweepInterval)
	})
	runErr := g.Wait()
	stop()

	// Stops every match actor before the archive goes away.
	handlers.Close()
	if closeDB != nil {
		if err := closeDB(); err != nil {
			logger.Error().Err(err).Msg("close database")
		}
	}
	if runErr != nil {
		logger.Error().Err(runErr).Msg("server error")
		os.Exit(1)
	}
	logger.Info().Msg("shut down")
}
