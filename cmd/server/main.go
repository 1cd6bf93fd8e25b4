// Package main is the entry point for the game API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"game-api-server/internal/api"
	"game-api-server/internal/api/handlers"
	"game-api-server/internal/cache"
	"game-api-server/internal/config"
	"game-api-server/internal/masterdata"
	"game-api-server/internal/pkg/db"
	"game-api-server/internal/pkg/kv"
	"game-api-server/internal/repository/postgres"
	"game-api-server/internal/service"
	"game-api-server/internal/session"
)

func main() {
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(&cfg.Log)
	log.Info().Str("addr", cfg.Server.Addr).Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Serving without reference tables is not allowed.
	snap, err := masterdata.Load(cfg.MasterData.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.MasterData.Path).Msg("Failed to load master data")
	}
	master := masterdata.NewStore(snap)
	log.Info().Str("version", snap.Version()).Msg("Master data loaded")

	pool, err := db.Open(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	kvStore, err := kv.Open(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to key-value store")
	}
	defer kvStore.Close()

	store := postgres.NewStore(pool)
	sessions := session.NewStore(kvStore, cfg.Session.TTL, cfg.Session.LockTTL)
	services := service.New(service.Dependencies{
		Store:      store,
		Cache:      cache.New(kvStore, cfg.Cache.TTL, cfg.Cache.StageTTL),
		Sessions:   sessions,
		MasterData: master,
		Game:       cfg.Game,
	})

	router := api.NewRouter(api.Options{
		Services:          services,
		Sessions:          sessions,
		Logger:            log.Logger,
		LockRenewInterval: cfg.Session.LockRenewInterval,
		HealthChecks: map[string]handlers.Pinger{
			"postgres": store,
			"kv":       kvStore,
		},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Server is starting...")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		reloadMasterData(gctx, master, cfg.MasterData.Path)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}
	log.Info().Msg("Server stopped gracefully")
}

// reloadMasterData swaps in a fresh snapshot on every SIGHUP until ctx ends.
func reloadMasterData(ctx context.Context, master *masterdata.Store, path string) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := master.Reload(path); err != nil {
				log.Error().Err(err).Str("path", path).Msg("Master data reload failed, keeping previous tables")
			}
		}
	}
}

func setupLogger(cfg *config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	zerolog.DefaultContextLogger = &log.Logger
}
