package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pefman/cosmic-race/internal/api"
	"github.com/pefman/cosmic-race/internal/config"
	"github.com/pefman/cosmic-race/internal/game"
	"github.com/pefman/cosmic-race/internal/logger"
	"github.com/pefman/cosmic-race/internal/server"
	"github.com/pefman/cosmic-race/internal/stats"
)

// Build metadata injected via -ldflags at build time
var (
	buildVersion = "dev"
	buildTime    = ""
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	log := logger.Setup(cfg.LogLevel)

	// results stay in-process unless a stats service is configured
	store := stats.NewStore()
	var recorder game.Recorder = store
	results := server.LocalResults(store)
	if cfg.StatsAPIBase != "" {
		client := api.NewClient(cfg.StatsAPIBase)
		recorder, results = client, client
	}

	srv, err := server.New(server.Options{
		Config:    cfg,
		Version:   buildVersion,
		BuildTime: buildTime,
		Recorder:  recorder,
		Results:   results,
		Log:       log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("server setup")
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Str("version", buildVersion).
			Str("stats_api", cfg.StatsAPIBase).
			Msg("cosmic race listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	srv.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
