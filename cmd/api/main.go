package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/pefman/cosmic-race/internal/config"
	"github.com/pefman/cosmic-race/internal/logger"
	"github.com/pefman/cosmic-race/internal/stats"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   http.StatusText(code),
		"message": msg,
		"status":  code,
	})
}

// simple CORS for GET/POST/OPTIONS
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newRouter(h *statsHandler) http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	api.HandleFunc("/results", h.postResult).Methods(http.MethodPost)
	api.HandleFunc("/results", h.recent).Methods(http.MethodGet)
	api.HandleFunc("/results/summary", h.summary).Methods(http.MethodGet)
	api.HandleFunc("/results/today", h.today).Methods(http.MethodGet)
	// subrouters answer method mismatches on their own
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, r.Method+" not allowed")
	})
	r.MethodNotAllowedHandler = notAllowed
	api.MethodNotAllowedHandler = notAllowed
	return withCORS(r)
}

func main() {
	cfg, err := config.LoadStats()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	log := logger.Setup(cfg.LogLevel)

	h := &statsHandler{store: stats.NewStore(), log: log.With().Str("component", "stats-api").Logger()}
	
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           newRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go resetDailyAtMidnight(ctx, h.store, log)

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("stats api listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

// resetDailyAtMidnight drops old per-day tallies once a day (UTC) until ctx is done.
func resetDailyAtMidnight(ctx context.Context, store *stats.Store, log zerolog.Logger) {
	for {
		now := time.Now().UTC()
		next := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
		}
		store.ResetDaily()
		log.Debug().Msg("daily results reset")
	}
}
