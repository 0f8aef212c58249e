// Package server serves the race page and plays one race per browser
// connection over a websocket.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pefman/cosmic-race/internal/config"
	"github.com/pefman/cosmic-race/internal/engine"
	"github.com/pefman/cosmic-race/internal/game"
	"github.com/pefman/cosmic-race/internal/models"
	"github.com/pefman/cosmic-race/internal/narration"
	"github.com/pefman/cosmic-race/internal/speech"
	"github.com/pefman/cosmic-race/internal/stats"
)

// Results answers aggregate questions about finished races.
type Results interface {
	Summary(ctx context.Context) (models.ResultsSummary, error)
	Today(ctx context.Context) (models.ResultsSummary, error)
}

type storeResults struct{ store *stats.Store }

func (r storeResults) Summary(context.Context) (models.ResultsSummary, error) {
	return r.store.Summary(), nil
}

func (r storeResults) Today(context.Context) (models.ResultsSummary, error) {
	return r.store.Today(), nil
}

// LocalResults exposes an in-process store as Results.
func LocalResults(store *stats.Store) Results { return storeResults{store} }

type Options struct {
	Config    config.Config
	Version   string
	BuildTime string
	Recorder  game.Recorder
	Results   Results
	Log       zerolog.Logger

	// Clock and NewDice default to wall time and crypto-seeded dice.
	Clock   engine.Scheduler
	NewDice func() engine.Roller
}

type Server struct {
	opts     Options
	lines    *narration.Catalog
	sessions *Registry
	router   *mux.Router
	upgrader websocket.Upgrader
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func New(opts Options) (*Server, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	lines, err := narration.New(opts.Config.Locale)
	if err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = engine.WallClock()
	}
	if opts.NewDice == nil {
		opts.NewDice = func() engine.Roller { return engine.NewRandomDie() }
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:     opts,
		lines:    lines,
		sessions: NewRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:    opts.Log.With().Str("component", "server").Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleSessions).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats(Results.Summary)).Methods(http.MethodGet)
	api.HandleFunc("/stats/today", s.handleStats(Results.Today)).Methods(http.MethodGet)
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Sessions() *Registry { return s.sessions }

// Close ends every live session. Hijacked websockets are not closed by
// http.Server.Shutdown, so callers invoke this alongside it.
func (s *Server) Close() { s.cancel() }

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := strings.NewReplacer(
		"{{BUILD_VERSION}}", s.opts.Version,
		"{{LANG}}", s.lines.Lang(),
	).Replace(indexHTML)
	fmt.Fprint(w, html)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"version": s.opts.Version,
		"time":    s.opts.BuildTime,
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.sessions.List(r.Context()))
}

func (s *Server) handleStats(fetch func(Results, context.Context) (models.ResultsSummary, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Results == nil {
			writeError(w, http.StatusServiceUnavailable, "results not recorded")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		sum, err := fetch(s.opts.Results, ctx)
		if err != nil {
			s.log.Warn().Err(err).Str("path", r.URL.Path).Msg("stats fetch")
			writeError(w, http.StatusBadGateway, "stats unavailable")
			return
		}
		writeJSON(w, sum)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("ws: upgrade failed")
		return
	}
	sess, err := s.newSession(newWSConn(socket), r.RemoteAddr)
	if err != nil {
		s.log.Error().Err(err).Msg("ws: session setup failed")
		_ = socket.Close()
		return
	}
	s.sessions.Add(sess)
	sess.log.Info().Str("remote", r.RemoteAddr).Msg("ws: connect")
	defer func() {
		s.sessions.Remove(sess.ID)
		sess.log.Info().Msg("ws: closed")
	}()

	sess.conn.Send(sess.hello(s.opts.Version, s.opts.Config.Keys()))
	sess.serve(s.ctx)
}

func (s *Server) newSession(conn *wsConn, remote string) (*Session, error) {
	cfg := s.opts.Config
	id := uuid.NewString()
	log := s.opts.Log.With().Str("conn", id).Logger()

	speaker := &wsSpeaker{out: conn, lines: s.lines}
	queue := speech.NewQueue(speaker, s.opts.Clock, cfg.SpeechPause, log)
	ctrl, err := game.NewController(cfg.Game(), game.Deps{
		Dice:     s.opts.NewDice(),
		Clock:    s.opts.Clock,
		Speech:   queue,
		View:     &wsView{out: conn, lines: s.lines},
		Lines:    s.lines,
		Recorder: s.opts.Recorder,
		Log:      log,
		Session:  id,
	})
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:      id,
		Remote:  remote,
		Since:   time.Now(),
		conn:    conn,
		lines:   s.lines,
		queue:   queue,
		speaker: speaker,
		ctrl:    ctrl,
		input:   game.NewInputAdapter(ctrl, s.lines, cfg.Keys(), log),
		limiter: rate.NewLimiter(rate.Limit(cfg.InputRate), cfg.InputBurst),
		log:     log,
		running: make(chan struct{}),
	}, nil
}

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
