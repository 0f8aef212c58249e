package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pefman/cosmic-race/internal/game"
	"github.com/pefman/cosmic-race/internal/models"
	"github.com/pefman/cosmic-race/internal/narration"
	"github.com/pefman/cosmic-race/internal/speech"
)

var (
	ErrBadMessage  = errors.New("bad client message")
	ErrRateLimited = errors.New("input rate exceeded")
	ErrNotStarted  = errors.New("race not started")
)

var errPlaybackFailed = errors.New("client playback failed")

// Session is one browser tab playing one race at a time.
type Session struct {
	ID      string
	Remote  string
	Since   time.Time
	conn    *wsConn
	lines   *narration.Catalog
	queue   *speech.Queue
	speaker *wsSpeaker
	ctrl    *game.Controller
	input   *game.InputAdapter
	limiter *rate.Limiter
	log     zerolog.Logger

	startOnce sync.Once
	running   chan struct{}
	wg        sync.WaitGroup
}

func (s *Session) hello(version string, keys game.Keys) models.WsMsg {
	return models.WsMsg{Type: models.MsgHello, Data: models.HelloOut{
		Session:    s.ID,
		Version:    version,
		Locale:     s.lines.Lang(),
		RollKey:    keys.Roll,
		VoiceKey:   keys.Voice,
		RestartKey: keys.Restart,
		Pieces: map[string]string{
			game.Human.String():    s.lines.PieceName(game.Human.String()),
			game.Computer.String(): s.lines.PieceName(game.Computer.String()),
		},
		VoiceWords:     s.lines.Keywords(),
		ConnectionLost: s.lines.ConnectionLost(),
	}}
}

// serve runs the session until the client leaves or ctx is done.
func (s *Session) serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.conn.Close("bye")
		s.wg.Wait()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.conn.writePump(ctx)
	}()
	go func() {
		<-ctx.Done()
		s.conn.Close("server-shutdown")
	}()

	for {
		msg, err := s.conn.Read()
		if err != nil {
			s.log.Debug().Err(err).Msg("ws: read ended")
			return
		}
		if err := s.dispatch(ctx, msg); err != nil {
			s.logDispatchError(msg.Type, err)
		}
	}
}

// start launches the controller once the client has said what it can do.
func (s *Session) start(ctx context.Context, caps models.HelloIn) {
	s.startOnce.Do(func() {
		s.speaker.available.Store(caps.Speech)
		s.input.SetVoiceAvailable(caps.Recognition)
		s.log.Info().Bool("speech", caps.Speech).Bool("recognition", caps.Recognition).Msg("race starting")
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.ctrl.Run(ctx); err != nil {
				s.log.Error().Err(err).Msg("controller stopped")
			}
		}()
		close(s.running)
	})
}

func (s *Session) started() bool {
	select {
	case <-s.running:
		return true
	default:
		return false
	}
}

func (s *Session) dispatch(ctx context.Context, msg models.ClientMsg) error {
	switch msg.Type {
	case models.InHello:
		var caps models.HelloIn
		if err := decode(msg.Data, &caps); err != nil {
			return err
		}
		s.start(ctx, caps)
		return nil
	case models.InSpoken:
		var in models.SpokenIn
		if err := decode(msg.Data, &in); err != nil {
			return err
		}
		var perr error
		if !in.OK {
			perr = fmt.Errorf("%w: %s", errPlaybackFailed, in.Error)
		}
		s.queue.Complete(in.ID, perr)
		return nil
	}

	if !s.started() {
		return ErrNotStarted
	}
	if !s.limiter.Allow() {
		return ErrRateLimited
	}

	switch msg.Type {
	case models.InClick:
		return s.input.Handle(ctx, game.Input{Kind: game.InputClick})
	case models.InKey:
		var in models.KeyIn
		if err := decode(msg.Data, &in); err != nil {
			return err
		}
		return s.input.Handle(ctx, game.Input{Kind: game.InputKey, Key: in.Code})
	case models.InVoice:
		var in models.VoiceIn
		if err := decode(msg.Data, &in); err != nil {
			return err
		}
		return s.input.Handle(ctx, game.Input{Kind: game.InputVoice, Transcript: in.Transcript})
	case models.InVoiceError:
		var in models.VoiceErrorIn
		if err := decode(msg.Data, &in); err != nil {
			return err
		}
		return s.input.Handle(ctx, game.Input{Kind: game.InputVoiceError, Error: in.Error})
	case models.InNewGame:
		return s.ctrl.Reset(ctx)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrBadMessage, msg.Type)
	}
}

func (s *Session) logDispatchError(kind string, err error) {
	switch {
	case errors.Is(err, game.ErrInputRejected), errors.Is(err, game.ErrUnknownInput):
		s.log.Debug().Str("type", kind).Err(err).Msg("ws: input ignored")
	case errors.Is(err, game.ErrVoiceUnavailable):
		s.conn.Send(models.WsMsg{Type: models.MsgNotice, Data: models.TextOut{Text: s.lines.VoiceMissing()}})
	case errors.Is(err, game.ErrClosed), errors.Is(err, context.Canceled):
		s.log.Debug().Str("type", kind).Err(err).Msg("ws: session closing")
	default:
		s.log.Warn().Str("type", kind).Err(err).Msg("ws: dropped message")
	}
}

func decode(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	return nil
}
