package server

import (
	"errors"
	"sync/atomic"

	"github.com/pefman/cosmic-race/internal/game"
	"github.com/pefman/cosmic-race/internal/models"
	"github.com/pefman/cosmic-race/internal/narration"
	"github.com/pefman/cosmic-race/internal/speech"
)

var errClientGone = errors.New("client not reachable")

// sender is the part of wsConn the renderer and speaker need.
type sender interface {
	Send(msg models.WsMsg) bool
}

// wsView renders the race by sending draw commands to the browser.
type wsView struct {
	out   sender
	lines *narration.Catalog
}

func (v *wsView) RenderBoard(size int) {
	v.out.Send(models.WsMsg{Type: models.MsgBoard, Data: models.BoardOut{
		Size:        size,
		StartLabel:  v.lines.StartLabel(),
		FinishLabel: v.lines.FinishLabel(),
	}})
}

func (v *wsView) PositionPiece(p game.Player, square int) {
	v.out.Send(models.WsMsg{Type: models.MsgPiece, Data: models.PieceOut{Player: p.String(), Square: square}})
}

func (v *wsView) ShowDie(value int) {
	v.out.Send(models.WsMsg{Type: models.MsgDie, Data: models.DieOut{Value: value}})
}

func (v *wsView) SetStatus(text string) {
	v.out.Send(models.WsMsg{Type: models.MsgStatus, Data: models.TextOut{Text: text}})
}

func (v *wsView) SetTrigger(mode game.TriggerMode, enabled bool) {
	label := v.lines.RollLabel()
	if mode == game.TriggerRestart {
		label = v.lines.RestartLabel()
	}
	v.out.Send(models.WsMsg{Type: models.MsgTrigger, Data: models.TriggerOut{
		Mode:    mode.String(),
		Label:   label,
		Enabled: enabled,
	}})
}

func (v *wsView) Listen() {
	v.out.Send(models.WsMsg{Type: models.MsgListen, Data: models.ListenOut{Lang: v.lines.Lang()}})
}

// wsSpeaker plays utterances through the browser's speech synthesis. The
// browser answers every speak message with a spoken message carrying the id.
type wsSpeaker struct {
	out       sender
	lines     *narration.Catalog
	available atomic.Bool
}

func (s *wsSpeaker) Speak(u speech.Utterance) error {
	if !s.available.Load() {
		return speech.ErrUnavailable
	}
	ok := s.out.Send(models.WsMsg{Type: models.MsgSpeak, Data: models.SpeakOut{
		ID:   u.ID,
		Text: u.Text,
		Lang: s.lines.Lang(),
		Rate: s.lines.Rate(),
	}})
	if !ok {
		return errClientGone
	}
	return nil
}

func (s *wsSpeaker) Cancel() {
	if s.available.Load() {
		s.out.Send(models.WsMsg{Type: models.MsgHush})
	}
}
