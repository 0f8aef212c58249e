package game

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// InputKind is the surface an input came from.
type InputKind int

const (
	InputClick InputKind = iota
	InputKey
	InputVoice
	InputVoiceError
)

// Input is one raw event from the client.
type Input struct {
	Kind       InputKind
	Key        string // key code for InputKey
	Transcript string // recognized phrase for InputVoice
	Error      string // recognizer error code for InputVoiceError
}

// Keys are the key codes bound to actions.
type Keys struct {
	Roll    string
	Voice   string
	Restart string
}

func DefaultKeys() Keys {
	return Keys{Roll: "Enter", Voice: "Space", Restart: "KeyR"}
}

// Actions are the controller entry points inputs map onto.
type Actions interface {
	Trigger(ctx context.Context) error
	AttemptHumanRoll(ctx context.Context) error
	Restart(ctx context.Context) error
	RequestListening(ctx context.Context) error
	NarrateRetry(ctx context.Context) error
}

// CommandMatcher decides whether a recognized phrase asks for a roll.
type CommandMatcher interface {
	IsRollCommand(transcript string) bool
}

// InputAdapter turns clicks, key presses and voice results into controller
// actions. It never decides on its own whether a roll is allowed.
type InputAdapter struct {
	actions Actions
	matcher CommandMatcher
	keys    Keys
	log     zerolog.Logger

	mu    sync.Mutex
	voice bool
}

func NewInputAdapter(actions Actions, matcher CommandMatcher, keys Keys, log zerolog.Logger) *InputAdapter {
	return &InputAdapter{actions: actions, matcher: matcher, keys: keys, log: log}
}

// SetVoiceAvailable records whether the client can recognize speech.
func (a *InputAdapter) SetVoiceAvailable(ok bool) {
	a.mu.Lock()
	a.voice = ok
	a.mu.Unlock()
}

func (a *InputAdapter) VoiceAvailable() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.voice
}

func (a *InputAdapter) Handle(ctx context.Context, in Input) error {
	switch in.Kind {
	case InputClick:
		return a.actions.Trigger(ctx)
	case InputKey:
		return a.handleKey(ctx, in.Key)
	case InputVoice:
		if !a.VoiceAvailable() {
			return ErrVoiceUnavailable
		}
		if a.matcher.IsRollCommand(in.Transcript) {
			return a.actions.AttemptHumanRoll(ctx)
		}
		a.log.Debug().Str("transcript", in.Transcript).Msg("voice command not understood")
		return a.actions.NarrateRetry(ctx)
	case InputVoiceError:
		return a.handleVoiceError(ctx, in.Error)
	default:
		return ErrUnknownInput
	}
}

func (a *InputAdapter) handleKey(ctx context.Context, code string) error {
	switch code {
	case "":
		return ErrUnknownInput
	case a.keys.Roll:
		return a.actions.AttemptHumanRoll(ctx)
	case a.keys.Restart:
		return a.actions.Restart(ctx)
	case a.keys.Voice:
		if !a.VoiceAvailable() {
			return ErrVoiceUnavailable
		}
		return a.actions.RequestListening(ctx)
	default:
		return ErrUnknownInput
	}
}

func (a *InputAdapter) handleVoiceError(ctx context.Context, code string) error {
	if !a.VoiceAvailable() {
		return ErrVoiceUnavailable
	}
	switch code {
	case "not-allowed", "service-not-allowed", "audio-capture":
		// permission denied or no microphone: stop offering voice for this session
		a.log.Info().Str("error", code).Msg("voice recognition disabled")
		a.SetVoiceAvailable(false)
		return ErrVoiceUnavailable
	case "aborted":
		return nil
	default:
		a.log.Debug().Str("error", code).Msg("voice recognition failed")
		return a.actions.NarrateRetry(ctx)
	}
}
