package game

import "errors"

var (
	// ErrInputRejected means the action is not valid in the current phase.
	ErrInputRejected    = errors.New("input rejected")
	ErrVoiceUnavailable = errors.New("voice commands unavailable")
	ErrUnknownInput     = errors.New("unknown input")
	ErrInvalidSteps     = errors.New("steps must be positive")
	ErrInvalidBoardSize = errors.New("board size must be positive")
	ErrUnknownPlayer    = errors.New("unknown player")
	ErrClosed           = errors.New("controller stopped")
)
