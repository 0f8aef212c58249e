package game

import (
	"context"
	"time"

	"github.com/pefman/cosmic-race/internal/models"
)

// Player identifies one of the two racers.
type Player int

const (
	NoPlayer Player = iota
	Human
	Computer
)

func (p Player) String() string {
	switch p {
	case Human:
		return "human"
	case Computer:
		return "computer"
	default:
		return "none"
	}
}

// Other returns the opponent.
func (p Player) Other() Player {
	if p == Human {
		return Computer
	}
	return Human
}

// Phase is the turn controller's position in the turn sequence.
type Phase int

const (
	PhaseIdleWaitingForInput Phase = iota
	PhaseHumanRolling
	PhaseHumanMoving
	PhaseHumanNarrating
	PhaseComputerThinking
	PhaseComputerRolling
	PhaseComputerMoving
	PhaseComputerNarrating
	PhaseEnded
)

var phaseNames = map[Phase]string{
	PhaseIdleWaitingForInput: "idle_waiting_for_input",
	PhaseHumanRolling:        "human_rolling",
	PhaseHumanMoving:         "human_moving",
	PhaseHumanNarrating:      "human_narrating",
	PhaseComputerThinking:    "computer_thinking",
	PhaseComputerRolling:     "computer_rolling",
	PhaseComputerMoving:      "computer_moving",
	PhaseComputerNarrating:   "computer_narrating",
	PhaseEnded:               "ended",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "unknown"
}

func rollingPhase(p Player) Phase {
	if p == Computer {
		return PhaseComputerRolling
	}
	return PhaseHumanRolling
}

func movingPhase(p Player) Phase {
	if p == Computer {
		return PhaseComputerMoving
	}
	return PhaseHumanMoving
}

func narratingPhase(p Player) Phase {
	if p == Computer {
		return PhaseComputerNarrating
	}
	return PhaseHumanNarrating
}

// GameState is one race. Only the controller's loop goroutine touches it.
type GameState struct {
	Board     *Board
	Active    Player
	Phase     Phase
	Turn      int
	LastRoll  int
	Rolls     map[Player]int
	Winner    Player
	StartedAt time.Time

	// restartable is set once the victory line has been queued.
	restartable bool
}

func newGameState(size int, now time.Time) (GameState, error) {
	board, err := NewBoard(size)
	if err != nil {
		return GameState{}, err
	}
	return GameState{
		Board:     board,
		Active:    Human,
		Phase:     PhaseIdleWaitingForInput,
		Turn:      1,
		Rolls:     map[Player]int{Human: 0, Computer: 0},
		StartedAt: now,
	}, nil
}

// Snapshot is a read-only copy of the state for callers outside the loop.
type Snapshot struct {
	Session     string
	Generation  uint64
	BoardSize   int
	Positions   map[Player]int
	Active      Player
	Phase       Phase
	Turn        int
	LastRoll    int
	Winner      Player
	Restartable bool
}

// TriggerMode is what the primary control currently does.
type TriggerMode int

const (
	TriggerRoll TriggerMode = iota
	TriggerRestart
)

func (m TriggerMode) String() string {
	if m == TriggerRestart {
		return "restart"
	}
	return "roll"
}

// Renderer draws the race. It never calls back into the controller.
type Renderer interface {
	RenderBoard(size int)
	// PositionPiece places a piece on a square; 0 means off the board.
	PositionPiece(p Player, square int)
	ShowDie(value int)
	SetStatus(text string)
	SetTrigger(mode TriggerMode, enabled bool)
	// Listen asks the client to start voice recognition.
	Listen()
}

// Narrator is the speech queue as seen by the controller.
type Narrator interface {
	Enqueue(text string) uint64
	WhenIdle(fn func())
	Reset()
}

// Recorder stores finished races.
type Recorder interface {
	RecordResult(ctx context.Context, result models.RaceResult) error
}
