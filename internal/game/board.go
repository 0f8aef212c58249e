package game

import "fmt"

// DefaultBoardSize is the number of squares on the race track.
const DefaultBoardSize = 30

// Board tracks how far each player has advanced. Square 0 is off the board;
// reaching Size wins.
type Board struct {
	size      int
	positions map[Player]int
}

func NewBoard(size int) (*Board, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBoardSize, size)
	}
	return &Board{
		size:      size,
		positions: map[Player]int{Human: 0, Computer: 0},
	}, nil
}

func (b *Board) Size() int { return b.size }

func (b *Board) Position(p Player) int { return b.positions[p] }

// Move advances p by steps, stopping on the last square when the roll overshoots.
func (b *Board) Move(p Player, steps int) (int, error) {
	if p != Human && p != Computer {
		return 0, fmt.Errorf("%w: %d", ErrUnknownPlayer, int(p))
	}
	if steps <= 0 {
		return b.positions[p], fmt.Errorf("%w: %d", ErrInvalidSteps, steps)
	}
	pos := b.positions[p] + steps
	if pos >= b.size {
		pos = b.size
	}
	b.positions[p] = pos
	return pos, nil
}

func (b *Board) HasWon(p Player) bool { return b.positions[p] == b.size }

// Positions returns a copy of every player's square.
func (b *Board) Positions() map[Player]int {
	out := make(map[Player]int, len(b.positions))
	for p, pos := range b.positions {
		out[p] = pos
	}
	return out
}
