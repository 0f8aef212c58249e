package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// DieFaces is the number of faces on the race die.
const DieFaces = 6

// Roller produces one die roll in [1, DieFaces].
type Roller interface {
	Roll() int
}

// Die is a seeded six-sided die. Safe for concurrent use.
type Die struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDie returns a die seeded with the given value. Equal seeds give equal sequences.
func NewDie(seed int64) *Die {
	return &Die{rng: rand.New(rand.NewSource(seed))}
}

// NewRandomDie returns a die seeded from crypto/rand, falling back to the clock.
func NewRandomDie() *Die {
	seed, err := NewSeed()
	if err != nil {
		seed = time.Now().UnixNano()
	}
	return NewDie(seed)
}

func (d *Die) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return 1 + d.rng.Intn(DieFaces)
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// FixedRoller replays a fixed sequence of results, cycling when exhausted.
// Used for scripted games and tests.
type FixedRoller struct {
	mu    sync.Mutex
	seq   []int
	index int
}

func NewFixedRoller(seq ...int) *FixedRoller {
	return &FixedRoller{seq: seq}
}

func (f *FixedRoller) Roll() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.seq) == 0 {
		return 1
	}
	v := f.seq[f.index%len(f.seq)]
	f.index++
	return v
}
