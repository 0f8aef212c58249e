package engine

import "time"

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call stopped it.
	Stop() bool
}

// Scheduler runs callbacks after a delay. Callbacks run on their own goroutine;
// owners must hand the work back to whatever goroutine owns their state.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type wallClock struct{}

// WallClock schedules on the real clock via time.AfterFunc.
func WallClock() Scheduler { return wallClock{} }

func (wallClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
