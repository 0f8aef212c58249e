// Package speech serializes narration so that at most one utterance plays at a time.
package speech

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pefman/cosmic-race/internal/engine"
)

// DefaultPause is the gap left between two utterances.
const DefaultPause = 150 * time.Millisecond

// ErrUnavailable is returned by speakers that cannot produce audio at all.
var ErrUnavailable = errors.New("speech synthesis unavailable")

// Utterance is one narration request.
type Utterance struct {
	ID   uint64
	Text string
}

// Speaker is the playback platform. For every Speak call that returns nil the
// platform must later call Queue.Complete exactly once with the same ID.
// A non-nil error from Speak counts as that completion. Both methods are
// called with the queue locked: they must not block or call back into it.
type Speaker interface {
	Speak(u Utterance) error
	Cancel()
}

// Queue plays utterances one at a time in submission order.
type Queue struct {
	mu      sync.Mutex
	speaker Speaker
	clock   engine.Scheduler
	pause   time.Duration
	log     zerolog.Logger

	gen      uint64
	nextID   uint64
	pending  []Utterance
	inFlight *Utterance
	gap      engine.Timer
	waiters  []func()
}

// NewQueue builds an empty queue. A zero pause disables the inter-utterance gap.
func NewQueue(speaker Speaker, clock engine.Scheduler, pause time.Duration, log zerolog.Logger) *Queue {
	if clock == nil {
		clock = engine.WallClock()
	}
	return &Queue{
		speaker: speaker,
		clock:   clock,
		pause:   pause,
		log:     log.With().Str("component", "speech").Logger(),
	}
}

// Enqueue appends text to the queue and starts playback if nothing is playing.
func (q *Queue) Enqueue(text string) uint64 {
	q.mu.Lock()
	q.nextID++
	u := Utterance{ID: q.nextID, Text: text}
	q.pending = append(q.pending, u)
	waiters := q.kickLocked()
	q.mu.Unlock()

	runAll(waiters)
	return u.ID
}

// Complete reports the end of an utterance, successful or not. Unknown or
// repeated IDs are ignored. It reports whether the signal was accepted.
func (q *Queue) Complete(id uint64, err error) bool {
	q.mu.Lock()
	if q.inFlight == nil || q.inFlight.ID != id {
		q.mu.Unlock()
		return false
	}
	waiters := q.finishLocked(err)
	waiters = append(waiters, q.kickLocked()...)
	q.mu.Unlock()

	runAll(waiters)
	return true
}

// finishLocked clears the in-flight utterance and opens the inter-utterance gap.
// It returns the idle waiters to release when nothing else is queued.
func (q *Queue) finishLocked(err error) []func() {
	if err != nil {
		q.log.Debug().Err(err).Uint64("utterance", q.inFlight.ID).Msg("playback failed, skipping")
	}
	q.inFlight = nil
	if q.pause > 0 {
		gen := q.gen
		q.gap = q.clock.AfterFunc(q.pause, func() { q.endGap(gen) })
	}
	if len(q.pending) == 0 {
		return q.takeWaitersLocked()
	}
	return nil
}

func (q *Queue) endGap(gen uint64) {
	q.mu.Lock()
	if gen != q.gen {
		q.mu.Unlock()
		return
	}
	q.gap = nil
	waiters := q.kickLocked()
	q.mu.Unlock()

	runAll(waiters)
}

// kickLocked hands the head utterance to the speaker when the queue is free.
// Speak runs under the lock, so a Reset can never land between picking an
// utterance and sending it. A failed Speak counts as its completion.
func (q *Queue) kickLocked() []func() {
	var waiters []func()
	for {
		u, ok := q.startNextLocked()
		if !ok {
			return waiters
		}
		err := q.speaker.Speak(u)
		if err == nil {
			return waiters
		}
		waiters = append(waiters, q.finishLocked(err)...)
	}
}

// startNextLocked moves the head into flight when the queue is free to play.
func (q *Queue) startNextLocked() (Utterance, bool) {
	if q.inFlight != nil || q.gap != nil || len(q.pending) == 0 {
		return Utterance{}, false
	}
	u := q.pending[0]
	q.pending = q.pending[1:]
	q.inFlight = &u
	return u, true
}

func runAll(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

// IsIdle reports whether nothing is playing and nothing is waiting.
func (q *Queue) IsIdle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idleLocked()
}

func (q *Queue) idleLocked() bool {
	return q.inFlight == nil && len(q.pending) == 0
}

// Len returns the number of utterances waiting or playing.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.pending)
	if q.inFlight != nil {
		n++
	}
	return n
}

// WhenIdle calls fn once the queue is idle, immediately if it already is.
// fn runs on whichever goroutine drives the idle transition.
func (q *Queue) WhenIdle(fn func()) {
	q.mu.Lock()
	if q.idleLocked() {
		q.mu.Unlock()
		fn()
		return
	}
	q.waiters = append(q.waiters, fn)
	q.mu.Unlock()
}

// AwaitIdle blocks until the queue is idle or ctx is done.
func (q *Queue) AwaitIdle(ctx context.Context) error {
	done := make(chan struct{})
	var once sync.Once
	q.WhenIdle(func() { once.Do(func() { close(done) }) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset cancels playback and drops everything queued. Completions for
// utterances issued before the reset are ignored afterwards.
func (q *Queue) Reset() {
	q.mu.Lock()
	q.gen++
	playing := q.inFlight != nil
	q.inFlight = nil
	q.pending = nil
	if q.gap != nil {
		q.gap.Stop()
		q.gap = nil
	}
	if playing {
		q.speaker.Cancel()
	}
	waiters := q.takeWaitersLocked()
	q.mu.Unlock()

	runAll(waiters)
}

func (q *Queue) takeWaitersLocked() []func() {
	w := q.waiters
	q.waiters = nil
	return w
}
