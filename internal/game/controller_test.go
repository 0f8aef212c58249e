package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/cosmic-race/internal/engine"
	"github.com/pefman/cosmic-race/internal/engine/enginetest"
	"github.com/pefman/cosmic-race/internal/models"
	"github.com/pefman/cosmic-race/internal/narration"
	"github.com/pefman/cosmic-race/internal/speech"
)

// --- fakes ---

type triggerCall struct {
	mode    TriggerMode
	enabled bool
}

type fakeView struct {
	mu       sync.Mutex
	boards   []int
	pieces   map[Player]int
	dice     []int
	statuses []string
	triggers []triggerCall
	listens  int
}

func newFakeView() *fakeView { return &fakeView{pieces: map[Player]int{}} }

func (v *fakeView) RenderBoard(size int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.boards = append(v.boards, size)
}

func (v *fakeView) PositionPiece(p Player, square int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pieces[p] = square
}

func (v *fakeView) ShowDie(value int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dice = append(v.dice, value)
}

func (v *fakeView) SetStatus(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, text)
}

func (v *fakeView) SetTrigger(mode TriggerMode, enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.triggers = append(v.triggers, triggerCall{mode, enabled})
}

func (v *fakeView) Listen() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listens++
}

func (v *fakeView) lastTrigger() triggerCall {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.triggers[len(v.triggers)-1]
}

func (v *fakeView) lastStatus() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.statuses[len(v.statuses)-1]
}

func (v *fakeView) piece(p Player) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pieces[p]
}

type fakeSpeaker struct {
	mu      sync.Mutex
	spoken  []speech.Utterance
	current uint64
	playing bool
	cancels int
	fail    error
}

func (s *fakeSpeaker) Speak(u speech.Utterance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, u)
	if s.fail != nil {
		return s.fail
	}
	s.current, s.playing = u.ID, true
	return nil
}

func (s *fakeSpeaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
	s.playing = false
}

func (s *fakeSpeaker) take() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return 0, false
	}
	s.playing = false
	return s.current, true
}

func (s *fakeSpeaker) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.spoken))
	for i, u := range s.spoken {
		out[i] = u.Text
	}
	return out
}

func (s *fakeSpeaker) count(text string) int {
	n := 0
	for _, got := range s.texts() {
		if got == text {
			n++
		}
	}
	return n
}

type chanRecorder struct {
	results chan models.RaceResult
}

func (r *chanRecorder) RecordResult(_ context.Context, result models.RaceResult) error {
	r.results <- result
	return nil
}

// --- harness ---

type harness struct {
	c        *Controller
	cfg      Config
	clock    *enginetest.ManualClock
	speaker  *fakeSpeaker
	queue    *speech.Queue
	view     *fakeView
	lines    *narration.Catalog
	recorder *chanRecorder
}

func newHarness(t *testing.T, speaker *fakeSpeaker, rolls ...int) *harness {
	t.Helper()
	clock := enginetest.NewManualClock()
	queue := speech.NewQueue(speaker, clock, speech.DefaultPause, zerolog.Nop())
	h := &harness{
		cfg:      DefaultConfig(),
		clock:    clock,
		speaker:  speaker,
		queue:    queue,
		view:     newFakeView(),
		lines:    narration.MustNew("pt-BR"),
		recorder: &chanRecorder{results: make(chan models.RaceResult, 4)},
	}
	c, err := NewController(h.cfg, Deps{
		Dice:     engine.NewFixedRoller(rolls...),
		Clock:    clock,
		Speech:   queue,
		View:     h.view,
		Lines:    h.lines,
		Recorder: h.recorder,
		Log:      zerolog.Nop(),
	})
	require.NoError(t, err)
	h.c = c

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	h.flush(t)
	return h
}

// flush waits until the controller loop has nothing left to do.
func (h *harness) flush(t *testing.T) {
	t.Helper()
	for i := 0; i < 100; i++ {
		done := make(chan struct{})
		h.c.post(func() { close(done) })
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("controller loop stuck")
		}
		if len(h.c.inbox) == 0 {
			return
		}
	}
	t.Fatal("controller loop never settled")
}

// drainSpeech completes utterances until the queue is idle.
func (h *harness) drainSpeech(t *testing.T) {
	t.Helper()
	for i := 0; i < 100; i++ {
		h.flush(t)
		if h.queue.IsIdle() {
			h.flush(t)
			return
		}
		if id, ok := h.speaker.take(); ok {
			h.queue.Complete(id, nil)
		} else {
			h.clock.Advance(speech.DefaultPause)
		}
	}
	t.Fatal("speech never drained")
}

func (h *harness) advance(t *testing.T, d time.Duration) {
	t.Helper()
	h.clock.Advance(d)
	h.flush(t)
}

func (h *harness) snapshot(t *testing.T) Snapshot {
	t.Helper()
	snap, err := h.c.Snapshot(context.Background())
	require.NoError(t, err)
	return snap
}

func (h *harness) setPosition(t *testing.T, p Player, square int) {
	t.Helper()
	require.NoError(t, h.c.call(context.Background(), func() error {
		h.c.state.Board.positions[p] = square
		return nil
	}))
}

// --- tests ---

func TestNewControllerValidates(t *testing.T) {
	_, err := NewController(Config{BoardSize: 0}, Deps{})
	assert.ErrorIs(t, err, ErrInvalidBoardSize)

	_, err = NewController(DefaultConfig(), Deps{})
	assert.Error(t, err)
}

func TestControllerStartsRace(t *testing.T) {
	h := newHarness(t, &fakeSpeaker{}, 1)

	snap := h.snapshot(t)
	assert.Equal(t, PhaseIdleWaitingForInput, snap.Phase)
	assert.Equal(t, Human, snap.Active)
	assert.Equal(t, map[Player]int{Human: 0, Computer: 0}, snap.Positions)
	assert.Equal(t, []int{DefaultBoardSize}, h.view.boards)
	assert.Equal(t, triggerCall{TriggerRoll, true}, h.view.lastTrigger())
	assert.Equal(t, []string{h.lines.Welcome()}, h.speaker.texts())
}

func TestFullTurnCycle(t *testing.T) {
	h := newHarness(t, &fakeSpeaker{}, 6, 4)
	ctx := context.Background()

	require.NoError(t, h.c.AttemptHumanRoll(ctx))
	assert.ErrorIs(t, h.c.AttemptHumanRoll(ctx), ErrInputRejected, "second roll while the first resolves")

	snap := h.snapshot(t)
	assert.Equal(t, PhaseHumanRolling, snap.Phase)
	assert.Equal(t, 0, snap.Positions[Human], "no move before the display delay")
	assert.Equal(t, []int{6}, h.view.dice)
	assert.Equal(t, triggerCall{TriggerRoll, false}, h.view.lastTrigger())

	h.advance(t, h.cfg.RollDisplayDelay)
	snap = h.snapshot(t)
	assert.Equal(t, PhaseHumanNarrating, snap.Phase)
	assert.Equal(t, 6, snap.Positions[Human])
	assert.Equal(t, 6, h.view.piece(Human))
	assert.Equal(t, "Você está na casa 6.", h.view.lastStatus())
	assert.Equal(t, 3, h.queue.Len(), "welcome still playing, roll and square queued")

	// the computer waits on narration, not on the clock
	h.advance(t, 10*time.Second)
	assert.Equal(t, PhaseHumanNarrating, h.snapshot(t).Phase)

	h.drainSpeech(t)
	snap = h.snapshot(t)
	assert.Equal(t, PhaseComputerThinking, snap.Phase)
	assert.Equal(t, Computer, snap.Active)
	assert.ErrorIs(t, h.c.AttemptHumanRoll(ctx), ErrInputRejected)

	h.advance(t, h.cfg.HandoffDelay)
	assert.Equal(t, 1, h.speaker.count(h.lines.ComputerTurn()))

	h.advance(t, h.cfg.ThinkingDelay)
	snap = h.snapshot(t)
	assert.Equal(t, PhaseComputerRolling, snap.Phase)
	assert.Equal(t, []int{6, 4}, h.view.dice)

	h.advance(t, h.cfg.RollDisplayDelay)
	snap = h.snapshot(t)
	assert.Equal(t, PhaseComputerNarrating, snap.Phase)
	assert.Equal(t, 4, snap.Positions[Computer])
	assert.Equal(t, 6, snap.Positions[Human])

	h.drainSpeech(t)
	snap = h.snapshot(t)
	assert.Equal(t, PhaseIdleWaitingForInput, snap.Phase)
	assert.Equal(t, Human, snap.Active)
	assert.Equal(t, 2, snap.Turn)
	assert.Equal(t, triggerCall{TriggerRoll, true}, h.view.lastTrigger())
	assert.Equal(t, 1, h.speaker.count(h.lines.YourTurn()))

	assert.Equal(t, []string{
		h.lines.Welcome(),
		"Você tirou 6!",
		"Você está na casa 6.",
		h.lines.ComputerTurn(),
		"O computador tirou 4!",
		"O computador está na casa 4.",
		h.lines.YourTurn(),
	}, h.speaker.texts())
}

func TestHumanWinsOnOvershoot(t *testing.T) {
	h := newHarness(t, &fakeSpeaker{}, 5)
	ctx := context.Background()
	h.setPosition(t, Human, 27)

	require.NoError(t, h.c.AttemptHumanRoll(ctx))
	h.advance(t, h.cfg.RollDisplayDelay)

	snap := h.snapshot(t)
	assert.Equal(t, PhaseEnded, snap.Phase)
	assert.Equal(t, Human, snap.Winner)
	assert.Equal(t, 30, snap.Positions[Human])
	assert.Equal(t, 0, snap.Positions[Computer])
	assert.False(t, snap.Restartable)
	assert.ErrorIs(t, h.c.AttemptHumanRoll(ctx), ErrInputRejected)
	assert.ErrorIs(t, h.c.Trigger(ctx), ErrInputRejected, "restart is not offered until the victory line")

	h.drainSpeech(t)
	h.advance(t, h.cfg.VictoryDelay)

	snap = h.snapshot(t)
	assert.True(t, snap.Restartable)
	assert.Equal(t, triggerCall{TriggerRestart, true}, h.view.lastTrigger())
	assert.Equal(t, h.lines.Won("human"), h.view.lastStatus())

	h.drainSpeech(t)
	h.advance(t, time.Minute)
	assert.Equal(t, 1, h.speaker.count(h.lines.Won("human")))
	assert.Equal(t, PhaseEnded, h.snapshot(t).Phase)
	assert.ErrorIs(t, h.c.AttemptHumanRoll(ctx), ErrInputRejected)
	assert.ErrorIs(t, h.c.RequestListening(ctx), ErrInputRejected)

	select {
	case result := <-h.recorder.results:
		assert.Equal(t, "human", result.Winner)
		assert.Equal(t, 1, result.HumanRolls)
		assert.Equal(t, 0, result.ComputerRolls)
		assert.Equal(t, DefaultBoardSize, result.BoardSize)
	case <-time.After(2 * time.Second):
		t.Fatal("result was not recorded")
	}

	require.NoError(t, h.c.Trigger(ctx))
	snap = h.snapshot(t)
	assert.Equal(t, PhaseIdleWaitingForInput, snap.Phase)
	assert.Equal(t, map[Player]int{Human: 0, Computer: 0}, snap.Positions)
	assert.Equal(t, NoPlayer, snap.Winner)
	assert.Equal(t, triggerCall{TriggerRoll, true}, h.view.lastTrigger())
}

func TestComputerCanWin(t *testing.T) {
	h := newHarness(t, &fakeSpeaker{}, 1, 6)
	ctx := context.Background()
	h.setPosition(t, Computer, 28)

	require.NoError(t, h.c.AttemptHumanRoll(ctx))
	h.advance(t, h.cfg.RollDisplayDelay)
	h.drainSpeech(t)
	h.advance(t, h.cfg.HandoffDelay)
	h.advance(t, h.cfg.ThinkingDelay)
	h.advance(t, h.cfg.RollDisplayDelay)

	snap := h.snapshot(t)
	assert.Equal(t, PhaseEnded, snap.Phase)
	assert.Equal(t, Computer, snap.Winner)
	assert.Equal(t, 30, snap.Positions[Computer])
	assert.Equal(t, 1, snap.Positions[Human])

	h.drainSpeech(t)
	h.advance(t, h.cfg.VictoryDelay)
	assert.Equal(t, 1, h.speaker.count(h.lines.Won("computer")))
	assert.ErrorIs(t, h.c.AttemptHumanRoll(ctx), ErrInputRejected)
	require.NoError(t, h.c.Restart(ctx))
}

func TestRestartOnlyAfterWin(t *testing.T) {
	h := newHarness(t, &fakeSpeaker{}, 3)
	assert.ErrorIs(t, h.c.Restart(context.Background()), ErrInputRejected)
}

func TestResetDiscardsInFlightTurn(t *testing.T) {
	sp := &fakeSpeaker{}
	h := newHarness(t, sp, 6, 6)
	ctx := context.Background()

	require.NoError(t, h.c.AttemptHumanRoll(ctx))
	require.NoError(t, h.c.Reset(ctx))

	// the pending move belongs to the old race
	h.advance(t, h.cfg.RollDisplayDelay)
	snap := h.snapshot(t)
	assert.Equal(t, PhaseIdleWaitingForInput, snap.Phase)
	assert.Equal(t, map[Player]int{Human: 0, Computer: 0}, snap.Positions)
	assert.Equal(t, 1, h.queue.Len(), "only the new welcome is queued")
	assert.Equal(t, 1, sp.cancels)
	assert.Equal(t, 2, len(h.view.boards))
}

func TestResetDropsStaleNarrationWaiter(t *testing.T) {
	h := newHarness(t, &fakeSpeaker{}, 2, 2)
	ctx := context.Background()

	require.NoError(t, h.c.AttemptHumanRoll(ctx))
	h.advance(t, h.cfg.RollDisplayDelay)
	require.Equal(t, PhaseHumanNarrating, h.snapshot(t).Phase)

	require.NoError(t, h.c.Reset(ctx))
	h.drainSpeech(t)
	h.advance(t, h.cfg.HandoffDelay+h.cfg.ThinkingDelay+h.cfg.RollDisplayDelay)

	snap := h.snapshot(t)
	assert.Equal(t, PhaseIdleWaitingForInput, snap.Phase)
	assert.Equal(t, Human, snap.Active)
	assert.Equal(t, 0, snap.Positions[Computer])
	assert.Equal(t, []int{2}, h.view.dice, "the computer never rolled for the abandoned race")
}

func TestListeningAndRetry(t *testing.T) {
	h := newHarness(t, &fakeSpeaker{}, 4)
	ctx := context.Background()

	require.NoError(t, h.c.RequestListening(ctx))
	assert.Equal(t, 1, h.view.listens)
	assert.Equal(t, h.lines.Listening(), h.view.lastStatus())
	assert.Equal(t, 0, h.speaker.count(h.lines.Listening()), "listening prompt is shown, not spoken")

	require.NoError(t, h.c.NarrateRetry(ctx))
	assert.Equal(t, h.lines.NotUnderstood(), h.view.lastStatus())
	assert.Equal(t, PhaseIdleWaitingForInput, h.snapshot(t).Phase)

	require.NoError(t, h.c.AttemptHumanRoll(ctx))
	assert.ErrorIs(t, h.c.RequestListening(ctx), ErrInputRejected)
	assert.ErrorIs(t, h.c.NarrateRetry(ctx), ErrInputRejected)
}

func TestRaceRunsWithoutSpeechSynthesis(t *testing.T) {
	h := newHarness(t, &fakeSpeaker{fail: speech.ErrUnavailable}, 6, 4)

	require.NoError(t, h.c.AttemptHumanRoll(context.Background()))
	for i := 0; i < 200; i++ {
		h.advance(t, 100*time.Millisecond)
		if h.snapshot(t).Phase == PhaseIdleWaitingForInput {
			break
		}
	}

	snap := h.snapshot(t)
	assert.Equal(t, PhaseIdleWaitingForInput, snap.Phase)
	assert.Equal(t, 6, snap.Positions[Human])
	assert.Equal(t, 4, snap.Positions[Computer])
}

func TestCallsAfterStopReturnErrClosed(t *testing.T) {
	clock := enginetest.NewManualClock()
	queue := speech.NewQueue(&fakeSpeaker{}, clock, 0, zerolog.Nop())
	c, err := NewController(DefaultConfig(), Deps{
		Dice:   engine.NewFixedRoller(1),
		Clock:  clock,
		Speech: queue,
		View:   newFakeView(),
		Lines:  narration.MustNew("en-US"),
		Log:    zerolog.Nop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, c.Run(ctx))
	assert.ErrorIs(t, c.AttemptHumanRoll(context.Background()), ErrClosed)
	assert.NotEmpty(t, c.Session())
}

func TestControllerKeepsGivenSession(t *testing.T) {
	clock := enginetest.NewManualClock()
	c, err := NewController(DefaultConfig(), Deps{
		Dice:    engine.NewFixedRoller(1),
		Clock:   clock,
		Speech:  speech.NewQueue(&fakeSpeaker{}, clock, 0, zerolog.Nop()),
		View:    newFakeView(),
		Lines:   narration.MustNew("en-US"),
		Log:     zerolog.Nop(),
		Session: "conn-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "conn-42", c.Session())
}
