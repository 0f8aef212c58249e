package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pefman/cosmic-race/internal/engine"
	"github.com/pefman/cosmic-race/internal/models"
	"github.com/pefman/cosmic-race/internal/narration"
)

// Config holds the race rules and pacing.
type Config struct {
	BoardSize int
	// RollDisplayDelay lets the die face register before the piece moves.
	RollDisplayDelay time.Duration
	// HandoffDelay separates the human's narration from the computer's announcement.
	HandoffDelay  time.Duration
	ThinkingDelay time.Duration
	VictoryDelay  time.Duration
}

func DefaultConfig() Config {
	return Config{
		BoardSize:        DefaultBoardSize,
		RollDisplayDelay: 1500 * time.Millisecond,
		HandoffDelay:     2 * time.Second,
		ThinkingDelay:    2 * time.Second,
		VictoryDelay:     time.Second,
	}
}

// Deps are the controller's collaborators. Recorder and Clock are optional.
type Deps struct {
	Dice     engine.Roller
	Clock    engine.Scheduler
	Speech   Narrator
	View     Renderer
	Lines    *narration.Catalog
	Recorder Recorder
	Log      zerolog.Logger
	// Session names the race in logs and results; a fresh uuid when empty.
	Session string
}

// Controller sequences rolls, moves, narration and handoffs for one race.
// All state changes happen on the goroutine running Run; public methods
// hand their work to it and wait for the answer.
type Controller struct {
	cfg      Config
	dice     engine.Roller
	clock    engine.Scheduler
	speech   Narrator
	view     Renderer
	lines    *narration.Catalog
	recorder Recorder
	log      zerolog.Logger
	now      func() time.Time

	inbox chan func()
	done  chan struct{}

	// loop-owned
	session  string
	gen      uint64
	state    GameState
	timerSeq uint64
	timers   map[uint64]engine.Timer
}

func NewController(cfg Config, deps Deps) (*Controller, error) {
	if cfg.BoardSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBoardSize, cfg.BoardSize)
	}
	if deps.Dice == nil || deps.Speech == nil || deps.View == nil || deps.Lines == nil {
		return nil, fmt.Errorf("controller: dice, speech, view and lines are required")
	}
	if deps.Clock == nil {
		deps.Clock = engine.WallClock()
	}
	if deps.Session == "" {
		deps.Session = uuid.NewString()
	}
	state, err := newGameState(cfg.BoardSize, time.Now())
	if err != nil {
		return nil, err
	}
	c := &Controller{
		cfg:      cfg,
		dice:     deps.Dice,
		clock:    deps.Clock,
		speech:   deps.Speech,
		view:     deps.View,
		lines:    deps.Lines,
		recorder: deps.Recorder,
		now:      time.Now,
		inbox:    make(chan func(), 64),
		done:     make(chan struct{}),
		session:  deps.Session,
		state:    state,
		timers:   map[uint64]engine.Timer{},
	}
	c.log = deps.Log.With().Str("session", c.session).Logger()
	return c, nil
}

// Session returns the id of the current race.
func (c *Controller) Session() string { return c.session }

// Run starts a fresh race and processes work until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	c.reset()
	for {
		select {
		case <-ctx.Done():
			c.stopTimers()
			c.speech.Reset()
			c.log.Debug().Msg("controller stopped")
			return nil
		case fn := <-c.inbox:
			fn()
		}
	}
}

// post queues fn on the loop without ever blocking the loop itself.
func (c *Controller) post(fn func()) {
	select {
	case c.inbox <- fn:
	case <-c.done:
	default:
		go func() {
			select {
			case c.inbox <- fn:
			case <-c.done:
			}
		}()
	}
}

// call runs fn on the loop and waits for its result.
func (c *Controller) call(ctx context.Context, fn func() error) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	reply := make(chan error, 1)
	select {
	case c.inbox <- func() { reply <- fn() }:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-c.done:
		select {
		case err := <-reply:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AttemptHumanRoll rolls for the human if the race is waiting on them.
// Every input surface goes through here.
func (c *Controller) AttemptHumanRoll(ctx context.Context) error {
	return c.call(ctx, c.attemptHumanRoll)
}

// Restart begins a new race once the previous one has been won.
func (c *Controller) Restart(ctx context.Context) error {
	return c.call(ctx, c.restart)
}

// Trigger is the primary control: roll while waiting, restart after a win.
func (c *Controller) Trigger(ctx context.Context) error {
	return c.call(ctx, func() error {
		switch c.state.Phase {
		case PhaseIdleWaitingForInput:
			return c.attemptHumanRoll()
		case PhaseEnded:
			return c.restart()
		default:
			return c.reject("trigger")
		}
	})
}

// Reset abandons whatever is in progress and starts a new race.
func (c *Controller) Reset(ctx context.Context) error {
	return c.call(ctx, func() error {
		c.reset()
		return nil
	})
}

// RequestListening shows the listening prompt and asks the client to record
// a voice command. Only valid while waiting on the human.
func (c *Controller) RequestListening(ctx context.Context) error {
	return c.call(ctx, func() error {
		if c.state.Phase != PhaseIdleWaitingForInput {
			return c.reject("listen")
		}
		c.view.SetStatus(c.lines.Listening())
		c.view.Listen()
		return nil
	})
}

// NarrateRetry asks the human to repeat a voice command.
func (c *Controller) NarrateRetry(ctx context.Context) error {
	return c.call(ctx, func() error {
		if c.state.Phase != PhaseIdleWaitingForInput {
			return c.reject("retry")
		}
		c.narrate(c.lines.NotUnderstood())
		return nil
	})
}

func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := c.call(ctx, func() error {
		snap = Snapshot{
			Session:     c.session,
			Generation:  c.gen,
			BoardSize:   c.state.Board.Size(),
			Positions:   c.state.Board.Positions(),
			Active:      c.state.Active,
			Phase:       c.state.Phase,
			Turn:        c.state.Turn,
			LastRoll:    c.state.LastRoll,
			Winner:      c.state.Winner,
			Restartable: c.state.restartable,
		}
		return nil
	})
	return snap, err
}

// Everything below runs on the loop goroutine.

func (c *Controller) reject(action string) error {
	c.log.Debug().Str("action", action).Stringer("phase", c.state.Phase).Msg("input rejected")
	return ErrInputRejected
}

func (c *Controller) setPhase(p Phase) {
	c.log.Debug().Stringer("from", c.state.Phase).Stringer("to", p).Msg("phase")
	c.state.Phase = p
}

func (c *Controller) narrate(text string) {
	c.view.SetStatus(text)
	c.speech.Enqueue(text)
}

func (c *Controller) reset() {
	c.gen++
	c.stopTimers()
	c.speech.Reset()

	state, err := newGameState(c.cfg.BoardSize, c.now())
	if err != nil {
		// size was validated in NewController
		panic(err)
	}
	c.state = state
	c.log.Info().Uint64("generation", c.gen).Int("board", c.cfg.BoardSize).Msg("race started")

	c.view.RenderBoard(c.cfg.BoardSize)
	c.view.PositionPiece(Human, 0)
	c.view.PositionPiece(Computer, 0)
	c.view.SetTrigger(TriggerRoll, true)
	c.narrate(c.lines.Welcome())
}

func (c *Controller) restart() error {
	if c.state.Phase != PhaseEnded || !c.state.restartable {
		return c.reject("restart")
	}
	c.reset()
	return nil
}

func (c *Controller) attemptHumanRoll() error {
	if c.state.Phase != PhaseIdleWaitingForInput || c.state.Active != Human {
		return c.reject("roll")
	}
	c.view.SetTrigger(TriggerRoll, false)
	c.view.SetStatus(c.lines.RollPrompt())
	c.roll(Human)
	return nil
}

// roll shows and announces a die result, then moves after the display delay.
func (c *Controller) roll(p Player) {
	c.setPhase(rollingPhase(p))
	n := c.dice.Roll()
	c.state.LastRoll = n
	c.state.Rolls[p]++
	c.log.Debug().Stringer("player", p).Int("roll", n).Msg("rolled")

	c.view.ShowDie(n)
	c.narrate(c.lines.Rolled(p.String(), n))
	c.after(c.cfg.RollDisplayDelay, func() { c.move(p, n) })
}

func (c *Controller) move(p Player, steps int) {
	if c.state.Phase != rollingPhase(p) {
		return
	}
	c.setPhase(movingPhase(p))
	pos, err := c.state.Board.Move(p, steps)
	if err != nil {
		c.log.Error().Err(err).Stringer("player", p).Msg("move skipped")
	}
	c.view.PositionPiece(p, pos)
	c.narrate(c.lines.OnSquare(p.String(), pos))

	if c.state.Board.HasWon(p) {
		c.state.Winner = p
		c.setPhase(PhaseEnded)
		c.whenNarrationDone(func() {
			c.after(c.cfg.VictoryDelay, func() { c.declareWinner(p) })
		})
		return
	}
	c.setPhase(narratingPhase(p))
	c.whenNarrationDone(func() { c.handoff(p) })
}

func (c *Controller) handoff(from Player) {
	if c.state.Phase != narratingPhase(from) {
		return
	}
	if from == Human {
		c.state.Active = Computer
		c.setPhase(PhaseComputerThinking)
		c.after(c.cfg.HandoffDelay, func() {
			if c.state.Phase != PhaseComputerThinking {
				return
			}
			c.narrate(c.lines.ComputerTurn())
			c.after(c.cfg.ThinkingDelay, func() {
				if c.state.Phase == PhaseComputerThinking {
					c.roll(Computer)
				}
			})
		})
		return
	}
	c.state.Active = Human
	c.state.Turn++
	c.setPhase(PhaseIdleWaitingForInput)
	c.view.SetTrigger(TriggerRoll, true)
	c.narrate(c.lines.YourTurn())
}

func (c *Controller) declareWinner(p Player) {
	if c.state.Phase != PhaseEnded || c.state.restartable {
		return
	}
	c.state.restartable = true
	c.log.Info().Stringer("winner", p).Int("turns", c.state.Turn).Msg("race won")
	c.narrate(c.lines.Won(p.String()))
	c.view.SetTrigger(TriggerRestart, true)
	c.record(p)
}

func (c *Controller) record(winner Player) {
	if c.recorder == nil {
		return
	}
	finished := c.now()
	result := models.RaceResult{
		Session:       fmt.Sprintf("%s/%d", c.session, c.gen),
		Winner:        winner.String(),
		Turns:         c.state.Turn,
		HumanRolls:    c.state.Rolls[Human],
		ComputerRolls: c.state.Rolls[Computer],
		BoardSize:     c.state.Board.Size(),
		DurationMS:    finished.Sub(c.state.StartedAt).Milliseconds(),
		FinishedAt:    finished.Unix(),
	}
	recorder, log := c.recorder, c.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := recorder.RecordResult(ctx, result); err != nil {
			log.Warn().Err(err).Msg("record result")
		}
	}()
}

// after schedules fn on the loop. It is dropped if the race was reset meanwhile.
func (c *Controller) after(d time.Duration, fn func()) {
	gen := c.gen
	c.timerSeq++
	id := c.timerSeq
	c.timers[id] = c.clock.AfterFunc(d, func() {
		c.post(func() {
			delete(c.timers, id)
			if gen != c.gen {
				return
			}
			fn()
		})
	})
}

// whenNarrationDone runs fn on the loop once the speech queue drains.
func (c *Controller) whenNarrationDone(fn func()) {
	gen := c.gen
	c.speech.WhenIdle(func() {
		c.post(func() {
			if gen != c.gen {
				return
			}
			fn()
		})
	})
}

func (c *Controller) stopTimers() {
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
