// Package session runs one wumpus episode: a world, the agent exploring it and the
// optional journal recording every step.
//
// Architecture:
//
//	World.Perceive → Interpreter → InferenceEngine → Policy → World.Apply → Journal/Observers
//
// An Episode is safe for use from several goroutines. Observers run with the episode
// lock held and must not call back into the episode.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"wumpus/internal/articulation"
	"wumpus/internal/core"
	"wumpus/internal/logging"
	"wumpus/internal/store"
	"wumpus/internal/types"
	"wumpus/internal/world"
)

// ErrEpisodeOver is returned by Step once the episode has ended.
var ErrEpisodeOver = errors.New("episode is over")

// Session-level outcomes in addition to the environment outcomes.
const (
	OutcomeStepLimit = "step_limit"
	OutcomeAbandoned = "abandoned"
)

// Options configures an episode.
type Options struct {
	// Seed is recorded with the episode and seeds the agent's move shuffling.
	Seed uint64
	// MaxSteps ends the episode with OutcomeStepLimit. 0 means no limit.
	MaxSteps int
	Agent    core.Config
	// Journal, when non-nil, receives the episode and every step.
	Journal *store.Journal
}

// DefaultOptions returns the default episode options.
func DefaultOptions() Options {
	return Options{
		MaxSteps: 50,
		Agent:    core.DefaultConfig(),
	}
}

// Episode is one run of the agent through a world.
type Episode struct {
	mu sync.Mutex

	id        string
	opts      Options
	world     *world.World
	agent     *core.Agent
	history   []core.StepRecord
	observers []core.Observer

	outcome  string // empty while running
	started  time.Time
	finished time.Time
}

// New starts an episode in w.
func New(w *world.World, opts Options) (*Episode, error) {
	if w == nil {
		return nil, fmt.Errorf("session: nil world")
	}
	e := &Episode{opts: opts}
	if err := e.begin(w); err != nil {
		return nil, err
	}
	return e, nil
}

// begin resets all per-episode state. Callers hold the lock or own e exclusively.
func (e *Episode) begin(w *world.World) error {
	e.id = uuid.NewString()
	e.world = w
	e.agent = core.NewAgent(w, e.opts.Agent, world.NewRand(e.opts.Seed))
	e.history = nil
	e.outcome = ""
	e.started = time.Now()
	e.finished = time.Time{}

	if e.opts.Journal != nil {
		if err := e.opts.Journal.BeginEpisode(e.id, e.opts.Seed, w.Layout()); err != nil {
			return fmt.Errorf("failed to journal episode: %w", err)
		}
	}
	logging.Session("episode %s started (seed=%d size=%d max_steps=%d)", e.id, e.opts.Seed, w.Size(), e.opts.MaxSteps)
	return nil
}

// ID returns the episode's unique identifier.
func (e *Episode) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// Seed returns the seed the episode was created with.
func (e *Episode) Seed() uint64 { return e.opts.Seed }

// World returns the current world.
func (e *Episode) World() *world.World {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world
}

// Agent returns the current agent.
func (e *Episode) Agent() *core.Agent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.agent
}

// Subscribe registers an observer for every future step. Observers survive Reset.
func (e *Episode) Subscribe(o core.Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// Done reports whether the episode has ended.
func (e *Episode) Done() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outcome != ""
}

// Outcome returns the final outcome, or the agent's current status while running.
func (e *Episode) Outcome() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.outcome != "" {
		return e.outcome
	}
	return e.agent.Outcome().String()
}

// History returns a copy of the step records so far.
func (e *Episode) History() []core.StepRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.StepRecord(nil), e.history...)
}

// Step runs one agent cycle.
func (e *Episode) Step(ctx context.Context) (core.StepRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.outcome != "" {
		return core.StepRecord{}, ErrEpisodeOver
	}
	if err := ctx.Err(); err != nil {
		return core.StepRecord{}, err
	}

	rec := e.agent.Step()
	e.history = append(e.history, rec)

	if e.opts.Journal != nil {
		if err := e.opts.Journal.RecordStep(e.id, rec); err != nil {
			logging.Get(logging.CategorySession).Warn("episode %s: step %d not journaled: %v", e.id, rec.N, err)
		}
	}
	for _, o := range e.observers {
		o.OnStep(rec)
	}

	switch {
	case e.agent.Done():
		e.finish(e.agent.Outcome().String())
	case e.opts.MaxSteps > 0 && e.agent.Steps() >= e.opts.MaxSteps:
		logging.Get(logging.CategorySession).Warn("episode %s: step limit %d reached at %s",
			e.id, e.opts.MaxSteps, rec.After)
		e.finish(OutcomeStepLimit)
	}
	return rec, nil
}

// Run steps until the episode ends or ctx is cancelled, and returns the outcome.
func (e *Episode) Run(ctx context.Context) (string, error) {
	timer := logging.StartTimer(logging.CategorySession, "Run")
	defer timer.Stop()

	for !e.Done() {
		if _, err := e.Step(ctx); err != nil {
			return e.Outcome(), err
		}
	}
	return e.Outcome(), nil
}

// Reset abandons the current episode and starts a fresh one in w, or in a fresh copy of
// the current board when w is nil. The new agent starts with an empty knowledge base.
func (e *Episode) Reset(w *world.World) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if w == nil {
		fresh, err := world.FromLayout(e.world.Layout())
		if err != nil {
			return err
		}
		w = fresh
	}
	if e.outcome == "" {
		e.finish(OutcomeAbandoned)
	}
	logging.Session("episode %s reset", e.id)
	return e.begin(w)
}

func (e *Episode) finish(outcome string) {
	e.outcome = outcome
	e.finished = time.Now()
	steps := e.agent.Steps()

	if e.opts.Journal != nil {
		if err := e.opts.Journal.FinishEpisode(e.id, outcome, steps); err != nil {
			logging.Get(logging.CategorySession).Warn("episode %s: outcome not journaled: %v", e.id, err)
		}
	}
	logging.Session("episode %s finished: %s after %d steps", e.id, outcome, steps)
}

// Summary describes an episode at a glance.
type Summary struct {
	ID           string
	Seed         uint64
	Outcome      string
	Steps        int
	Facts        int
	Inferred     map[types.Kind]int // facts added over the episode, per kind
	HasGold      bool
	WumpusKilled bool
	Duration     time.Duration
}

// Won reports whether the agent climbed out with the gold.
func (s Summary) Won() bool { return s.Outcome == types.ExitedWithItem.String() }

// Summary returns the episode summary.
func (e *Episode) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Summary{
		ID:       e.id,
		Seed:     e.opts.Seed,
		Outcome:  e.outcome,
		Steps:    e.agent.Steps(),
		Facts:    e.agent.Store().Len(),
		Inferred: make(map[types.Kind]int),
		HasGold:  e.world.HasGold(),
		Duration: e.elapsed(),
	}
	if s.Outcome == "" {
		s.Outcome = e.agent.Outcome().String()
	}
	for _, rec := range e.history {
		for _, f := range rec.Added {
			s.Inferred[f.Kind]++
		}
		if rec.Result.HazardKilled {
			s.WumpusKilled = true
		}
	}
	return s
}

// Report assembles the articulation report for the episode so far.
func (e *Episode) Report() articulation.Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	outcome := e.outcome
	if outcome == "" {
		outcome = e.agent.Outcome().String()
	}
	state := e.agent.State()
	return articulation.Report{
		EpisodeID: e.id,
		Seed:      e.opts.Seed,
		Outcome:   outcome,
		Steps:     append([]core.StepRecord(nil), e.history...),
		Facts:     e.agent.Store().All(),
		Board:     articulation.Board(e.world, state.Visited),
		Layout:    e.world.Layout(),
		Duration:  e.elapsed(),
	}
}

func (e *Episode) elapsed() time.Duration {
	if e.finished.IsZero() {
		return time.Since(e.started)
	}
	return e.finished.Sub(e.started)
}
