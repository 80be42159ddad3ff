// Package core implements the knowledge-based agent: the inference engine that turns
// percept facts into Safe/Danger judgments, the action-selection policy, and the step
// driver that runs one percept → infer → decide → act cycle against an Environment.
package core

import (
	"math/rand/v2"
	"sort"

	"wumpus/internal/logging"
	"wumpus/internal/mangle"
	"wumpus/internal/perception"
	"wumpus/internal/types"
)

// Board is the read-only geometry of the world.
type Board interface {
	Size() int
	Start() types.Location
	// Neighbors returns the in-bounds cardinal neighbors of loc.
	Neighbors(loc types.Location) []types.Location
}

// Environment is the world collaborator the agent acts on.
type Environment interface {
	Board
	Perceive(loc types.Location) types.Percept
	Apply(a types.Action) types.Result
	AgentLocation() types.Location
}

// InferenceConfig gates the propagation rules.
type InferenceConfig struct {
	// NoStenchSafety marks every neighbor of a NoStench cell Safe.
	NoStenchSafety bool `json:"no_stench_safety" yaml:"no_stench_safety"`
	// NoBreezeSafety marks every neighbor of a NoBreeze cell Safe.
	NoBreezeSafety bool `json:"no_breeze_safety" yaml:"no_breeze_safety"`
	// Conservative requires both pit-free and wumpus-free evidence before asserting
	// Safe. It replaces the two single-signal rules above.
	Conservative bool `json:"conservative" yaml:"conservative"`
	// MaxPasses bounds inference passes per step. 0 runs to a fixpoint.
	MaxPasses int `json:"max_passes" yaml:"max_passes" validate:"min=0"`
}

// Config holds agent configuration.
type Config struct {
	// RiskyMinVisited is how many cells must be visited before the agent steps
	// into an unknown cell.
	RiskyMinVisited int  `json:"risky_min_visited" yaml:"risky_min_visited" validate:"min=0"`
	Shuffle         bool `json:"shuffle" yaml:"shuffle"`

	Inference InferenceConfig `json:"inference" yaml:"inference"`
	Store     mangle.Config   `json:"store" yaml:"store"`
}

// DefaultConfig returns the agent defaults.
func DefaultConfig() Config {
	return Config{
		RiskyMinVisited: 4,
		Shuffle:         true,
		Inference: InferenceConfig{
			NoStenchSafety: true,
		},
		Store: mangle.DefaultConfig(),
	}
}

// State is the agent's mutable bookkeeping for one episode.
type State struct {
	Location types.Location
	Visited  map[types.Location]bool
	// Path holds the cells the agent moved forward from, most recent last.
	// An empty path means the agent stands on the start cell.
	Path     []types.Location
	HasItem  bool
	HasArrow bool
	Alive    bool
}

func (s *State) push(loc types.Location) { s.Path = append(s.Path, loc) }

func (s *State) pop() (types.Location, bool) {
	if len(s.Path) == 0 {
		return types.Location{}, false
	}
	loc := s.Path[len(s.Path)-1]
	s.Path = s.Path[:len(s.Path)-1]
	return loc, true
}

// VisitedList returns the visited cells ordered by x then y.
func (s *State) VisitedList() []types.Location {
	out := make([]types.Location, 0, len(s.Visited))
	for loc := range s.Visited {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// Agent is a knowledge-based explorer bound to one environment for one episode.
// It is not safe for concurrent use.
type Agent struct {
	cfg Config
	env Environment

	store       *mangle.Store
	interpreter *perception.Interpreter
	engine      *InferenceEngine
	policy      *Policy

	state     State
	steps     int
	outcome   types.Outcome
	observers []Observer
}

// NewAgent creates an agent standing on the environment's start cell. The start
// cell is visited and known Safe before the first step. rng drives move-order
// shuffling; a nil rng disables shuffling.
func NewAgent(env Environment, cfg Config, rng *rand.Rand) *Agent {
	store := mangle.NewStore(cfg.Store)
	start := env.Start()

	a := &Agent{
		cfg:         cfg,
		env:         env,
		store:       store,
		interpreter: perception.NewInterpreter(store),
		engine:      NewInferenceEngine(store, env, cfg.Inference),
		policy:      NewPolicy(store, env, cfg, rng),
		state: State{
			Location: start,
			Visited:  map[types.Location]bool{start: true},
			HasArrow: true,
			Alive:    true,
		},
		outcome: types.Alive,
	}
	store.Assert(types.Fact{Kind: types.Safe, At: start})

	logging.Kernel("agent created at %s on a %dx%d board", start, env.Size(), env.Size())
	return a
}

// Store exposes the agent's knowledge base.
func (a *Agent) Store() *mangle.Store { return a.store }

// State returns a copy of the agent's bookkeeping.
func (a *Agent) State() State {
	s := a.state
	s.Visited = make(map[types.Location]bool, len(a.state.Visited))
	for loc := range a.state.Visited {
		s.Visited[loc] = true
	}
	s.Path = append([]types.Location(nil), a.state.Path...)
	return s
}

// Steps returns how many steps have been taken.
func (a *Agent) Steps() int { return a.steps }

// Outcome returns the latest episode status.
func (a *Agent) Outcome() types.Outcome { return a.outcome }

// Done reports whether the episode has ended.
func (a *Agent) Done() bool { return a.outcome.Terminal() }

// Subscribe registers an observer for step records.
func (a *Agent) Subscribe(o Observer) {
	a.observers = append(a.observers, o)
}
