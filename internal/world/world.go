// Package world simulates the hidden Wumpus World board the agent explores.
//
// The World owns the ground truth (pits, wumpus, gold, the agent's true position)
// and answers the three queries the agent core needs: neighbors, percepts and
// action execution. It is single-owner and not safe for concurrent use.
package world

import (
	"fmt"

	"wumpus/internal/logging"
	"wumpus/internal/types"
)

// Start is the fixed entry and exit cell.
var Start = types.Loc(1, 1)

// Cell describes the ground-truth contents of one board cell.
type Cell struct {
	Pit        bool
	Wumpus     bool // live wumpus only
	DeadWumpus bool
	Gold       bool
	Agent      bool
}

// World is one episode's environment.
type World struct {
	layout Layout

	size        int
	pits        map[types.Location]bool
	wumpus      types.Location
	wumpusAlive bool
	gold        types.Location
	goldPresent bool

	agent    types.Location
	hasGold  bool
	hasArrow bool
	outcome  types.Outcome
}

func newWorld(l Layout) *World {
	w := &World{
		layout:      l.clone(),
		size:        l.Size,
		pits:        make(map[types.Location]bool, len(l.Pits)),
		wumpus:      l.Wumpus,
		wumpusAlive: true,
		gold:        l.Gold,
		goldPresent: true,
		agent:       Start,
		hasArrow:    true,
		outcome:     types.Alive,
	}
	for _, p := range l.Pits {
		w.pits[p] = true
	}
	return w
}

// Size returns the board edge length.
func (w *World) Size() int { return w.size }

// Start returns the entry cell.
func (w *World) Start() types.Location { return Start }

// InBounds reports whether loc lies on the board.
func (w *World) InBounds(loc types.Location) bool { return loc.Within(w.size) }

// AgentLocation returns the agent's true position.
func (w *World) AgentLocation() types.Location { return w.agent }

// Outcome returns the current episode status.
func (w *World) Outcome() types.Outcome { return w.outcome }

// HasGold reports whether the agent carries the gold.
func (w *World) HasGold() bool { return w.hasGold }

// HasArrow reports whether the agent still has its arrow.
func (w *World) HasArrow() bool { return w.hasArrow }

// WumpusAlive reports whether the wumpus is still alive.
func (w *World) WumpusAlive() bool { return w.wumpusAlive }

// Layout returns the initial board configuration.
func (w *World) Layout() Layout { return w.layout.clone() }

// Cell returns the current contents of loc. Out-of-bounds cells are empty.
func (w *World) Cell(loc types.Location) Cell {
	if !w.InBounds(loc) {
		return Cell{}
	}
	return Cell{
		Pit:        w.pits[loc],
		Wumpus:     w.wumpusAlive && w.wumpus == loc,
		DeadWumpus: !w.wumpusAlive && w.wumpus == loc,
		Gold:       w.goldPresent && w.gold == loc,
		Agent:      w.agent == loc,
	}
}

// Neighbors returns the in-bounds cardinal neighbors of loc in the order
// up, down, right, left.
func (w *World) Neighbors(loc types.Location) []types.Location {
	out := make([]types.Location, 0, 4)
	for _, d := range []types.Direction{types.Up, types.Down, types.Right, types.Left} {
		if n := loc.Step(d); w.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Perceive returns what the agent would sense standing at loc.
func (w *World) Perceive(loc types.Location) types.Percept {
	var p types.Percept
	if !w.InBounds(loc) {
		return p
	}
	p.Glitter = w.goldPresent && w.gold == loc
	for _, n := range w.Neighbors(loc) {
		if w.pits[n] {
			p.Breeze = true
		}
		if w.wumpusAlive && w.wumpus == n {
			p.Stench = true
		}
	}
	return p
}

// Apply executes one action and reports the result. Once the episode is over
// every action is a no-op that repeats the terminal outcome.
func (w *World) Apply(a types.Action) types.Result {
	if w.outcome.Terminal() {
		return types.Result{Outcome: w.outcome, Message: "The episode is over."}
	}

	var res types.Result
	switch a.Kind {
	case types.ActionMove:
		res = w.move(a.Direction)
	case types.ActionGrab:
		res = w.grab()
	case types.ActionClimb:
		res = w.climb()
	case types.ActionShoot:
		res = w.shoot(a.Direction)
	default:
		res = types.Result{Message: fmt.Sprintf("Unknown action %s.", a)}
	}
	res.Outcome = w.outcome

	logging.WorldDebug("%s -> %s (%s)", a, res.Outcome, res.Message)
	return res
}

func (w *World) move(d types.Direction) types.Result {
	next := w.agent.Step(d)
	if d == types.NoDirection || !w.InBounds(next) {
		return types.Result{Bumped: true, Message: fmt.Sprintf("Bumped into a wall at %s.", w.agent)}
	}
	w.agent = next

	switch {
	case w.pits[next]:
		w.outcome = types.Died
		return types.Result{Message: fmt.Sprintf("DEATH! The agent fell into a pit at %s.", next)}
	case w.wumpusAlive && w.wumpus == next:
		w.outcome = types.Died
		return types.Result{Message: fmt.Sprintf("DEATH! The agent was eaten by the wumpus at %s.", next)}
	}
	return types.Result{Message: fmt.Sprintf("Moved to %s.", next)}
}

func (w *World) grab() types.Result {
	if !w.goldPresent || w.gold != w.agent {
		return types.Result{Message: "There is no gold here."}
	}
	w.goldPresent = false
	w.hasGold = true
	return types.Result{ItemCollected: true, Message: "The agent found the gold!"}
}

func (w *World) climb() types.Result {
	if w.agent != Start {
		return types.Result{Message: fmt.Sprintf("You can only climb out from %s.", Start)}
	}
	if w.hasGold {
		w.outcome = types.ExitedWithItem
		return types.Result{Message: "VICTORY! The agent escaped with the gold."}
	}
	w.outcome = types.ExitedEmpty
	return types.Result{Message: "The agent escaped without the gold."}
}

func (w *World) shoot(d types.Direction) types.Result {
	if !w.hasArrow {
		return types.Result{Message: "The agent has no arrow left."}
	}
	w.hasArrow = false

	if d != types.NoDirection && w.wumpusAlive {
		for cell := w.agent.Step(d); w.InBounds(cell); cell = cell.Step(d) {
			if cell == w.wumpus {
				w.wumpusAlive = false
				return types.Result{HazardKilled: true, Message: "A scream echoes. The wumpus is dead."}
			}
		}
	}
	return types.Result{Message: fmt.Sprintf("The arrow flew %s and missed.", d)}
}
