package core

import (
	"math/rand/v2"

	"wumpus/internal/logging"
	"wumpus/internal/mangle"
	"wumpus/internal/types"
)

// Reason names the policy branch that produced a decision.
type Reason string

const (
	ReasonCollect    Reason = "collect"
	ReasonExit       Reason = "exit"
	ReasonReturn     Reason = "return_home"
	ReasonShootKnown Reason = "shoot_known_wumpus"
	ReasonShootGuess Reason = "shoot_suspected_danger"
	ReasonExplore    Reason = "explore_safe"
	ReasonRisky      Reason = "explore_risky"
	ReasonBacktrack  Reason = "backtrack"
	ReasonGiveUp     Reason = "give_up"
)

// Decision is the action chosen for one step and the branch that chose it.
type Decision struct {
	Action types.Action
	Reason Reason
}

// Policy selects the next action from the fact store and the agent's state.
//
// Branches are evaluated in strict priority order:
//
//  1. glitter here and the item not yet held: grab
//  2. holding the item on the start cell: climb
//  3. holding the item elsewhere: retrace the path toward the start
//  4. arrow in hand: shoot a single known wumpus on the same row or column, or,
//     once two stenches are recorded, an unvisited Danger neighbor
//  5. move: a Safe unvisited neighbor; else retreat along the path stack toward
//     Safe visited ground; else an unknown neighbor when no breeze is recorded here
//     and enough cells were visited; else climb out from the start.
type Policy struct {
	store *mangle.Store
	board Board
	cfg   Config
	rng   *rand.Rand
}

// NewPolicy creates a policy. A nil rng keeps the fixed Up, Down, Left, Right order.
func NewPolicy(store *mangle.Store, board Board, cfg Config, rng *rand.Rand) *Policy {
	return &Policy{store: store, board: board, cfg: cfg, rng: rng}
}

// Decide picks the next action. Forward moves push the current location onto the
// state's path stack and retreats pop it.
func (p *Policy) Decide(st *State) Decision {
	here := st.Location
	start := p.board.Start()

	if !st.HasItem && p.holds(types.Glitter, here) {
		return p.decided(types.Grab, ReasonCollect)
	}
	if st.HasItem && here == start {
		return p.decided(types.Climb, ReasonExit)
	}
	if st.HasItem {
		return p.retreat(st, ReasonReturn)
	}

	if st.HasArrow {
		if d, ok := p.shoot(st); ok {
			return d
		}
	}

	return p.explore(st)
}

func (p *Policy) shoot(st *State) (Decision, bool) {
	here := st.Location

	wumpus := p.store.FactsOf(types.WumpusAt)
	if len(wumpus) == 1 {
		if dir, ok := types.DirectionTo(here, wumpus[0].At); ok {
			return p.decided(types.Shoot(dir), ReasonShootKnown), true
		}
		return Decision{}, false
	}

	if len(p.store.FactsOf(types.Stench)) >= 2 {
		for _, dir := range types.Directions {
			n := here.Step(dir)
			if !n.Within(p.board.Size()) || st.Visited[n] {
				continue
			}
			if p.holds(types.Danger, n) {
				return p.decided(types.Shoot(dir), ReasonShootGuess), true
			}
		}
	}
	return Decision{}, false
}

func (p *Policy) explore(st *State) Decision {
	here := st.Location

	var preferred, risky []types.Direction
	breezeHere := p.holds(types.Breeze, here)
	for _, dir := range p.moveOrder() {
		n := here.Step(dir)
		if !n.Within(p.board.Size()) || p.holds(types.Danger, n) {
			continue
		}
		switch {
		case p.holds(types.Safe, n) && !st.Visited[n]:
			preferred = append(preferred, dir)
		case !p.holds(types.Safe, n) && !breezeHere:
			risky = append(risky, dir)
		}
	}

	if len(preferred) > 0 {
		st.push(here)
		return p.decided(types.Move(preferred[0]), ReasonExplore)
	}
	if len(st.Path) > 0 {
		return p.retreat(st, ReasonBacktrack)
	}
	if len(risky) > 0 && len(st.Visited) >= p.cfg.RiskyMinVisited {
		st.push(here)
		return p.decided(types.Move(risky[0]), ReasonRisky)
	}
	if here != p.board.Start() {
		return p.decided(types.Move(p.toward(here, p.board.Start())), ReasonBacktrack)
	}
	return p.decided(types.Climb, ReasonGiveUp)
}

// retreat pops the most recent forward origin and steps toward it. With an empty
// stack it heads for the start cell.
func (p *Policy) retreat(st *State, reason Reason) Decision {
	for {
		target, ok := st.pop()
		if !ok {
			target = p.board.Start()
		}
		if target != st.Location {
			return p.decided(types.Move(p.toward(st.Location, target)), reason)
		}
		if !ok {
			return p.decided(types.Climb, ReasonExit)
		}
	}
}

// toward returns a direction from here toward target: the direct step when adjacent,
// else a non-danger step that reduces the distance, else any in-bounds step.
func (p *Policy) toward(here, target types.Location) types.Direction {
	if here.Adjacent(target) {
		dir, _ := types.DirectionTo(here, target)
		return dir
	}
	var fallback types.Direction
	for _, dir := range types.Directions {
		n := here.Step(dir)
		if !n.Within(p.board.Size()) {
			continue
		}
		if fallback == types.NoDirection {
			fallback = dir
		}
		if n.Distance(target) < here.Distance(target) && !p.holds(types.Danger, n) {
			return dir
		}
	}
	return fallback
}

func (p *Policy) moveOrder() []types.Direction {
	order := append([]types.Direction(nil), types.Directions...)
	if p.cfg.Shuffle && p.rng != nil {
		p.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	return order
}

func (p *Policy) holds(kind types.Kind, loc types.Location) bool {
	return p.store.Holds(types.Fact{Kind: kind, At: loc})
}

func (p *Policy) decided(a types.Action, r Reason) Decision {
	logging.PolicyDebug("decide %s (%s)", a, r)
	return Decision{Action: a, Reason: r}
}
