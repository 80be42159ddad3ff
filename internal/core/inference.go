package core

import (
	"wumpus/internal/logging"
	"wumpus/internal/mangle"
	"wumpus/internal/types"
)

// maxFixpointPasses caps fixpoint iteration. Each productive pass adds at least one
// fact and Danger is never undone, so real runs converge in a handful of passes.
const maxFixpointPasses = 256

// InferenceEngine derives Safe, Danger, PitAt and WumpusAt facts from percept facts.
//
// Rules run in order once per pass:
//
//	R1 visited cells are Safe while the agent is alive
//	R2 neighbors of NoStench (and optionally NoBreeze) cells are Safe
//	R3 a Breeze cell with exactly one not-known-safe neighbor pins a pit there
//	R4 the not-known-safe neighbors shared by pairs of Breeze cells, accumulated
//	   over all pairs, pin a pit when exactly one cell remains
//	R5, R6 the same as R3, R4 over Stench facts, pinning the wumpus
//
// Danger always wins: Safe is never asserted on a Danger cell, and asserting Danger
// retracts a Safe fact already recorded there.
type InferenceEngine struct {
	store *mangle.Store
	board Board
	cfg   InferenceConfig
}

// InferenceResult reports what one Infer call changed.
type InferenceResult struct {
	Added     []types.Fact
	Retracted []types.Fact
	Passes    int
}

// NewInferenceEngine creates an engine over store.
func NewInferenceEngine(store *mangle.Store, board Board, cfg InferenceConfig) *InferenceEngine {
	return &InferenceEngine{store: store, board: board, cfg: cfg}
}

// derivation accumulates the changes of one pass. Rule premises are read from view,
// frozen when the pass starts, so facts derived mid-pass only count next pass.
type derivation struct {
	view      mangle.Snapshot
	added     []types.Fact
	retracted []types.Fact
}

// Infer applies the rules until no pass derives anything new, or until the configured
// pass limit. Re-running over an unchanged store derives nothing.
func (e *InferenceEngine) Infer(st *State) InferenceResult {
	timer := logging.StartTimer(logging.CategoryKernel, "Infer")
	defer timer.Stop()

	limit := e.cfg.MaxPasses
	if limit <= 0 || limit > maxFixpointPasses {
		limit = maxFixpointPasses
	}

	var res InferenceResult
	for res.Passes < limit {
		d := e.pass(st)
		res.Passes++
		res.Added = append(res.Added, d.added...)
		res.Retracted = append(res.Retracted, d.retracted...)
		if len(d.added) == 0 && len(d.retracted) == 0 {
			break
		}
	}
	if res.Passes == maxFixpointPasses {
		logging.Get(logging.CategoryKernel).Warn("inference stopped at the %d pass cap", maxFixpointPasses)
	}

	if len(res.Added) > 0 {
		logging.KernelDebug("inference derived %d facts in %d passes", len(res.Added), res.Passes)
	}
	return res
}

func (e *InferenceEngine) pass(st *State) *derivation {
	d := &derivation{view: e.store.Snapshot()}

	// R1
	if st.Alive {
		for _, loc := range st.VisitedList() {
			e.assertSafe(d, loc)
		}
	}

	// R2
	if e.cfg.Conservative {
		e.conservativeSafety(d)
	} else {
		if e.cfg.NoStenchSafety {
			e.propagateSafety(d, types.NoStench)
		}
		if e.cfg.NoBreezeSafety {
			e.propagateSafety(d, types.NoBreeze)
		}
	}

	// R3, R4
	e.singleCandidate(d, types.Breeze, types.PitAt)
	e.pairIntersection(d, types.Breeze, types.PitAt)

	// R5, R6
	e.singleCandidate(d, types.Stench, types.WumpusAt)
	e.pairIntersection(d, types.Stench, types.WumpusAt)

	return d
}

// propagateSafety marks every neighbor of a cell carrying the negated percept Safe.
func (e *InferenceEngine) propagateSafety(d *derivation, negated types.Kind) {
	for _, f := range d.view.FactsOf(negated) {
		for _, n := range e.board.Neighbors(f.At) {
			e.assertSafe(d, n)
		}
	}
}

// conservativeSafety marks a cell Safe only when some neighbor recorded NoBreeze
// and some neighbor recorded NoStench.
func (e *InferenceEngine) conservativeSafety(d *derivation) {
	candidates := map[types.Location]bool{}
	for _, f := range d.view.FactsOf(types.NoBreeze) {
		for _, n := range e.board.Neighbors(f.At) {
			candidates[n] = true
		}
	}
	for _, loc := range sortedLocations(candidates) {
		pitFree, wumpusFree := false, false
		for _, m := range e.board.Neighbors(loc) {
			pitFree = pitFree || d.view.Holds(types.Fact{Kind: types.NoBreeze, At: m})
			wumpusFree = wumpusFree || d.view.Holds(types.Fact{Kind: types.NoStench, At: m})
		}
		if pitFree && wumpusFree {
			e.assertSafe(d, loc)
		}
	}
}

// singleCandidate pins a hazard when a percept cell has exactly one neighbor that is
// not yet known safe.
func (e *InferenceEngine) singleCandidate(d *derivation, percept, hazard types.Kind) {
	for _, f := range d.view.FactsOf(percept) {
		candidates := e.unsafeNeighbors(d, f.At)
		if len(candidates) == 1 {
			e.assertDanger(d, candidates[0], hazard)
		}
	}
}

// pairIntersection accumulates, over every unordered pair of distinct percept cells,
// the not-known-safe neighbors both share, and pins a hazard if exactly one remains.
func (e *InferenceEngine) pairIntersection(d *derivation, percept, hazard types.Kind) {
	cells := d.view.FactsOf(percept)
	if len(cells) < 2 {
		return
	}

	neighborSets := make([]map[types.Location]bool, len(cells))
	for i, f := range cells {
		set := map[types.Location]bool{}
		for _, n := range e.unsafeNeighbors(d, f.At) {
			set[n] = true
		}
		neighborSets[i] = set
	}

	shared := map[types.Location]bool{}
	for i := 0; i < len(cells); i++ {
		for j := i + 1; j < len(cells); j++ {
			for loc := range neighborSets[i] {
				if neighborSets[j][loc] {
					shared[loc] = true
				}
			}
		}
	}

	if len(shared) == 1 {
		for loc := range shared {
			e.assertDanger(d, loc, hazard)
		}
	}
}

func (e *InferenceEngine) unsafeNeighbors(d *derivation, loc types.Location) []types.Location {
	var out []types.Location
	for _, n := range e.board.Neighbors(loc) {
		if !d.view.Holds(types.Fact{Kind: types.Safe, At: n}) {
			out = append(out, n)
		}
	}
	return out
}

func (e *InferenceEngine) assertSafe(d *derivation, loc types.Location) {
	if e.store.Holds(types.Fact{Kind: types.Danger, At: loc}) {
		return
	}
	safe := types.Fact{Kind: types.Safe, At: loc}
	if e.store.Assert(safe) {
		d.added = append(d.added, safe)
	}
}

func (e *InferenceEngine) assertDanger(d *derivation, loc types.Location, hazard types.Kind) {
	safe := types.Fact{Kind: types.Safe, At: loc}
	if e.store.Retract(safe) {
		d.retracted = append(d.retracted, safe)
		logging.Get(logging.CategoryKernel).Warn("danger at %s overrides an earlier safe judgment", loc)
	}
	for _, f := range []types.Fact{{Kind: types.Danger, At: loc}, {Kind: hazard, At: loc}} {
		if e.store.Assert(f) {
			d.added = append(d.added, f)
			logging.Kernel("derived %s", f)
		}
	}
}

func sortedLocations(set map[types.Location]bool) []types.Location {
	facts := make([]types.Fact, 0, len(set))
	for loc := range set {
		facts = append(facts, types.Fact{At: loc})
	}
	mangle.SortFacts(facts)
	out := make([]types.Location, len(facts))
	for i, f := range facts {
		out[i] = f.At
	}
	return out
}
