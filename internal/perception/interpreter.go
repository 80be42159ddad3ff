// Package perception transduces raw percept snapshots into fact-store assertions.
//
// Interpretation is first-visit-wins: once a cell has a Breeze or NoBreeze fact (and
// likewise Stench or NoStench), later percepts for that cell never change it.
package perception

import (
	"wumpus/internal/logging"
	"wumpus/internal/types"
)

// FactSink is the subset of the fact store the interpreter writes to.
type FactSink interface {
	Assert(f types.Fact) bool
	Holds(f types.Fact) bool
}

// Interpreter turns percepts into facts.
type Interpreter struct {
	store FactSink
}

// NewInterpreter creates an interpreter writing into store.
func NewInterpreter(store FactSink) *Interpreter {
	return &Interpreter{store: store}
}

// signal pairs a percept bit with its positive and negated fact kinds.
type signal struct {
	present  bool
	positive types.Kind
	negative types.Kind
}

// Interpret records the percept observed at loc and returns the facts that were new.
func (in *Interpreter) Interpret(at types.Location, p types.Percept) []types.Fact {
	var added []types.Fact

	for _, sig := range []signal{
		{present: p.Breeze, positive: types.Breeze, negative: types.NoBreeze},
		{present: p.Stench, positive: types.Stench, negative: types.NoStench},
	} {
		pos := types.Fact{Kind: sig.positive, At: at}
		neg := types.Fact{Kind: sig.negative, At: at}
		if in.store.Holds(pos) || in.store.Holds(neg) {
			continue
		}
		f := neg
		if sig.present {
			f = pos
		}
		if in.store.Assert(f) {
			added = append(added, f)
		}
	}

	if p.Glitter {
		f := types.Fact{Kind: types.Glitter, At: at}
		if in.store.Assert(f) {
			added = append(added, f)
		}
	}

	if len(added) > 0 {
		logging.PerceptionDebug("%s at %s -> %d new facts", p, at, len(added))
	}
	return added
}
