package perception

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wumpus/internal/mangle"
	"wumpus/internal/types"
)

func TestInterpretRecordsPositiveAndNegatedFacts(t *testing.T) {
	store := mangle.NewStore(mangle.DefaultConfig())
	in := NewInterpreter(store)

	added := in.Interpret(types.Loc(2, 1), types.Percept{Breeze: true, Glitter: true})

	assert.ElementsMatch(t, []types.Fact{
		types.F(types.Breeze, 2, 1),
		types.F(types.NoStench, 2, 1),
		types.F(types.Glitter, 2, 1),
	}, added)
	assert.True(t, store.Holds(types.F(types.Breeze, 2, 1)))
	assert.False(t, store.Holds(types.F(types.NoBreeze, 2, 1)))
}

func TestInterpretFirstVisitWins(t *testing.T) {
	store := mangle.NewStore(mangle.DefaultConfig())
	in := NewInterpreter(store)

	in.Interpret(types.Loc(2, 2), types.Percept{})
	added := in.Interpret(types.Loc(2, 2), types.Percept{Breeze: true, Stench: true})

	assert.Empty(t, added, "a revisit must not re-interpret the cell")
	assert.True(t, store.Holds(types.F(types.NoBreeze, 2, 2)))
	assert.True(t, store.Holds(types.F(types.NoStench, 2, 2)))
	assert.False(t, store.Holds(types.F(types.Breeze, 2, 2)))
	assert.False(t, store.Holds(types.F(types.Stench, 2, 2)))
}

func TestInterpretSignalsAreIndependent(t *testing.T) {
	store := mangle.NewStore(mangle.DefaultConfig())
	store.Assert(types.F(types.NoStench, 3, 3))
	in := NewInterpreter(store)

	added := in.Interpret(types.Loc(3, 3), types.Percept{Stench: true, Breeze: true})

	assert.Equal(t, []types.Fact{types.F(types.Breeze, 3, 3)}, added)
	assert.False(t, store.Holds(types.F(types.Stench, 3, 3)))
}

func TestInterpretGlitterIsIdempotent(t *testing.T) {
	store := mangle.NewStore(mangle.DefaultConfig())
	in := NewInterpreter(store)

	in.Interpret(types.Loc(1, 1), types.Percept{Glitter: true})
	added := in.Interpret(types.Loc(1, 1), types.Percept{Glitter: true})

	assert.Empty(t, added)
	assert.Len(t, store.FactsOf(types.Glitter), 1)
}
