package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpus/internal/types"
	"wumpus/internal/world"
)

func deterministic() Config {
	cfg := DefaultConfig()
	cfg.Shuffle = false
	return cfg
}

func TestAgentStartsSafeAndVisited(t *testing.T) {
	w := world.MustFromLayout(world.Layout{Size: 4, Gold: types.Loc(3, 3), Wumpus: types.Loc(4, 4)})
	a := NewAgent(w, deterministic(), nil)

	assert.True(t, a.Store().Holds(types.F(types.Safe, 1, 1)))
	st := a.State()
	assert.True(t, st.Visited[types.Loc(1, 1)])
	assert.Empty(t, st.Path)
	assert.True(t, st.HasArrow)
	assert.False(t, a.Done())
}

func TestEndToEndVictory(t *testing.T) {
	layout := world.Layout{Size: 4, Gold: types.Loc(3, 3), Wumpus: types.Loc(4, 4)}

	for seed := uint64(0); seed < 20; seed++ {
		w := world.MustFromLayout(layout)
		a := NewAgent(w, DefaultConfig(), world.NewRand(seed))

		var grabbedAt []types.Location
		a.Subscribe(ObserverFunc(func(rec StepRecord) {
			if rec.Result.ItemCollected {
				grabbedAt = append(grabbedAt, rec.Location)
			}
		}))

		outcome, err := a.Run(context.Background(), 200)
		require.NoError(t, err)
		assert.Equal(t, types.ExitedWithItem, outcome, "seed %d", seed)
		assert.Equal(t, []types.Location{types.Loc(3, 3)}, grabbedAt, "seed %d", seed)
		assert.Equal(t, types.Loc(1, 1), w.AgentLocation(), "seed %d", seed)
		assert.Less(t, a.Steps(), 200)
		assert.Empty(t, a.Store().FactsOf(types.Glitter), "glitter is retracted after the grab")
	}
}

func TestAgentKillsPinnedWumpus(t *testing.T) {
	w := world.MustFromLayout(world.Layout{Size: 4, Gold: types.Loc(4, 4), Wumpus: types.Loc(1, 3)})
	a := NewAgent(w, deterministic(), nil)

	var shot *StepRecord
	a.Subscribe(ObserverFunc(func(rec StepRecord) {
		if rec.Action.Kind == types.ActionShoot {
			r := rec
			shot = &r
		}
	}))

	outcome, err := a.Run(context.Background(), 200)
	require.NoError(t, err)
	require.NotNil(t, shot)

	assert.Equal(t, types.Loc(2, 3), shot.Location)
	assert.Equal(t, types.Shoot(types.Left), shot.Action)
	assert.Equal(t, ReasonShootKnown, shot.Reason)
	assert.True(t, shot.Result.HazardKilled)
	assert.Contains(t, shot.Retracted, types.F(types.WumpusAt, 1, 3))
	assert.Contains(t, shot.Retracted, types.F(types.Stench, 1, 2))
	assert.Contains(t, shot.Added, types.F(types.NoStench, 1, 2))

	assert.Empty(t, a.Store().FactsOf(types.WumpusAt))
	assert.Empty(t, a.Store().FactsOf(types.Stench))
	assert.True(t, a.Store().Holds(types.F(types.Danger, 1, 3)))
	assert.False(t, a.State().HasArrow)
	assert.Equal(t, types.ExitedWithItem, outcome)
}

func TestKnowledgeInvariantsAcrossGeneratedWorlds(t *testing.T) {
	for seed := uint64(0); seed < 40; seed++ {
		w, err := world.Generate(4+int(seed%3), world.DefaultPitProbability, world.NewRand(seed))
		require.NoError(t, err)
		a := NewAgent(w, DefaultConfig(), world.NewRand(seed+1000))

		for i := 0; i < 100 && !a.Done(); i++ {
			before := a.Store().Snapshot()
			rec := a.Step()
			after := a.Store().Snapshot()

			for _, lost := range before.Diff(after) {
				assert.Contains(t, rec.Retracted, lost, "seed %d step %d: %s vanished silently", seed, rec.N, lost)
				assert.Contains(t, []types.Kind{types.WumpusAt, types.Stench, types.Glitter, types.Safe}, lost.Kind,
					"seed %d step %d: %s must not be retracted", seed, rec.N, lost)
			}
			for _, f := range after.FactsOf(types.Safe) {
				assert.False(t, after.Holds(types.Fact{Kind: types.Danger, At: f.At}),
					"seed %d step %d: %s is both Safe and Danger", seed, rec.N, f.At)
			}

			if !rec.Result.HazardKilled {
				again := a.engine.Infer(&a.state)
				assert.Empty(t, again.Added, "seed %d step %d: inference was not at a fixpoint", seed, rec.N)
			}
		}
	}
}

func TestRunHonorsStepLimitAndContext(t *testing.T) {
	layout := world.Layout{Size: 6, Gold: types.Loc(6, 6), Wumpus: types.Loc(6, 1)}

	a := NewAgent(world.MustFromLayout(layout), deterministic(), nil)
	outcome, err := a.Run(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, types.Alive, outcome)
	assert.Equal(t, 3, a.Steps())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewAgent(world.MustFromLayout(layout), deterministic(), nil)
	_, err = b.Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, b.Steps())
}

func TestStepAfterEpisodeEnds(t *testing.T) {
	// Gold next to the start keeps the episode short.
	w := world.MustFromLayout(world.Layout{Size: 3, Gold: types.Loc(1, 2), Wumpus: types.Loc(3, 3)})
	a := NewAgent(w, deterministic(), nil)

	_, err := a.Run(context.Background(), 50)
	require.NoError(t, err)
	require.True(t, a.Done())
	assert.Equal(t, types.ExitedWithItem, a.Outcome())

	steps := a.Steps()
	assert.Equal(t, StepRecord{}, a.Step())
	assert.Equal(t, steps, a.Steps())
}

func TestAgentDiesInUndetectedPit(t *testing.T) {
	// NoStench propagation alone marks the pit cell Safe; the agent walks into it.
	w := world.MustFromLayout(world.Layout{
		Size:   3,
		Gold:   types.Loc(3, 3),
		Wumpus: types.Loc(3, 1),
		Pits:   []types.Location{types.Loc(1, 2)},
	})
	a := NewAgent(w, deterministic(), nil)

	outcome, err := a.Run(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, types.Died, outcome)
	assert.False(t, a.State().Alive)
}
