package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpus/internal/core"
	"wumpus/internal/types"
	"wumpus/internal/world"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

var classic = world.Layout{
	Size:   4,
	Gold:   types.Loc(3, 3),
	Wumpus: types.Loc(4, 4),
	Pits:   []types.Location{types.Loc(3, 1)},
}

func TestJournalKeepsHighBitSeeds(t *testing.T) {
	j := openTemp(t)

	const seed = uint64(1)<<63 | 12345
	require.NoError(t, j.BeginEpisode("ep-big", seed, classic))
	require.NoError(t, j.FinishEpisode("ep-big", "died", 1))

	ep, err := j.Episode("ep-big")
	require.NoError(t, err)
	assert.Equal(t, seed, ep.Seed)

	list, err := j.ListEpisodes(0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, seed, list[0].Seed)
}

func TestJournalRoundTrip(t *testing.T) {
	j := openTemp(t)

	require.NoError(t, j.BeginEpisode("ep-1", 42, classic))

	first := core.StepRecord{
		N:        1,
		Location: types.Loc(1, 1),
		Action:   types.Move(types.Up),
		Reason:   core.ReasonExplore,
		Result:   types.Result{Outcome: types.Alive, Message: "Moved to (1, 2)."},
		After:    types.Loc(1, 2),
		Added:    []types.Fact{types.F(types.NoBreeze, 1, 1), types.F(types.Safe, 1, 2)},
		Duration: 1500 * time.Microsecond,
	}
	second := core.StepRecord{
		N:         2,
		Location:  types.Loc(1, 2),
		Percept:   types.Percept{Stench: true},
		Action:    types.Shoot(types.Up),
		Reason:    core.ReasonShootKnown,
		Result:    types.Result{Outcome: types.Alive, HazardKilled: true, Message: "A scream echoes. The wumpus is dead."},
		After:     types.Loc(1, 2),
		Retracted: []types.Fact{types.F(types.WumpusAt, 1, 3)},
	}
	require.NoError(t, j.RecordStep("ep-1", first))
	require.NoError(t, j.RecordStep("ep-1", second))
	require.NoError(t, j.RecordStep("ep-1", first), "duplicate steps are ignored")
	require.NoError(t, j.FinishEpisode("ep-1", "victory", 2))

	ep, err := j.Episode("ep-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), ep.Seed)
	assert.Equal(t, classic, ep.Layout)
	assert.Equal(t, "victory", ep.Outcome)
	assert.Equal(t, 2, ep.Steps)
	assert.True(t, ep.Finished())
	assert.False(t, ep.FinishedAt.Before(ep.StartedAt))

	steps, err := j.Steps("ep-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.Equal(t, "move_up", steps[0].Action)
	assert.Equal(t, string(core.ReasonExplore), steps[0].Reason)
	assert.Equal(t, types.Loc(1, 2), steps[0].After)
	assert.Equal(t, []string{"no_breeze(1, 1).", "safe(1, 2)."}, steps[0].Added)
	assert.Empty(t, steps[0].Retracted)
	assert.Equal(t, 1500*time.Microsecond, steps[0].Duration)

	assert.True(t, steps[1].Percept.Stench)
	assert.False(t, steps[1].Percept.Breeze)
	assert.Equal(t, "shoot_up", steps[1].Action)
	assert.Equal(t, []string{"wumpus_at(1, 3)."}, steps[1].Retracted)
}

func TestJournalUnknownEpisode(t *testing.T) {
	j := openTemp(t)

	_, err := j.Episode("missing")
	assert.ErrorIs(t, err, ErrEpisodeNotFound)

	_, err = j.Steps("missing")
	assert.ErrorIs(t, err, ErrEpisodeNotFound)

	assert.ErrorIs(t, j.FinishEpisode("missing", "died", 3), ErrEpisodeNotFound)
}

func TestJournalListAndCounts(t *testing.T) {
	j := openTemp(t)

	outcomes := []string{"victory", "died", "victory", "step_limit"}
	for i, outcome := range outcomes {
		id := string(rune('a' + i))
		require.NoError(t, j.BeginEpisode(id, uint64(i), classic))
		require.NoError(t, j.FinishEpisode(id, outcome, 10+i))
	}
	require.NoError(t, j.BeginEpisode("running", 99, classic))

	all, err := j.ListEpisodes(0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "running", all[0].ID, "newest first")
	assert.False(t, all[0].Finished())

	limited, err := j.ListEpisodes(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	counts, err := j.OutcomeCounts()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"victory": 2, "died": 1, "step_limit": 1}, counts)
}

func TestJournalPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.BeginEpisode("keep", 7, classic))
	require.NoError(t, j.FinishEpisode("keep", "exited_empty", 5))
	require.NoError(t, j.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	ep, err := reopened.Episode("keep")
	require.NoError(t, err)
	assert.Equal(t, "exited_empty", ep.Outcome)
	assert.Equal(t, path, reopened.Path())
}
