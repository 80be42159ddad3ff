package session

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"wumpus/internal/core"
	"wumpus/internal/logging"
	"wumpus/internal/store"
	"wumpus/internal/types"
	"wumpus/internal/world"
)

// Gold next to the start: up, grab, down, climb.
var shortTrip = world.Layout{Size: 3, Gold: types.Loc(1, 2), Wumpus: types.Loc(3, 3)}

// Far gold keeps the agent busy for longer than the small step limits used below.
var longTrip = world.Layout{Size: 6, Gold: types.Loc(6, 6), Wumpus: types.Loc(6, 1)}

func options(j *store.Journal, maxSteps int) Options {
	opts := DefaultOptions()
	opts.Agent.Shuffle = false
	opts.MaxSteps = maxSteps
	opts.Journal = j
	return opts
}

func openJournal(t *testing.T) *store.Journal {
	t.Helper()
	j, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestEpisodeRunToVictory(t *testing.T) {
	j := openJournal(t)
	ep, err := New(world.MustFromLayout(shortTrip), options(j, 50))
	require.NoError(t, err)

	outcome, err := ep.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "victory", outcome)
	assert.True(t, ep.Done())

	history := ep.History()
	require.Len(t, history, 4)
	assert.Equal(t, types.Move(types.Up), history[0].Action)
	assert.Equal(t, types.Grab, history[1].Action)
	assert.Equal(t, types.Move(types.Down), history[2].Action)
	assert.Equal(t, types.Climb, history[3].Action)

	s := ep.Summary()
	assert.True(t, s.Won())
	assert.True(t, s.HasGold)
	assert.False(t, s.WumpusKilled)
	assert.Equal(t, 4, s.Steps)
	assert.Positive(t, s.Inferred[types.Safe])
	assert.Equal(t, ep.Agent().Store().Len(), s.Facts)

	rec, err := j.Episode(ep.ID())
	require.NoError(t, err)
	assert.Equal(t, "victory", rec.Outcome)
	assert.Equal(t, 4, rec.Steps)
	assert.Equal(t, shortTrip, rec.Layout)

	steps, err := j.Steps(ep.ID())
	require.NoError(t, err)
	require.Len(t, steps, 4)
	assert.Equal(t, "grab", steps[1].Action)
	assert.Equal(t, "climb", steps[3].Action)
}

func TestStepAfterEndIsRejected(t *testing.T) {
	ep, err := New(world.MustFromLayout(shortTrip), options(nil, 50))
	require.NoError(t, err)

	_, err = ep.Run(context.Background())
	require.NoError(t, err)

	_, err = ep.Step(context.Background())
	assert.ErrorIs(t, err, ErrEpisodeOver)
	assert.Len(t, ep.History(), 4)
}

func TestStepLimitEndsEpisode(t *testing.T) {
	j := openJournal(t)
	ep, err := New(world.MustFromLayout(longTrip), options(j, 3))
	require.NoError(t, err)

	outcome, err := ep.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeStepLimit, outcome)
	assert.Len(t, ep.History(), 3)
	assert.Equal(t, types.Alive, ep.Agent().Outcome(), "the agent itself is still alive")

	rec, err := j.Episode(ep.ID())
	require.NoError(t, err)
	assert.Equal(t, OutcomeStepLimit, rec.Outcome)
	assert.Equal(t, 3, rec.Steps)
}

func TestRunStopsOnCancel(t *testing.T) {
	ep, err := New(world.MustFromLayout(longTrip), options(nil, 0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ep.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ep.Done())
	assert.Equal(t, "alive", ep.Outcome())
	assert.Empty(t, ep.History())
}

func TestResetStartsFreshEpisode(t *testing.T) {
	j := openJournal(t)
	ep, err := New(world.MustFromLayout(longTrip), options(j, 0))
	require.NoError(t, err)

	var seen int
	ep.Subscribe(core.ObserverFunc(func(core.StepRecord) { seen++ }))

	for i := 0; i < 2; i++ {
		_, err := ep.Step(context.Background())
		require.NoError(t, err)
	}
	firstID := ep.ID()
	learned := ep.Agent().Store().Len()

	require.NoError(t, ep.Reset(nil))

	assert.NotEqual(t, firstID, ep.ID())
	assert.Empty(t, ep.History())
	assert.False(t, ep.Done())
	assert.Less(t, ep.Agent().Store().Len(), learned, "knowledge is not carried over")
	assert.Equal(t, world.Start, ep.World().AgentLocation())
	assert.Equal(t, longTrip, ep.World().Layout())

	abandoned, err := j.Episode(firstID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAbandoned, abandoned.Outcome)

	_, err = ep.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, seen, "observers survive reset")

	require.NoError(t, ep.Reset(world.MustFromLayout(shortTrip)))
	outcome, err := ep.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "victory", outcome)
}

func TestReportDescribesEpisode(t *testing.T) {
	ep, err := New(world.MustFromLayout(shortTrip), options(nil, 50))
	require.NoError(t, err)
	_, err = ep.Run(context.Background())
	require.NoError(t, err)

	r := ep.Report()
	assert.Equal(t, ep.ID(), r.EpisodeID)
	assert.Equal(t, "victory", r.Outcome)
	assert.Len(t, r.Steps, 4)
	assert.Equal(t, shortTrip, r.Layout)
	assert.NotEmpty(t, r.Board)
	assert.NotEmpty(t, r.Facts)

	md := r.Markdown()
	assert.Contains(t, md, ep.ID())
	assert.Contains(t, md, "`grab`")
}

func TestLogObserverNarratesSteps(t *testing.T) {
	zcore, logs := observer.New(zapcore.InfoLevel)
	logging.SetBase(zap.New(zcore))
	t.Cleanup(func() { logging.SetBase(nil) })

	ep, err := New(world.MustFromLayout(shortTrip), options(nil, 50))
	require.NoError(t, err)
	ep.Subscribe(LogObserver())

	_, err = ep.Run(context.Background())
	require.NoError(t, err)

	var narrated []string
	for _, entry := range logs.FilterLoggerName("session").All() {
		if strings.HasPrefix(entry.Message, "Step ") {
			narrated = append(narrated, entry.Message)
		}
	}
	require.Len(t, narrated, 4)
	assert.True(t, strings.HasPrefix(narrated[0], "Step 1 at (1, 1)"), narrated[0])
	assert.Contains(t, narrated[1], "grab")
}
