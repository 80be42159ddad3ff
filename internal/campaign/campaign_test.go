package campaign

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"wumpus/internal/session"
	"wumpus/internal/types"
	"wumpus/internal/world"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var shortTrip = world.Layout{Size: 3, Gold: types.Loc(1, 2), Wumpus: types.Loc(3, 3)}

func TestFixedLayoutCampaign(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	var callbacks atomic.Int32
	opts := DefaultOptions()
	opts.Episodes = 8
	opts.Workers = 3
	opts.BaseSeed = 100
	opts.Layout = &shortTrip
	opts.Session.Agent.Shuffle = false
	opts.Metrics = metrics
	opts.OnEpisode = func(session.Summary) { callbacks.Add(1) }

	sum, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 8, sum.Episodes)
	assert.Equal(t, map[string]int{"victory": 8}, sum.Outcomes)
	assert.Equal(t, 1.0, sum.WinRate)
	assert.Equal(t, 4.0, sum.MeanSteps)
	assert.Equal(t, int32(8), callbacks.Load())

	require.Len(t, sum.Results, 8)
	for i, r := range sum.Results {
		assert.Equal(t, uint64(100+i), r.Seed)
	}

	assert.Equal(t, 8.0, testutil.ToFloat64(metrics.episodes.WithLabelValues("victory")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.steps))
	assert.Positive(t, testutil.ToFloat64(metrics.inferred.WithLabelValues("safe")))

	count, err := testutil.GatherAndCount(reg, "wumpus_episodes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestShuffledCampaignOnFixedLayout(t *testing.T) {
	// Shuffled move orders wander before finding the gold; only the outcome is fixed.
	opts := DefaultOptions()
	opts.Episodes = 8
	opts.Workers = 3
	opts.BaseSeed = 100
	opts.Layout = &shortTrip

	first, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"victory": 8}, first.Outcomes)
	assert.GreaterOrEqual(t, first.MeanSteps, 4.0)

	opts.Workers = 1
	second, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, second.Results, len(first.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Steps, second.Results[i].Steps, "seed %d", first.Results[i].Seed)
	}
	assert.Equal(t, first.MeanSteps, second.MeanSteps)
}

func TestGeneratedCampaignIsDeterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.Episodes = 20
	opts.Workers = 4
	opts.Session.MaxSteps = 100

	first, err := Run(context.Background(), opts)
	require.NoError(t, err)

	opts.Workers = 1
	second, err := Run(context.Background(), opts)
	require.NoError(t, err)

	total := 0
	for _, n := range first.Outcomes {
		total += n
	}
	assert.Equal(t, 20, total)
	assert.GreaterOrEqual(t, first.WinRate, 0.0)
	assert.LessOrEqual(t, first.WinRate, 1.0)

	type brief struct {
		Seed    uint64
		Outcome string
		Steps   int
	}
	digest := func(s *Summary) []brief {
		out := make([]brief, 0, len(s.Results))
		for _, r := range s.Results {
			out = append(out, brief{r.Seed, r.Outcome, r.Steps})
		}
		return out
	}
	if diff := cmp.Diff(digest(first), digest(second)); diff != "" {
		t.Errorf("campaign depends on worker count (-4 workers +1 worker):\n%s", diff)
	}
}

func TestCampaignRejectsBadOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Episodes = 0
	_, err := Run(context.Background(), opts)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.Episodes = 3
	opts.Size = 1
	_, err = Run(context.Background(), opts)
	assert.ErrorIs(t, err, world.ErrInvalidLayout)
}

func TestCampaignHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := DefaultOptions()
	opts.Episodes = 50
	_, err := Run(ctx, opts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSortedOutcomes(t *testing.T) {
	s := &Summary{Outcomes: map[string]int{"died": 3, "victory": 5, "step_limit": 3}}
	assert.Equal(t, []string{"victory", "died", "step_limit"}, s.SortedOutcomes())
}
