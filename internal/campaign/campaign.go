// Package campaign runs batches of independent episodes concurrently and aggregates
// their outcomes.
package campaign

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"wumpus/internal/logging"
	"wumpus/internal/session"
	"wumpus/internal/types"
	"wumpus/internal/world"
)

// Options configures a campaign.
type Options struct {
	Episodes int
	Workers  int
	// Episode i runs with seed BaseSeed+i. The seed drives generation and the agent.
	BaseSeed       uint64
	Size           int
	PitProbability float64
	// Layout, when non-nil, replaces generation with a fixed board.
	Layout *world.Layout
	// Session carries the per-episode agent configuration, step limit and journal.
	// Its Seed is ignored.
	Session session.Options
	// Metrics receives every finished episode. Nil creates unregistered collectors.
	Metrics *Metrics
	// OnEpisode, when set, is called after each episode from the worker goroutine.
	OnEpisode func(session.Summary)
}

// DefaultOptions returns a small campaign on the classic 4x4 board.
func DefaultOptions() Options {
	return Options{
		Episodes:       100,
		Workers:        4,
		Size:           4,
		PitProbability: world.DefaultPitProbability,
		Session:        session.DefaultOptions(),
	}
}

// Summary aggregates a finished campaign.
type Summary struct {
	Episodes  int
	Outcomes  map[string]int
	MeanSteps float64
	WinRate   float64
	Duration  time.Duration
	// Results holds the per-episode summaries ordered by seed.
	Results []session.Summary
}

// Run plays opts.Episodes episodes with at most opts.Workers in flight. Each episode
// owns its world, agent and fact store; only the journal and metrics are shared.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Episodes < 1 {
		return nil, fmt.Errorf("campaign: episodes must be positive, got %d", opts.Episodes)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}

	timer := logging.StartTimer(logging.CategoryCampaign, "Run")
	defer timer.Stop()
	start := time.Now()

	logging.Campaign("campaign starting: %d episodes, %d workers, base seed %d",
		opts.Episodes, opts.Workers, opts.BaseSeed)

	results := make([]session.Summary, opts.Episodes)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i := 0; i < opts.Episodes; i++ {
		if gctx.Err() != nil {
			break
		}
		seed := opts.BaseSeed + uint64(i)
		g.Go(func() error {
			sum, err := runEpisode(gctx, opts, seed)
			if err != nil {
				return fmt.Errorf("episode seed %d: %w", seed, err)
			}
			results[i] = sum
			opts.Metrics.observe(sum)
			if opts.OnEpisode != nil {
				opts.OnEpisode(sum)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logging.Get(logging.CategoryCampaign).Error("campaign aborted: %v", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := aggregate(results)
	summary.Duration = time.Since(start)
	logging.Campaign("campaign finished: %d episodes, win rate %.2f, mean steps %.1f",
		summary.Episodes, summary.WinRate, summary.MeanSteps)
	return summary, nil
}

func runEpisode(ctx context.Context, opts Options, seed uint64) (session.Summary, error) {
	var (
		w   *world.World
		err error
	)
	if opts.Layout != nil {
		w, err = world.FromLayout(*opts.Layout)
	} else {
		w, err = world.Generate(opts.Size, opts.PitProbability, world.NewRand(seed))
	}
	if err != nil {
		return session.Summary{}, err
	}

	sessOpts := opts.Session
	sessOpts.Seed = seed
	ep, err := session.New(w, sessOpts)
	if err != nil {
		return session.Summary{}, err
	}
	if _, err := ep.Run(ctx); err != nil {
		return session.Summary{}, err
	}
	sum := ep.Summary()
	logging.CampaignDebug("seed %d: %s in %d steps", seed, sum.Outcome, sum.Steps)
	return sum, nil
}

func aggregate(results []session.Summary) *Summary {
	s := &Summary{
		Episodes: len(results),
		Outcomes: make(map[string]int),
		Results:  results,
	}
	sort.SliceStable(s.Results, func(i, j int) bool { return s.Results[i].Seed < s.Results[j].Seed })

	totalSteps := 0
	for _, r := range results {
		s.Outcomes[r.Outcome]++
		totalSteps += r.Steps
	}
	if s.Episodes > 0 {
		s.MeanSteps = float64(totalSteps) / float64(s.Episodes)
		s.WinRate = float64(s.Outcomes[types.ExitedWithItem.String()]) / float64(s.Episodes)
	}
	return s
}

// SortedOutcomes returns the outcome names most frequent first.
func (s *Summary) SortedOutcomes() []string {
	names := make([]string, 0, len(s.Outcomes))
	for name := range s.Outcomes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.Outcomes[names[i]] != s.Outcomes[names[j]] {
			return s.Outcomes[names[i]] > s.Outcomes[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
