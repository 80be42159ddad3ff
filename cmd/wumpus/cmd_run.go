package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wumpus/internal/articulation"
	"wumpus/internal/core"
	"wumpus/internal/session"
)

var (
	runSeed     int64
	runSize     int
	runLayout   string
	runMaxSteps int
	runReport   bool
	runQueries  []string
)

// runCmd plays one episode and narrates it
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one episode and narrate every step",
	Long: `Runs the agent through one world until it climbs out, dies or hits the
step limit, printing each step as it happens.

Examples:
  wumpus run --seed 7
  wumpus run --layout boards/classic.yaml --report
  wumpus run --query "pit_at(X, Y)" --query "safe(1, Y)"`,
	RunE: runEpisode,
}

func init() {
	runCmd.Flags().Int64Var(&runSeed, "seed", -1, "World and agent seed (negative: config or time based)")
	runCmd.Flags().IntVar(&runSize, "size", 0, "Board size (default from config)")
	runCmd.Flags().StringVar(&runLayout, "layout", "", "Layout file to play instead of a generated board")
	runCmd.Flags().IntVar(&runMaxSteps, "max-steps", 0, "Step limit (default from config)")
	runCmd.Flags().BoolVar(&runReport, "report", false, "Render a Markdown report after the episode")
	runCmd.Flags().StringArrayVar(&runQueries, "query", nil, "Datalog atom to query after the episode, e.g. 'danger(X, Y)'")
}

func runEpisode(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if runSeed >= 0 {
		cfg.World.Seed = runSeed
	}
	if runSize > 0 {
		cfg.World.Size = runSize
	}
	if runMaxSteps > 0 {
		cfg.Agent.MaxSteps = runMaxSteps
	}
	seed := cfg.World.ResolveSeed()

	w, err := buildWorld(cfg.World, runLayout, seed)
	if err != nil {
		return err
	}
	journal, err := openJournal()
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.Close()
	}

	ep, err := session.New(w, sessionOptions(seed, journal))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	ep.Subscribe(core.ObserverFunc(func(rec core.StepRecord) {
		fmt.Fprintln(out, articulation.Narrate(rec))
	}))

	logger.Info("Running episode", zap.String("id", ep.ID()), zap.Uint64("seed", seed))
	fmt.Fprintf(out, "Episode %s (seed %d)\n\n%s\n", ep.ID(), seed, articulation.Board(w, nil))

	outcome, err := ep.Run(ctx)
	if err != nil {
		return err
	}

	agent := ep.Agent()
	fmt.Fprintln(out)
	fmt.Fprint(out, articulation.KnownFacts(agent.Store().All()))
	fmt.Fprintln(out, articulation.OutcomeMessage(outcome))

	for _, q := range runQueries {
		res, err := agent.Store().Query(ctx, q)
		if err != nil {
			return fmt.Errorf("query %q: %w", q, err)
		}
		fmt.Fprintf(out, "\n?- %s  (%d results, %v)\n", q, len(res.Facts), res.Duration)
		for _, f := range res.Facts {
			fmt.Fprintf(out, "  %s\n", strings.TrimSuffix(f.Datalog(), "."))
		}
	}

	if runReport {
		md := ep.Report().Markdown()
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err != nil {
			logger.Warn("Markdown renderer unavailable", zap.Error(err))
			fmt.Fprintln(out, md)
			return nil
		}
		rendered, err := renderer.Render(md)
		if err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
		fmt.Fprint(out, rendered)
	}
	return nil
}
