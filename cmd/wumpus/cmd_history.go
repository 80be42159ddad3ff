package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wumpus/internal/articulation"
	"wumpus/internal/session"
	"wumpus/internal/store"
	"wumpus/internal/types"
)

var historyLimit int

// =============================================================================
// JOURNAL HISTORY COMMANDS
// =============================================================================

// historyCmd inspects the episode journal
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect journaled episodes",
	Long: `List and inspect episodes recorded in the SQLite journal.

Subcommands:
  list   - List recent episodes and the outcome totals
  show   - Show one episode step by step`,
	RunE: runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent episodes",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <episode-id>",
	Short: "Show the step trace of an episode",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum episodes to list")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}

func historyJournal() (*store.Journal, error) {
	if !cfg.Journal.Enabled {
		return nil, errors.New("the journal is disabled (journal.enabled: false)")
	}
	return store.Open(cfg.Journal.DatabasePath)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	journal, err := historyJournal()
	if err != nil {
		return err
	}
	defer journal.Close()

	episodes, err := journal.ListEpisodes(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list episodes: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(episodes) == 0 {
		fmt.Fprintln(out, "No journaled episodes found.")
		return nil
	}

	fmt.Fprintf(out, "%-36s  %-19s  %-5s  %-12s  %5s  %s\n", "ID", "STARTED", "SIZE", "OUTCOME", "STEPS", "SEED")
	for _, ep := range episodes {
		outcome := ep.Outcome
		if !ep.Finished() {
			outcome = "(running)"
		}
		fmt.Fprintf(out, "%-36s  %-19s  %-5s  %-12s  %5d  %d\n",
			ep.ID, ep.StartedAt.Format(time.DateTime),
			fmt.Sprintf("%dx%d", ep.Layout.Size, ep.Layout.Size),
			outcome, ep.Steps, ep.Seed)
	}

	counts, err := journal.OutcomeCounts()
	if err != nil {
		return err
	}
	parts := make([]string, 0, len(counts))
	order := []string{
		types.ExitedWithItem.String(), types.Died.String(), types.ExitedEmpty.String(),
		session.OutcomeStepLimit, session.OutcomeAbandoned,
	}
	for _, name := range order {
		if n, ok := counts[name]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", name, n))
		}
	}
	fmt.Fprintf(out, "\nTotals: %s\n", strings.Join(parts, " "))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	journal, err := historyJournal()
	if err != nil {
		return err
	}
	defer journal.Close()

	ep, err := journal.Episode(args[0])
	if err != nil {
		if errors.Is(err, store.ErrEpisodeNotFound) {
			return fmt.Errorf("no episode %q in %s", args[0], journal.Path())
		}
		return err
	}
	steps, err := journal.Steps(ep.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Episode %s\n", ep.ID)
	fmt.Fprintf(out, "Seed %d, %dx%d board, gold %s, wumpus %s, %d pits\n",
		ep.Seed, ep.Layout.Size, ep.Layout.Size, ep.Layout.Gold, ep.Layout.Wumpus, len(ep.Layout.Pits))
	fmt.Fprintf(out, "Started %s\n\n", ep.StartedAt.Format(time.DateTime))

	for _, s := range steps {
		fmt.Fprintf(out, "Step %d at %s: %s -> %s (%s): %s\n",
			s.N, s.Location, articulation.DescribePercept(s.Percept), s.Action, s.Reason, s.Message)
		if verbose {
			if len(s.Added) > 0 {
				fmt.Fprintf(out, "    + %s\n", strings.Join(s.Added, " "))
			}
			if len(s.Retracted) > 0 {
				fmt.Fprintf(out, "    - %s\n", strings.Join(s.Retracted, " "))
			}
		}
	}

	if ep.Finished() {
		fmt.Fprintf(out, "\n%s\n", articulation.OutcomeMessage(ep.Outcome))
	} else {
		fmt.Fprintln(out, "\nThe episode did not finish.")
	}
	return nil
}
