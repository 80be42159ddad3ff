package main

import (
	"github.com/spf13/cobra"

	"wumpus/cmd/wumpus/ui"
	"wumpus/internal/logging"
	"wumpus/internal/session"
)

var (
	playLayout string
	playWatch  bool
	playSeed   int64
)

// playCmd opens the interactive board
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Watch the agent on an interactive board",
	Long: `Opens a terminal board showing the world, the agent's state and its
knowledge.

Keys:
  space  step once          a  toggle auto mode
  r      reset the episode  f  toggle the facts panel
  q      quit

With --watch the layout file is reloaded into a fresh episode every time it
is saved.`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playLayout, "layout", "", "Layout file to play instead of a generated board")
	playCmd.Flags().BoolVar(&playWatch, "watch", false, "Reload the layout file when it changes")
	playCmd.Flags().Int64Var(&playSeed, "seed", -1, "World and agent seed (negative: config or time based)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if playSeed >= 0 {
		cfg.World.Seed = playSeed
	}
	seed := cfg.World.ResolveSeed()
	layoutPath := firstNonEmpty(playLayout, cfg.World.LayoutPath)

	w, err := buildWorld(cfg.World, layoutPath, seed)
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

	// stderr logging would draw over the board
	if cfg.Logging.Dir == "" {
		logging.SetBase(nil)
	}

	return ui.Run(ctx, ep, ui.Options{
		Theme:      cfg.UI.Theme,
		StepDelay:  cfg.UI.StepDelay,
		LayoutPath: layoutPath,
		Watch:      playWatch,
	})
}
