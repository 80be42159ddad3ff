package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wumpus/internal/articulation"
	"wumpus/internal/config"
	"wumpus/internal/world"
)

var (
	worldSeed   int64
	worldSize   int
	worldPits   float64
	worldOutput string
)

// worldCmd manages layout files
var worldCmd = &cobra.Command{
	Use:   "world",
	Short: "Generate and inspect world layouts",
}

var worldGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random layout",
	Long: `Generates a random board and writes it as a layout file, or prints it
when no output path is given.

Example:
  wumpus world generate --seed 42 --size 6 -o boards/six.yaml`,
	RunE: runWorldGenerate,
}

var worldShowCmd = &cobra.Command{
	Use:   "show <layout-file>",
	Short: "Draw a layout file",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorldShow,
}

func init() {
	worldGenerateCmd.Flags().Int64Var(&worldSeed, "seed", -1, "Generation seed (negative: config or time based)")
	worldGenerateCmd.Flags().IntVar(&worldSize, "size", 0, "Board size (default from config)")
	worldGenerateCmd.Flags().Float64Var(&worldPits, "pit-probability", -1, "Pit probability per cell (default from config)")
	worldGenerateCmd.Flags().StringVarP(&worldOutput, "output", "o", "", "Layout file to write")

	worldCmd.AddCommand(worldGenerateCmd)
	worldCmd.AddCommand(worldShowCmd)
}

func runWorldGenerate(cmd *cobra.Command, args []string) error {
	wc := cfg.World
	if worldSeed >= 0 {
		wc.Seed = worldSeed
	}
	if worldSize > 0 {
		wc.Size = worldSize
	}
	if worldPits >= 0 {
		wc.PitProbability = worldPits
	}
	seed := wc.ResolveSeed()

	w, err := world.Generate(wc.Size, wc.PitProbability, world.NewRand(seed))
	if err != nil {
		return err
	}
	layout := w.Layout()

	out := cmd.OutOrStdout()
	if worldOutput == "" {
		data, err := yaml.Marshal(layout)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# seed %d\n%s", seed, data)
		return nil
	}
	if err := config.SaveLayout(worldOutput, layout); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %dx%d layout (seed %d) to %s\n\n%s", layout.Size, layout.Size, seed, worldOutput,
		articulation.Board(w, nil))
	return nil
}

func runWorldShow(cmd *cobra.Command, args []string) error {
	l, err := config.LoadLayout(args[0])
	if err != nil {
		return err
	}
	w, err := world.FromLayout(l)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), articulation.Board(w, nil))
	return nil
}
