package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wumpus/internal/config"
	"wumpus/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wumpus",
	Short: "wumpus - a knowledge-based agent for the Wumpus World",
	Long: `wumpus runs a logical agent through the Wumpus World.

The agent turns stench, breeze and glitter percepts into facts, derives which
cells are safe or dangerous, and acts on that knowledge: it explores safe
cells, shoots a located wumpus, grabs the gold and climbs out at (1, 1).

Knowledge lives in a Google Mangle fact store; every episode can be journaled
to SQLite and replayed with 'wumpus history'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		opts := cfg.LoggingOptions()
		if verbose {
			opts.DebugMode = true
			opts.Level = "debug"
		}
		if err := logging.Initialize(opts); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if !opts.DebugMode {
			// Warnings still reach stderr when debug logging is off.
			zc := zap.NewProductionConfig()
			zc.Encoding = "console"
			zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			zc.Sampling = nil
			l, err := zc.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logging.SetBase(l)
		}
		logger = logging.Base()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(worldCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
