package main

import (
	"fmt"

	"go.uber.org/zap"

	"wumpus/internal/config"
	"wumpus/internal/session"
	"wumpus/internal/store"
	"wumpus/internal/world"
)

// buildWorld loads layoutPath when set and generates a board from the world config
// otherwise.
func buildWorld(wc config.WorldConfig, layoutPath string, seed uint64) (*world.World, error) {
	if layoutPath == "" {
		layoutPath = wc.LayoutPath
	}
	if layoutPath != "" {
		l, err := config.LoadLayout(layoutPath)
		if err != nil {
			return nil, err
		}
		logger.Debug("Loaded layout", zap.String("path", layoutPath), zap.Int("size", l.Size))
		return world.FromLayout(l)
	}
	logger.Debug("Generating world",
		zap.Int("size", wc.Size),
		zap.Float64("pit_probability", wc.PitProbability),
		zap.Uint64("seed", seed))
	return world.Generate(wc.Size, wc.PitProbability, world.NewRand(seed))
}

// openJournal opens the configured journal, or returns nil when journaling is off.
func openJournal() (*store.Journal, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	j, err := store.Open(cfg.Journal.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return j, nil
}

func sessionOptions(seed uint64, journal *store.Journal) session.Options {
	return session.Options{
		Seed:     seed,
		MaxSteps: cfg.Agent.MaxSteps,
		Agent:    cfg.AgentSettings(),
		Journal:  journal,
	}
}
