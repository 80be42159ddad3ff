// Package config loads, validates and saves wumpus configuration and world layout files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"wumpus/internal/core"
	"wumpus/internal/logging"
	"wumpus/internal/mangle"
	"wumpus/internal/world"
)

// DefaultPath is where the CLI looks for configuration.
const DefaultPath = "wumpus.yaml"

var configValidate = validator.New()

// Config holds all wumpus configuration.
type Config struct {
	World     WorldConfig          `yaml:"world"`
	Agent     AgentConfig          `yaml:"agent"`
	Inference core.InferenceConfig `yaml:"inference"`
	Journal   JournalConfig        `yaml:"journal"`
	Logging   LoggingConfig        `yaml:"logging"`
	UI        UIConfig             `yaml:"ui"`
	Campaign  CampaignConfig       `yaml:"campaign"`
}

// WorldConfig configures board generation.
type WorldConfig struct {
	Size           int     `yaml:"size" validate:"min=2,max=32"`
	PitProbability float64 `yaml:"pit_probability" validate:"gte=0,lte=1"`
	// Seed drives generation and move shuffling. Negative picks a time-based seed.
	Seed int64 `yaml:"seed"`
	// LayoutPath, when set, loads a fixed board instead of generating one.
	LayoutPath string `yaml:"layout_path,omitempty"`
}

// AgentConfig configures the agent's policy and episode bounds.
type AgentConfig struct {
	MaxSteps        int  `yaml:"max_steps" validate:"min=1"`
	RiskyMinVisited int  `yaml:"risky_min_visited" validate:"min=0"`
	Shuffle         bool `yaml:"shuffle"`
	FactLimit       int  `yaml:"fact_limit" validate:"min=0"`
}

// JournalConfig configures the SQLite episode journal.
type JournalConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path" validate:"required_if=Enabled true"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level" validate:"oneof=debug info warn error"`
	Format     string          `yaml:"format" validate:"oneof=json console"`
	DebugMode  bool            `yaml:"debug_mode"` // master toggle; false = no logging
	Dir        string          `yaml:"dir,omitempty"`
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// UIConfig configures the interactive board.
type UIConfig struct {
	StepDelay time.Duration `yaml:"step_delay" validate:"min=0"`
	Theme     string        `yaml:"theme" validate:"oneof=dark light"`
}

// CampaignConfig configures batch runs.
type CampaignConfig struct {
	Episodes    int    `yaml:"episodes" validate:"min=1"`
	Workers     int    `yaml:"workers" validate:"min=1,max=64"`
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	agent := core.DefaultConfig()
	return &Config{
		World: WorldConfig{
			Size:           4,
			PitProbability: world.DefaultPitProbability,
			Seed:           -1,
		},
		Agent: AgentConfig{
			MaxSteps:        50,
			RiskyMinVisited: agent.RiskyMinVisited,
			Shuffle:         agent.Shuffle,
			FactLimit:       agent.Store.FactLimit,
		},
		Inference: agent.Inference,
		Journal: JournalConfig{
			Enabled:      true,
			DatabasePath: filepath.Join(".wumpus", "journal.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		UI: UIConfig{
			StepDelay: 400 * time.Millisecond,
			Theme:     "dark",
		},
		Campaign: CampaignConfig{
			Episodes: 100,
			Workers:  4,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logging.BootDebug("config %s not found, using defaults", path)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("WUMPUS_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.World.Seed = seed
		} else {
			logging.Get(logging.CategoryBoot).Warn("ignoring WUMPUS_SEED=%q: %v", v, err)
		}
	}
	if v := os.Getenv("WUMPUS_MAX_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Agent.MaxSteps = n
		} else {
			logging.Get(logging.CategoryBoot).Warn("ignoring WUMPUS_MAX_STEPS=%q: %v", v, err)
		}
	}
	if path := os.Getenv("WUMPUS_DB"); path != "" {
		c.Journal.DatabasePath = path
	}
	if level := os.Getenv("WUMPUS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
		c.Logging.DebugMode = true
	}
}

// Validate checks every section against its constraints.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// AgentSettings assembles the agent configuration.
func (c *Config) AgentSettings() core.Config {
	return core.Config{
		RiskyMinVisited: c.Agent.RiskyMinVisited,
		Shuffle:         c.Agent.Shuffle,
		Inference:       c.Inference,
		Store:           mangle.Config{FactLimit: c.Agent.FactLimit},
	}
}

// LoggingOptions converts the logging section for logging.Initialize.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		Dir:        c.Logging.Dir,
		DebugMode:  c.Logging.DebugMode,
		Categories: c.Logging.Categories,
	}
}

// ResolveSeed returns the configured seed, or a time-based one when it is negative.
func (w WorldConfig) ResolveSeed() uint64 {
	if w.Seed >= 0 {
		return uint64(w.Seed)
	}
	return uint64(time.Now().UnixNano())
}
