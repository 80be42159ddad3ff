package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"wumpus/internal/world"
)

// LoadLayout reads and validates a world layout file. Validation failures wrap
// world.ErrInvalidLayout.
func LoadLayout(path string) (world.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return world.Layout{}, fmt.Errorf("failed to read layout: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout decodes and validates layout YAML.
func ParseLayout(data []byte) (world.Layout, error) {
	var l world.Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return world.Layout{}, fmt.Errorf("%w: %v", world.ErrInvalidLayout, err)
	}
	if err := l.Validate(); err != nil {
		return world.Layout{}, err
	}
	return l, nil
}

// SaveLayout writes a layout file.
func SaveLayout(path string, l world.Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create layout directory: %w", err)
		}
	}

	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write layout: %w", err)
	}
	return nil
}
