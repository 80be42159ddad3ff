package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpus/internal/logging"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	require.NoError(t, err, "wumpus %v:\n%s", args, out.String())
	return out.String()
}

func TestCommandsEndToEnd(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WUMPUS_DB", filepath.Join(dir, "journal.db"))
	t.Cleanup(func() { logging.SetBase(nil) })

	cfgFile := filepath.Join(dir, "wumpus.yaml")
	board := filepath.Join(dir, "board.yaml")

	out := execute(t, "config", "init", cfgFile)
	assert.Contains(t, out, "Wrote default configuration")
	require.FileExists(t, cfgFile)

	out = execute(t, "--config", cfgFile, "world", "generate", "--seed", "5", "--size", "4", "-o", board)
	assert.Contains(t, out, "Wrote 4x4 layout (seed 5)")
	require.FileExists(t, board)

	out = execute(t, "--config", cfgFile, "world", "show", board)
	assert.Contains(t, out, " 4 ")
	assert.Contains(t, out, "A")

	out = execute(t, "--config", cfgFile, "run", "--layout", board, "--seed", "5", "--query", "safe(1, Y)")
	assert.Contains(t, out, "Step 1 at (1, 1)")
	assert.Contains(t, out, "--- Known facts ---")
	assert.Contains(t, out, "?- safe(1, Y)")
	assert.Contains(t, out, "safe(1, 1)")

	id := regexp.MustCompile(`Episode ([0-9a-f-]{36})`).FindStringSubmatch(out)
	require.Len(t, id, 2)

	out = execute(t, "--config", cfgFile, "history", "list")
	assert.Contains(t, out, id[1])
	assert.Contains(t, out, "Totals:")

	out = execute(t, "--config", cfgFile, "history", "show", id[1])
	assert.Contains(t, out, "Episode "+id[1])
	assert.Contains(t, out, "Step 1 at (1, 1)")

	out = execute(t, "--config", cfgFile, "batch", "--episodes", "4", "--workers", "2", "--seed", "1")
	assert.Contains(t, out, "Campaign: 4 episodes, 2 workers, seeds 1..4")
	assert.Contains(t, out, "Win rate:")
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wumpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world:\n  size: 5\n"), 0644))

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"--config", path, "config", "init", path})
	assert.Error(t, rootCmd.Execute())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "world:\n  size: 5\n", string(data))
}
