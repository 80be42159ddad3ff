package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	SetBase(zap.New(core))
	t.Cleanup(func() {
		SetBase(nil)
		_ = Initialize(Options{})
	})
	return logs
}

func TestCategoriesAreNamedLoggers(t *testing.T) {
	logs := observe(t)

	Kernel("derived %d facts", 3)
	PolicyDebug("chose %s", "move_up")
	Get(CategoryWorld).Warn("bump at %s", "(1, 1)")

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "kernel", entries[0].LoggerName)
	assert.Equal(t, "derived 3 facts", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)

	assert.Equal(t, "policy", entries[1].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)

	assert.Equal(t, "world", entries[2].LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}

func TestDisabledCategoryIsSilent(t *testing.T) {
	logs := observe(t)
	require.NoError(t, Initialize(Options{Categories: map[string]bool{"kernel": false}}))

	assert.False(t, IsCategoryEnabled(CategoryKernel))
	assert.True(t, IsCategoryEnabled(CategoryPolicy), "unlisted categories default to enabled")

	Kernel("should not appear")
	Policy("should appear")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "should appear", logs.All()[0].Message)
}

func TestWithContextAddsFields(t *testing.T) {
	logs := observe(t)

	Get(CategorySession).WithContext(map[string]interface{}{"episode": "abc"}).Info("step %d", 4)

	entries := logs.FilterField(zap.String("episode", "abc")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "step 4", entries[0].Message)
}

func TestInitializeDebugModeWritesFile(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() {
		SetBase(nil)
		_ = Initialize(Options{})
	})

	require.NoError(t, Initialize(Options{DebugMode: true, Level: "debug", Format: "json", Dir: dir}))
	Kernel("hello from %s", "test")
	CloseAll()

	files, err := filepath.Glob(filepath.Join(dir, "*_wumpus.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "hello from test"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}
