// Package logging provides config-driven categorized logging for wumpus.
// Every category is a named child of one zap base logger. Until Initialize or SetBase
// is called the base logger is a no-op, so library code can log unconditionally.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup, config loading
	CategoryKernel     Category = "kernel"     // Fact store and inference rules
	CategoryPerception Category = "perception" // Percept -> fact transduction
	CategoryPolicy     Category = "policy"     // Action selection
	CategoryWorld      Category = "world"      // Environment simulator
	CategorySession    Category = "session"    // Episode lifecycle
	CategoryStore      Category = "store"      // Episode journal
	CategoryCampaign   Category = "campaign"   // Batch runs
	CategoryUI         Category = "ui"         // Interactive board
)

// Options mirrors the relevant parts of config.LoggingConfig
// to avoid circular imports
type Options struct {
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	Dir        string          // when set, logs go to Dir/<date>_wumpus.log instead of stderr
	DebugMode  bool            // master toggle; false keeps the current base logger
	Categories map[string]bool // per-category toggles, nil = all enabled
}

// Logger wraps a zap sugared logger bound to one category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	base      = zap.NewNop()
	opts      Options
	optsMu    sync.RWMutex
	nop       = zap.NewNop().Sugar()
)

// Initialize builds the base logger from opts. With DebugMode off it only records the
// category filter and leaves the current base logger (no-op by default) in place.
func Initialize(o Options) error {
	optsMu.Lock()
	opts = o
	optsMu.Unlock()

	if !o.DebugMode {
		resetLoggers()
		return nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if o.Format == "json" {
		cfg.Encoding = "json"
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(o.Level))
	cfg.Sampling = nil

	if o.Dir != "" {
		if err := os.MkdirAll(o.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
		date := time.Now().Format("2006-01-02")
		path := filepath.Join(o.Dir, fmt.Sprintf("%s_wumpus.log", date))
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	} else {
		cfg.OutputPaths = []string{"stderr"}
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	SetBase(l)

	boot := Get(CategoryBoot)
	boot.Info("logging initialized (level=%s format=%s dir=%q)", o.Level, cfg.Encoding, o.Dir)
	return nil
}

// ParseLevel maps a config level string to a zap level. Unknown strings mean info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetBase replaces the base logger every category derives from.
func SetBase(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggersMu.Lock()
	base = l
	loggers = make(map[Category]*Logger)
	loggersMu.Unlock()
}

// Base returns the current base logger.
func Base() *zap.Logger {
	loggersMu.RLock()
	defer loggersMu.RUnlock()
	return base
}

func resetLoggers() {
	loggersMu.Lock()
	loggers = make(map[Category]*Logger)
	loggersMu.Unlock()
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	optsMu.RLock()
	defer optsMu.RUnlock()

	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category, sugar: nop}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{
		category: category,
		sugar:    base.Named(string(category)).Sugar(),
	}
	loggers[category] = l
	return l
}

// Category returns the category this logger writes to.
func (l *Logger) Category() Category { return l.category }

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// WithContext returns a child logger carrying key-value context on every entry.
func (l *Logger) WithContext(ctx map[string]interface{}) *Logger {
	kv := make([]interface{}, 0, len(ctx)*2)
	for k, v := range ctx {
		kv = append(kv, k, v)
	}
	return &Logger{category: l.category, sugar: l.sugar.With(kv...)}
}

// CloseAll flushes the base logger (call at shutdown)
func CloseAll() {
	_ = Base().Sync()
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if the category is disabled
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) {
	Get(CategoryBoot).Debug(format, args...)
}

// Kernel logs to the kernel category
func Kernel(format string, args ...interface{}) {
	Get(CategoryKernel).Info(format, args...)
}

// KernelDebug logs debug to the kernel category
func KernelDebug(format string, args ...interface{}) {
	Get(CategoryKernel).Debug(format, args...)
}

// Perception logs to the perception category
func Perception(format string, args ...interface{}) {
	Get(CategoryPerception).Info(format, args...)
}

// PerceptionDebug logs debug to the perception category
func PerceptionDebug(format string, args ...interface{}) {
	Get(CategoryPerception).Debug(format, args...)
}

// Policy logs to the policy category
func Policy(format string, args ...interface{}) {
	Get(CategoryPolicy).Info(format, args...)
}

// PolicyDebug logs debug to the policy category
func PolicyDebug(format string, args ...interface{}) {
	Get(CategoryPolicy).Debug(format, args...)
}

// World logs to the world category
func World(format string, args ...interface{}) {
	Get(CategoryWorld).Info(format, args...)
}

// WorldDebug logs debug to the world category
func WorldDebug(format string, args ...interface{}) {
	Get(CategoryWorld).Debug(format, args...)
}

// Session logs to the session category
func Session(format string, args ...interface{}) {
	Get(CategorySession).Info(format, args...)
}

// SessionDebug logs debug to the session category
func SessionDebug(format string, args ...interface{}) {
	Get(CategorySession).Debug(format, args...)
}

// Store logs to the store category
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

// Campaign logs to the campaign category
func Campaign(format string, args ...interface{}) {
	Get(CategoryCampaign).Info(format, args...)
}

// CampaignDebug logs debug to the campaign category
func CampaignDebug(format string, args ...interface{}) {
	Get(CategoryCampaign).Debug(format, args...)
}

// UI logs to the ui category
func UI(format string, args ...interface{}) {
	Get(CategoryUI).Info(format, args...)
}

// UIDebug logs debug to the ui category
func UIDebug(format string, args ...interface{}) {
	Get(CategoryUI).Debug(format, args...)
}

// =============================================================================
// PERFORMANCE TIMING
// =============================================================================

// Timer measures one operation and logs its duration at debug level.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}
