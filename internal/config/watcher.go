package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"wumpus/internal/logging"
	"wumpus/internal/world"
)

// LayoutWatcher reloads a layout file whenever it changes on disk.
// It watches the containing directory so editors that save via rename are seen too.
type LayoutWatcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	path        string
	onChange    func(world.Layout)
	onError     func(error)
	pending     time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats LayoutWatcherStats
}

// LayoutWatcherStats tracks watcher activity.
type LayoutWatcherStats struct {
	Events        int
	Reloads       int
	Errors        int
	LastEventTime time.Time
	LastEventType string
}

// NewLayoutWatcher creates a watcher for path. onChange receives every successfully
// reloaded layout; onError, when non-nil, receives read and validation failures.
func NewLayoutWatcher(path string, onChange func(world.Layout), onError func(error)) (*LayoutWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return &LayoutWatcher{
		watcher:     watcher,
		path:        abs,
		onChange:    onChange,
		onError:     onError,
		debounceDur: 300 * time.Millisecond, // Debounce rapid saves
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// SetDebounce changes the settle window. Call before Start.
func (lw *LayoutWatcher) SetDebounce(d time.Duration) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.debounceDur = d
}

// Start begins watching. It is non-blocking.
func (lw *LayoutWatcher) Start(ctx context.Context) error {
	lw.mu.Lock()
	if lw.running {
		lw.mu.Unlock()
		return nil
	}
	lw.running = true
	lw.mu.Unlock()

	dir := filepath.Dir(lw.path)
	if err := lw.watcher.Add(dir); err != nil {
		lw.mu.Lock()
		lw.running = false
		lw.mu.Unlock()
		return err
	}
	logging.Boot("LayoutWatcher: watching %s", lw.path)

	go lw.run(ctx)
	return nil
}

// Stop stops the watcher and waits for cleanup.
func (lw *LayoutWatcher) Stop() {
	lw.mu.Lock()
	wasRunning := lw.running
	lw.running = false
	lw.mu.Unlock()

	if wasRunning {
		close(lw.stopCh)
		<-lw.doneCh
	}
	if err := lw.watcher.Close(); err != nil {
		logging.Get(logging.CategoryBoot).Error("LayoutWatcher: error closing watcher: %v", err)
	}
	logging.BootDebug("LayoutWatcher: stopped")
}

// Stats returns a copy of the activity counters.
func (lw *LayoutWatcher) Stats() LayoutWatcherStats {
	lw.mu.RLock()
	defer lw.mu.RUnlock()
	return lw.stats
}

func (lw *LayoutWatcher) run(ctx context.Context) {
	defer close(lw.doneCh)

	debounceTicker := time.NewTicker(50 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-lw.stopCh:
			return

		case event, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			lw.handleEvent(event)

		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryBoot).Error("LayoutWatcher error: %v", err)
			lw.mu.Lock()
			lw.stats.Errors++
			lw.mu.Unlock()

		case <-debounceTicker.C:
			lw.processDebounced()
		}
	}
}

func (lw *LayoutWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != lw.path {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return // removals and chmod leave the current board alone
	}
	logging.BootDebug("LayoutWatcher: %s event for %s", eventType, event.Name)

	lw.mu.Lock()
	lw.stats.Events++
	lw.stats.LastEventTime = time.Now()
	lw.stats.LastEventType = eventType
	lw.pending = time.Now()
	lw.mu.Unlock()
}

func (lw *LayoutWatcher) processDebounced() {
	lw.mu.Lock()
	if lw.pending.IsZero() || time.Since(lw.pending) < lw.debounceDur {
		lw.mu.Unlock()
		return
	}
	lw.pending = time.Time{}
	lw.mu.Unlock()

	layout, err := LoadLayout(lw.path)
	if err != nil {
		logging.Get(logging.CategoryBoot).Warn("LayoutWatcher: reload of %s failed: %v", lw.path, err)
		lw.mu.Lock()
		lw.stats.Errors++
		lw.mu.Unlock()
		if lw.onError != nil {
			lw.onError(err)
		}
		return
	}

	lw.mu.Lock()
	lw.stats.Reloads++
	lw.mu.Unlock()
	logging.Boot("LayoutWatcher: reloaded %s", lw.path)
	if lw.onChange != nil {
		lw.onChange(layout)
	}
}
