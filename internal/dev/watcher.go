package dev

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// WatcherConfig configures the polling file watcher.
type WatcherConfig struct {
	// Paths are the directories to watch.
	Paths []string

	// Ignore contains name patterns to skip.
	Ignore []string

	// Interval is the polling period.
	Interval time.Duration

	// Debounce is the quiet period after the last change before the
	// callback fires, so a burst of saves triggers one rebuild.
	Debounce time.Duration
}

// DefaultIgnore contains patterns skipped by default.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"dist",
	"*.tmp",
	"*.swp",
	"*~",
}

// Watcher polls the filesystem and reports batches of changed paths.
type Watcher struct {
	config   WatcherConfig
	onChange func(paths []string)

	mu         sync.Mutex
	running    bool
	stopCh     chan struct{}
	timestamps map[string]time.Time
	pending    map[string]struct{}
	lastEvent  time.Time
}

// NewWatcher creates a watcher with defaults filled in.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Interval == 0 {
		config.Interval = 100 * time.Millisecond
	}
	if config.Debounce == 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	return &Watcher{
		config:     config,
		timestamps: make(map[string]time.Time),
		pending:    make(map[string]struct{}),
	}
}

// OnChange sets the callback invoked with each debounced change batch.
func (w *Watcher) OnChange(fn func(paths []string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start begins polling. It blocks until the context is cancelled or Stop
// is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	w.scan(false)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			w.scan(true)
			w.flushIfQuiet()
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// scan walks the watched paths and records modified, created and deleted
// files. With report false, the walk only seeds the timestamp map.
func (w *Watcher) scan(report bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	seen := make(map[string]struct{})
	for _, root := range w.config.Paths {
		filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if info.IsDir() {
				if w.shouldIgnore(p) {
					return filepath.SkipDir
				}
				return nil
			}
			if w.shouldIgnore(p) {
				return nil
			}
			seen[p] = struct{}{}

			last, exists := w.timestamps[p]
			mod := info.ModTime()
			if !exists || mod.After(last) {
				w.timestamps[p] = mod
				if report {
					w.pending[p] = struct{}{}
					w.lastEvent = time.Now()
				}
			}
			return nil
		})
	}

	for p := range w.timestamps {
		if _, ok := seen[p]; !ok {
			delete(w.timestamps, p)
			if report {
				w.pending[p] = struct{}{}
				w.lastEvent = time.Now()
			}
		}
	}
}

// flushIfQuiet fires the callback once no new change arrived for the
// debounce window.
func (w *Watcher) flushIfQuiet() {
	w.mu.Lock()
	if len(w.pending) == 0 || time.Since(w.lastEvent) < w.config.Debounce {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	callback := w.onChange
	w.mu.Unlock()

	if callback != nil {
		callback(paths)
	}
}

func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if name == pattern {
			return true
		}
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
