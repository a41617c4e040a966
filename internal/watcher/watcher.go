// Package watcher reindexes the suggestion index when the catalog seed
// file changes on disk. Editors save with bursts of writes (and often a
// rename), so events are debounced with a cancel-and-reschedule timer
// before a reload is emitted.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// CatalogWatcher watches one catalog file and emits debounced reload signals.
type CatalogWatcher struct {
	path   string
	window time.Duration

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	timer   *time.Timer
	reloads chan struct{}
	stopped bool
}

// New creates a watcher for the given catalog file.
// window is the quiet period applied before a reload is emitted.
func New(path string, window time.Duration) *CatalogWatcher {
	return &CatalogWatcher{
		path:    path,
		window:  window,
		reloads: make(chan struct{}, 1),
	}
}

// Start begins watching and blocks until the context is cancelled.
// The parent directory is watched rather than the file itself: editors
// that save via rename would otherwise detach the watch.
func (w *CatalogWatcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	slog.Info("catalog_watch_started",
		slog.String("path", w.path),
		slog.Duration("debounce", w.window))

	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("catalog_watch_error", slog.String("error", err.Error()))
		}
	}
}

// scheduleReload arms the debounce timer, superseding any pending one.
func (w *CatalogWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.window, w.emit)
}

// emit sends one reload signal. Non-blocking: a pending signal already
// covers the change.
func (w *CatalogWatcher) emit() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	select {
	case w.reloads <- struct{}{}:
	default:
	}
}

// Reloads returns the channel of debounced reload signals.
func (w *CatalogWatcher) Reloads() <-chan struct{} {
	return w.reloads
}

// Stop stops the watcher. Safe to call multiple times.
func (w *CatalogWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true

	if w.timer != nil {
		w.timer.Stop()
	}
	if w.fsw != nil {
		_ = w.fsw.Close()
	}
}
