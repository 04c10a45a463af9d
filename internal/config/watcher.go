// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CONFIG FILE WATCHER
// =============================================================================

// DefaultWatchDebounce is how long a config file must be quiet before a
// reload fires. Editors often write a file several times in quick succession.
const DefaultWatchDebounce = 500 * time.Millisecond

// Watcher reloads the configuration when the config file changes on disk.
// The watch is on the directory, not the file, so atomic rename-into-place
// writes are seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	onChange func(*Config)

	mu      sync.Mutex
	pending map[string]time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWatcher creates a watcher over dir. A zero debounce uses
// DefaultWatchDebounce. onChange, when non-nil, receives each successfully
// reloaded config after it has been installed as the global config.
func NewWatcher(dir string, debounce time.Duration, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		watcher:  fw,
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start begins watching for config file changes.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	go w.processEvents()
	go w.processPending()

	return nil
}

// processEvents marks changed config files as pending.
func (w *Watcher) processEvents() {
	defer func() {
		if r := recover(); r != nil {
			// Non-fatal; the watcher goroutine just stops.
			_ = r
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !isConfigFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.mu.Lock()
			w.pending[event.Name] = time.Now()
			w.mu.Unlock()

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next event may still arrive.
		}
	}
}

// processPending fires reloads for files that have been quiet past the
// debounce window.
func (w *Watcher) processPending() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()

			w.mu.Lock()
			var toReload []string
			for path, changed := range w.pending {
				if now.Sub(changed) >= w.debounce {
					toReload = append(toReload, path)
					delete(w.pending, path)
				}
			}
			w.mu.Unlock()

			for _, path := range toReload {
				w.reload(path)
			}
		}
	}
}

// reload loads the changed file and installs it as the global config.
func (w *Watcher) reload(path string) {
	if _, err := os.Stat(path); err != nil {
		// Renamed away or deleted between the event and the reload.
		return
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config reload failed for %s: %v\n", path, err)
		return
	}

	SetGlobal(cfg)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

// isConfigFile reports whether the path names one of the config files.
func isConfigFile(path string) bool {
	base := filepath.Base(path)
	return base == "config.toml" || base == "config.json"
}
