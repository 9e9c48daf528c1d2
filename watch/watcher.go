// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package watch keeps an index current by reindexing a root whenever files
// under it change.
//
// Directories are watched recursively with fsnotify. Ignored directories
// are never watched, so dependency trees and build outputs cost nothing.
// Events are debounced: a burst of saves produces one reindex cycle once
// the tree has been quiet for the debounce interval.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/filesync"
	"github.com/poiesic/codeindex/indexing"
)

// DefaultDebounce is how long the tree must be quiet before a cycle starts.
const DefaultDebounce = 500 * time.Millisecond

// Indexer runs an incremental cycle for a root.
// *indexing.Context satisfies it.
type Indexer interface {
	Reindex(ctx context.Context, root string) (*indexing.Stats, error)
}

// Watcher reindexes one root on file changes.
type Watcher struct {
	syncer   *filesync.Synchronizer
	indexer  Indexer
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onCycle  func(*indexing.Stats, error)
	logger   *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher) error

// WithDebounce sets the quiet period before a cycle starts.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) error {
		if d <= 0 {
			return &core.ConfigurationError{Field: "debounce", Reason: fmt.Sprintf("must be positive, got %s", d)}
		}
		w.debounce = d
		return nil
	}
}

// WithCycleHook registers a callback run after every cycle.
func WithCycleHook(fn func(*indexing.Stats, error)) Option {
	return func(w *Watcher) error {
		w.onCycle = fn
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) error {
		if logger != nil {
			w.logger = logger
		}
		return nil
	}
}

// New creates a Watcher for the synchronizer's root. The synchronizer
// decides which paths matter; indexer runs the cycles.
func New(syncer *filesync.Synchronizer, indexer Indexer, opts ...Option) (*Watcher, error) {
	if syncer == nil {
		return nil, errors.New("synchronizer required")
	}
	if indexer == nil {
		return nil, errors.New("indexer required")
	}
	w := &Watcher{
		syncer:   syncer,
		indexer:  indexer,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	w.logger = w.logger.With("component", "watch", "root", syncer.Root())

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	w.fsw = fsw
	return w, nil
}

// Close stops watching. Run returns once Close is called.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run performs an initial cycle and then one cycle per debounced burst of
// changes, until ctx is done or the watcher is closed. Cycle failures are
// logged and reported to the hook; they do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.addRecursive(w.syncer.Root()); err != nil {
		return err
	}
	w.cycle(ctx)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending bool
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			timer.Reset(w.debounce)
		}
		timerC = timer.C
		pending = true
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				schedule()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				schedule()
			}

		case <-timerC:
			timerC = nil
			if !pending {
				continue
			}
			pending = false
			if w.cycle(ctx) {
				schedule()
			}
		}
	}
}

// handle reacts to one event and reports whether it warrants a cycle.
func (w *Watcher) handle(event fsnotify.Event) bool {
	rel, ok := w.relative(event.Name)
	if !ok {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.syncer.Patterns().IsIgnored(rel, true) {
				return false
			}
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("watching new directory failed", "path", rel, "err", err)
			}
			return true
		}
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		// The path is gone, so it may have been a directory full of tracked files.
		return !w.syncer.Patterns().IsIgnored(rel, true) || w.syncer.Tracks(rel)
	}

	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
		return w.syncer.Tracks(rel)
	}
	return false
}

// cycle runs one reindex and reports whether it must be retried because
// another cycle held the root.
func (w *Watcher) cycle(ctx context.Context) bool {
	stats, err := w.indexer.Reindex(ctx, w.syncer.Root())
	if errors.Is(err, core.ErrIndexInProgress) {
		w.logger.Debug("cycle already running, retrying after debounce")
		return true
	}
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("reindex failed", "err", err)
		}
	} else if stats.Added+stats.Modified+stats.Deleted > 0 {
		w.logger.Info("reindexed",
			"added", stats.Added,
			"modified", stats.Modified,
			"deleted", stats.Deleted,
			"chunks", stats.Chunks,
			"took", stats.Duration)
	}
	if w.onCycle != nil {
		w.onCycle(stats, err)
	}
	return false
}

// addRecursive watches dir and every directory below it that is not ignored.
func (w *Watcher) addRecursive(dir string) error {
	root := w.syncer.Root()
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return &core.TraversalError{Path: path, Err: err}
			}
			w.logger.Debug("skipping unreadable directory", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root {
			rel, ok := w.relative(path)
			if !ok || w.syncer.Patterns().IsIgnored(rel, true) {
				return filepath.SkipDir
			}
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("watching directory failed", "path", path, "err", err)
		}
		return nil
	})
}

func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.syncer.Root(), path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}
