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

package filesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/ignore"
	"github.com/poiesic/codeindex/storage"
)

// Synchronizer tracks one (root, collection) pair.
// It is safe for concurrent use, but callers should not run overlapping
// sync cycles for the same root.
type Synchronizer struct {
	root        string
	collection  string
	patterns    *ignore.PatternSet
	store       storage.SnapshotStore
	extensions  map[string]struct{}
	hashWorkers int
	logger      *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer) error

// WithExtensions limits tracking to files with the given extensions
// (".go" or "go"; matched case-insensitively). No extensions means every file.
func WithExtensions(exts ...string) Option {
	return func(s *Synchronizer) error {
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" || ext == "." {
				return &core.ConfigurationError{Field: "extensions", Reason: "empty extension"}
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			if s.extensions == nil {
				s.extensions = make(map[string]struct{})
			}
			s.extensions[ext] = struct{}{}
		}
		return nil
	}
}

// WithHashWorkers sets how many files are hashed concurrently.
// Default is runtime.NumCPU().
func WithHashWorkers(n int) Option {
	return func(s *Synchronizer) error {
		if n < 1 {
			return &core.ConfigurationError{Field: "hash_workers", Reason: fmt.Sprintf("must be at least 1, got %d", n)}
		}
		s.hashWorkers = n
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// New creates a Synchronizer for root. A nil patterns uses the defaults only.
func New(root, collection string, patterns *ignore.PatternSet, store storage.SnapshotStore, opts ...Option) (*Synchronizer, error) {
	if root == "" {
		return nil, &core.ConfigurationError{Field: "root", Reason: "must not be empty"}
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &core.ConfigurationError{Field: "root", Reason: err.Error()}
	}
	if err := core.ValidateCollectionName(collection); err != nil {
		return nil, &core.ConfigurationError{Field: "collection", Reason: err.Error()}
	}
	if store == nil {
		return nil, ErrSnapshotStoreRequired
	}
	if patterns == nil {
		if patterns, err = ignore.New(); err != nil {
			return nil, err
		}
	}

	s := &Synchronizer{
		root:        absRoot,
		collection:  collection,
		patterns:    patterns,
		store:       store,
		hashWorkers: runtime.NumCPU(),
		logger:      slog.Default().With("component", "filesync"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Root returns the absolute root being tracked.
func (s *Synchronizer) Root() string { return s.root }

// Key returns the snapshot key for this root and collection.
func (s *Synchronizer) Key() core.SnapshotKey {
	return core.SnapshotKey{Root: s.root, Collection: s.collection}
}

// Patterns returns the ignore rules used for pruning.
func (s *Synchronizer) Patterns() *ignore.PatternSet { return s.patterns }

// Tracks reports whether a file at relativePath would be fingerprinted,
// ignoring whether it exists.
func (s *Synchronizer) Tracks(relativePath string) bool {
	if s.patterns.IsIgnored(relativePath, false) {
		return false
	}
	return s.acceptsExtension(relativePath)
}

func (s *Synchronizer) acceptsExtension(relativePath string) bool {
	if len(s.extensions) == 0 {
		return true
	}
	_, ok := s.extensions[strings.ToLower(filepath.Ext(relativePath))]
	return ok
}

// Result is the outcome of one ComputeChangeSet call.
type Result struct {
	// Changes lists added, modified and deleted paths, each sorted.
	Changes core.ChangeSet
	// Current is the snapshot to commit once Changes are reconciled.
	Current core.Snapshot
	// Skipped lists subtrees and files that could not be read, sorted by path.
	Skipped []*core.TraversalError
}

// ComputeChangeSet walks the root and diffs it against the stored snapshot.
// Nothing is persisted.
func (s *Synchronizer) ComputeChangeSet(ctx context.Context) (*Result, error) {
	previous, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	scan, err := s.walk(ctx)
	if err != nil {
		return nil, err
	}

	current, hashSkipped, err := s.fingerprint(ctx, scan.files, previous)
	if err != nil {
		return nil, err
	}
	skipped := append(scan.skipped, hashSkipped...)
	carryForward(current, previous, scan.skippedDirs)

	result := &Result{
		Changes: Diff(previous, current),
		Current: current,
		Skipped: sortTraversalErrors(skipped),
	}
	s.logger.Debug("computed change set",
		"root", s.root,
		"tracked", len(current),
		"added", len(result.Changes.Added),
		"modified", len(result.Changes.Modified),
		"deleted", len(result.Changes.Deleted),
		"skipped", len(result.Skipped))
	return result, nil
}

// Commit replaces the stored snapshot with snapshot.
func (s *Synchronizer) Commit(ctx context.Context, snapshot core.Snapshot) error {
	if snapshot == nil {
		snapshot = make(core.Snapshot)
	}
	if err := s.store.Replace(ctx, s.Key(), snapshot); err != nil {
		return fmt.Errorf("committing snapshot for %s: %w", s.root, err)
	}
	return nil
}

// Reset replaces the stored snapshot with an empty one, so the next
// ComputeChangeSet reports every file as added.
func (s *Synchronizer) Reset(ctx context.Context) error {
	return s.Commit(ctx, make(core.Snapshot))
}

// Snapshot returns the stored snapshot. A corrupt snapshot is logged and
// treated as empty.
func (s *Synchronizer) Snapshot(ctx context.Context) (core.Snapshot, error) {
	snap, err := s.store.Load(ctx, s.Key())
	if err != nil {
		var corrupt *core.SnapshotCorruptionError
		if errors.As(err, &corrupt) {
			s.logger.Warn("stored snapshot is corrupt, starting from empty", "root", s.root, "err", err)
			return make(core.Snapshot), nil
		}
		return nil, fmt.Errorf("loading snapshot for %s: %w", s.root, err)
	}
	if snap == nil {
		snap = make(core.Snapshot)
	}
	return snap, nil
}
