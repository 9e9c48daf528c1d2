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

package codeindex

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/codeindex/ai"
	"github.com/poiesic/codeindex/ai/cache"
	"github.com/poiesic/codeindex/ai/openai"
	"github.com/poiesic/codeindex/config"
	"github.com/poiesic/codeindex/indexing"
	"github.com/poiesic/codeindex/storage"
	"github.com/poiesic/codeindex/storage/badger"
	"github.com/poiesic/codeindex/storage/filesnap"
	"github.com/poiesic/codeindex/storage/memory"
	"github.com/poiesic/codeindex/storage/sqlite"
	"github.com/poiesic/codeindex/watch"
)

// Index bundles the stores, the embedder and the indexing Context that
// works on them.
type Index struct {
	vectors   storage.VectorStore
	snapshots storage.SnapshotStore
	embedder  ai.Embedder
	indexer   *indexing.Context
	closers   []func() error
	logger    *slog.Logger
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	cfg       *config.Config
	embedder  ai.Embedder
	indexOpts []indexing.Option
	logger    *slog.Logger
}

// WithConfig uses cfg instead of config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(o *openOptions) {
		o.cfg = cfg
	}
}

// WithEmbedder uses embedder instead of an OpenAI-compatible client built
// from the embedding config.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(o *openOptions) {
		o.embedder = embedder
	}
}

// WithIndexOptions passes extra options to the indexing Context. They are
// applied after the ones derived from the config.
func WithIndexOptions(opts ...indexing.Option) Option {
	return func(o *openOptions) {
		o.indexOpts = append(o.indexOpts, opts...)
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *openOptions) {
		o.logger = logger
	}
}

// Open opens the index stored at path with the configured backend. A
// non-empty path overrides the storage path of the config.
func Open(path string, opts ...Option) (*Index, error) {
	options := &openOptions{
		cfg:    config.Default(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	cfg := *options.cfg
	if path != "" {
		cfg.Storage.Path = path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ix := &Index{logger: options.logger.With("component", "codeindex")}
	if err := ix.openStores(&cfg); err != nil {
		ix.Close()
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		aiConfig := cfg.AIConfig()
		client, err := openai.NewEmbedder(aiConfig)
		if err != nil {
			ix.Close()
			return nil, err
		}
		embedder = cache.New(client, aiConfig.QueryCacheSize)
	}
	ix.embedder = embedder

	indexOpts := append(cfg.IndexOptions(), indexing.WithLogger(options.logger))
	indexOpts = append(indexOpts, options.indexOpts...)
	indexer, err := indexing.NewContext(embedder, ix.vectors, ix.snapshots, indexOpts...)
	if err != nil {
		ix.Close()
		return nil, err
	}
	ix.indexer = indexer
	return ix, nil
}

func (ix *Index) openStores(cfg *config.Config) error {
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		backend, err := badger.OpenBackend(cfg.Storage.Path, false)
		if err != nil {
			return err
		}
		ix.closers = append(ix.closers, backend.Close)
		vectors, err := badger.NewVectorRepository(backend)
		if err != nil {
			return err
		}
		ix.vectors = vectors
		if cfg.Storage.Snapshot != config.SnapshotFile {
			snapshots, err := badger.NewSnapshotRepository(backend)
			if err != nil {
				return err
			}
			ix.closers = append(ix.closers, snapshots.Close)
			ix.snapshots = snapshots
		}

	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return err
		}
		db, err := sqlite.Open(context.Background(), cfg.Storage.Path)
		if err != nil {
			return err
		}
		ix.closers = append(ix.closers, db.Close)
		ix.vectors = sqlite.NewVectorStore(db)
		if cfg.Storage.Snapshot != config.SnapshotFile {
			ix.snapshots = sqlite.NewSnapshotStore(db)
		}

	case config.BackendMemory:
		ix.vectors = memory.NewVectorStore()
		if cfg.Storage.Snapshot != config.SnapshotFile {
			ix.snapshots = memory.NewSnapshotStore()
		}

	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Storage.Snapshot == config.SnapshotFile {
		snapshots, err := filesnap.New(cfg.Storage.SnapshotDir)
		if err != nil {
			return err
		}
		ix.snapshots = snapshots
	}
	return nil
}

// Close releases the worker pool and closes the stores.
func (ix *Index) Close() error {
	if ix.indexer != nil {
		ix.indexer.Release()
	}
	var firstErr error
	for i := len(ix.closers) - 1; i >= 0; i-- {
		if err := ix.closers[i](); err != nil {
			ix.logger.Error("error closing storage", "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	ix.closers = nil
	return firstErr
}

// Context returns the indexing Context.
func (ix *Index) Context() *indexing.Context {
	return ix.indexer
}

// VectorStore returns the vector store.
func (ix *Index) VectorStore() storage.VectorStore {
	return ix.vectors
}

// SnapshotStore returns the snapshot store.
func (ix *Index) SnapshotStore() storage.SnapshotStore {
	return ix.snapshots
}

// NewWatcher creates a watcher that reindexes root on changes.
func (ix *Index) NewWatcher(root string, opts ...watch.Option) (*watch.Watcher, error) {
	syncer, err := ix.indexer.Synchronizer(root)
	if err != nil {
		return nil, err
	}
	opts = append([]watch.Option{watch.WithLogger(ix.logger)}, opts...)
	return watch.New(syncer, ix.indexer, opts...)
}
