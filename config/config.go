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

// Package config loads codeindex settings from a TOML file and the
// environment.
//
// Values are layered: built-in defaults, then the file, then CODEINDEX_*
// environment variables. Command line flags are applied by the caller on top.
//
// Example file:
//
//	[embedding]
//	host = "http://localhost:11434/v1"
//	model = "nomic-embed-text"
//
//	[index]
//	ignore_patterns = ["fixtures/**", "*.snap"]
//	batch_size = 64
//
//	[storage]
//	path = "~/.codeindex"
//	backend = "badger"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/poiesic/codeindex/ai"
	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/indexing"
)

// Storage backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	SnapshotBackend = "backend"
	SnapshotFile    = "file"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "CODEINDEX_"

// Config is the complete codeindex configuration.
type Config struct {
	Embedding EmbeddingConfig `toml:"embedding"`
	Index     IndexConfig     `toml:"index"`
	Storage   StorageConfig   `toml:"storage"`
}

// EmbeddingConfig selects the embedding service.
type EmbeddingConfig struct {
	Host      string `toml:"host"`
	Model     string `toml:"model"`
	Token     string `toml:"token"`
	CacheSize int    `toml:"cache_size"`
}

// IndexConfig tunes indexing. Zero values fall back to the indexing defaults.
type IndexConfig struct {
	IgnorePatterns []string `toml:"ignore_patterns"`
	Extensions     []string `toml:"extensions"`
	BatchSize      int      `toml:"batch_size"`
	CharBudget     int      `toml:"char_budget"`
	ChunkLimit     int      `toml:"chunk_limit"`
	Concurrency    int      `toml:"concurrency"`
	Collection     string   `toml:"collection"`
}

// StorageConfig says where vectors and snapshots live.
type StorageConfig struct {
	// Path is the database directory (badger) or file (sqlite).
	Path string `toml:"path"`
	// Backend is one of badger, sqlite or memory.
	Backend string `toml:"backend"`
	// Snapshot is "backend" to keep snapshots next to the vectors or
	// "file" to write one JSON file per root under SnapshotDir.
	Snapshot    string `toml:"snapshot"`
	SnapshotDir string `toml:"snapshot_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	ac := ai.DefaultConfig()
	return &Config{
		Embedding: EmbeddingConfig{
			Host:      ac.EmbeddingHost,
			Model:     ac.EmbeddingModel,
			CacheSize: ac.QueryCacheSize,
		},
		Index: IndexConfig{
			BatchSize:  indexing.DefaultBatchSize,
			CharBudget: indexing.DefaultCharBudget,
			ChunkLimit: indexing.DefaultChunkLimit,
		},
		Storage: StorageConfig{
			Path:     DefaultStoragePath(),
			Backend:  BackendBadger,
			Snapshot: SnapshotBackend,
		},
	}
}

// DefaultStoragePath is ~/.codeindex/db, or .codeindex/db when the home
// directory is unknown.
func DefaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".codeindex", "db")
	}
	return filepath.Join(home, ".codeindex", "db")
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decoding config file %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	cfg.Storage.SnapshotDir = expandHome(cfg.Storage.SnapshotDir)
	return cfg, nil
}

// ApplyEnv overrides fields from CODEINDEX_* variables:
//
//	CODEINDEX_EMBEDDING_HOST, CODEINDEX_EMBEDDING_MODEL,
//	CODEINDEX_EMBEDDING_TOKEN, CODEINDEX_EMBEDDING_CACHE_SIZE,
//	CODEINDEX_IGNORE_PATTERNS (comma separated, appended),
//	CODEINDEX_EXTENSIONS (comma separated, appended),
//	CODEINDEX_BATCH_SIZE, CODEINDEX_CONCURRENCY, CODEINDEX_COLLECTION,
//	CODEINDEX_DB, CODEINDEX_BACKEND
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			for _, item := range strings.Split(v, ",") {
				if item = strings.TrimSpace(item); item != "" {
					*dst = append(*dst, item)
				}
			}
		}
	}
	var errs []error
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, &core.ConfigurationError{Field: EnvPrefix + name, Reason: "not an integer: " + v})
				return
			}
			*dst = n
		}
	}

	str("EMBEDDING_HOST", &c.Embedding.Host)
	str("EMBEDDING_MODEL", &c.Embedding.Model)
	str("EMBEDDING_TOKEN", &c.Embedding.Token)
	num("EMBEDDING_CACHE_SIZE", &c.Embedding.CacheSize)
	list("IGNORE_PATTERNS", &c.Index.IgnorePatterns)
	list("EXTENSIONS", &c.Index.Extensions)
	num("BATCH_SIZE", &c.Index.BatchSize)
	num("CONCURRENCY", &c.Index.Concurrency)
	str("COLLECTION", &c.Index.Collection)
	str("DB", &c.Storage.Path)
	str("BACKEND", &c.Storage.Backend)
	return errors.Join(errs...)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(field, reason string) {
		errs = append(errs, &core.ConfigurationError{Field: field, Reason: reason})
	}

	if c.Embedding.Host == "" {
		invalid("embedding.host", "is required")
	}
	if c.Embedding.Model == "" {
		invalid("embedding.model", "is required")
	}
	if c.Embedding.CacheSize < 0 {
		invalid("embedding.cache_size", "must not be negative")
	}
	if c.Index.BatchSize < 0 {
		invalid("index.batch_size", "must not be negative")
	}
	if c.Index.CharBudget < 0 {
		invalid("index.char_budget", "must not be negative")
	}
	if c.Index.ChunkLimit < 0 {
		invalid("index.chunk_limit", "must not be negative")
	}
	if c.Index.Concurrency < 0 {
		invalid("index.concurrency", "must not be negative")
	}
	if c.Index.Collection != "" {
		if err := core.ValidateCollectionName(c.Index.Collection); err != nil {
			invalid("index.collection", err.Error())
		}
	}

	switch c.Storage.Backend {
	case BackendBadger, BackendSQLite:
		if c.Storage.Path == "" {
			invalid("storage.path", "is required for the "+c.Storage.Backend+" backend")
		}
	case BackendMemory:
	default:
		invalid("storage.backend", fmt.Sprintf("unknown backend %q, must be one of: badger, sqlite, memory", c.Storage.Backend))
	}
	switch c.Storage.Snapshot {
	case "", SnapshotBackend:
	case SnapshotFile:
		if c.Storage.SnapshotDir == "" {
			invalid("storage.snapshot_dir", "is required for file snapshots")
		}
	default:
		invalid("storage.snapshot", fmt.Sprintf("unknown snapshot store %q, must be one of: backend, file", c.Storage.Snapshot))
	}
	return errors.Join(errs...)
}

// AIConfig returns the embedding settings as an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIToken(c.Embedding.Token),
		ai.WithQueryCacheSize(c.Embedding.CacheSize),
	)
}

// IndexOptions turns the index settings into indexing options.
// Zero values are left to the indexing defaults.
func (c *Config) IndexOptions() []indexing.Option {
	var opts []indexing.Option
	if len(c.Index.IgnorePatterns) > 0 {
		opts = append(opts, indexing.WithIgnorePatterns(c.Index.IgnorePatterns...))
	}
	if len(c.Index.Extensions) > 0 {
		opts = append(opts, indexing.WithExtensions(c.Index.Extensions...))
	}
	if c.Index.BatchSize > 0 {
		opts = append(opts, indexing.WithBatchSize(c.Index.BatchSize))
	}
	if c.Index.CharBudget > 0 {
		opts = append(opts, indexing.WithCharBudget(c.Index.CharBudget))
	}
	if c.Index.ChunkLimit > 0 {
		opts = append(opts, indexing.WithChunkLimit(c.Index.ChunkLimit))
	}
	if c.Index.Concurrency > 0 {
		opts = append(opts, indexing.WithConcurrency(c.Index.Concurrency))
	}
	if c.Index.Collection != "" {
		opts = append(opts, indexing.WithCollection(c.Index.Collection))
	}
	return opts
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
