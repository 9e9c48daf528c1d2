package indexing

import (
	"fmt"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/codeindex/chunk"
	"github.com/poiesic/codeindex/core"
)

const (
	// DefaultBatchSize is the maximum number of chunks per embedding request.
	DefaultBatchSize = 100

	// DefaultCharBudget is the maximum total characters per embedding request.
	DefaultCharBudget = 200_000

	// DefaultChunkLimit caps the chunks indexed in one cycle.
	DefaultChunkLimit = 450_000

	// CollectionPrefix starts every derived collection name.
	CollectionPrefix = "code_chunks"
)

// Option configures a Context.
type Option func(*Context) error

// WithIgnorePatterns adds ignore patterns on top of the built-in defaults.
// The defaults cannot be removed.
func WithIgnorePatterns(patterns ...string) Option {
	return func(c *Context) error {
		c.ignorePatterns = append(c.ignorePatterns, patterns...)
		return nil
	}
}

// WithExtensions adds file extensions to DefaultExtensions.
func WithExtensions(exts ...string) Option {
	return func(c *Context) error {
		c.extensions = append(c.extensions, exts...)
		return nil
	}
}

// WithBatchSize sets the maximum number of chunks per embedding request.
func WithBatchSize(n int) Option {
	return func(c *Context) error {
		if n < 1 {
			return &core.ConfigurationError{Field: "batch_size", Reason: fmt.Sprintf("must be at least 1, got %d", n)}
		}
		c.batchSize = n
		return nil
	}
}

// WithCharBudget sets the maximum total characters per embedding request.
// A chunk longer than the budget is sent alone.
func WithCharBudget(n int) Option {
	return func(c *Context) error {
		if n < 1 {
			return &core.ConfigurationError{Field: "char_budget", Reason: fmt.Sprintf("must be at least 1, got %d", n)}
		}
		c.charBudget = n
		return nil
	}
}

// WithConcurrency sets how many batches are embedded and stored at once.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithConcurrency(n int) Option {
	return func(c *Context) error {
		if n < 1 {
			return &core.ConfigurationError{Field: "concurrency", Reason: fmt.Sprintf("must be at least 1, got %d", n)}
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		if c.pool != nil {
			c.pool.Release()
		}
		c.pool = pool
		c.concurrency = n
		return nil
	}
}

// WithChunkLimit caps how many chunks one cycle indexes. Files past the cap
// are left out of the snapshot and picked up by a later cycle.
func WithChunkLimit(n int) Option {
	return func(c *Context) error {
		if n < 1 {
			return &core.ConfigurationError{Field: "chunk_limit", Reason: fmt.Sprintf("must be at least 1, got %d", n)}
		}
		c.chunkLimit = n
		return nil
	}
}

// WithCollection uses a fixed collection name instead of deriving one from
// the root path. Chunk ids are relative to the root, so the collection serves
// a single root: the Context rejects a second one.
func WithCollection(name string) Option {
	return func(c *Context) error {
		if err := core.ValidateCollectionName(name); err != nil {
			return &core.ConfigurationError{Field: "collection", Reason: err.Error()}
		}
		c.collection = name
		return nil
	}
}

// WithChunker replaces the default langchaingo splitter.
func WithChunker(chunker chunk.Chunker) Option {
	return func(c *Context) error {
		if chunker == nil {
			return &core.ConfigurationError{Field: "chunker", Reason: "must not be nil"}
		}
		c.chunker = chunker
		return nil
	}
}

// WithProgress registers a callback invoked as a cycle advances.
// Calls are serialized.
func WithProgress(fn func(core.Progress)) Option {
	return func(c *Context) error {
		c.progress = fn
		return nil
	}
}

// WithHashWorkers sets how many files are hashed concurrently while scanning.
func WithHashWorkers(n int) Option {
	return func(c *Context) error {
		if n < 1 {
			return &core.ConfigurationError{Field: "hash_workers", Reason: fmt.Sprintf("must be at least 1, got %d", n)}
		}
		c.hashWorkers = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}
