package indexing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/codeindex/ai"
	"github.com/poiesic/codeindex/chunk"
	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/filesync"
	"github.com/poiesic/codeindex/ignore"
	"github.com/poiesic/codeindex/search"
	"github.com/poiesic/codeindex/storage"
)

// Context indexes source trees into a vector store and answers queries.
// It is safe for concurrent use across different roots.
type Context struct {
	embedder  ai.Embedder
	store     storage.VectorStore
	snapshots storage.SnapshotStore
	chunker   chunk.Chunker
	searcher  *search.Searcher
	patterns  *ignore.PatternSet
	pool      *ants.Pool

	ignorePatterns []string
	extensions     []string
	batchSize      int
	charBudget     int
	concurrency    int
	chunkLimit     int
	hashWorkers    int
	collection     string
	progress       func(core.Progress)
	logger         *slog.Logger

	mu      sync.Mutex
	running map[string]struct{}
	owner   string // root bound to a fixed collection
}

// Stats summarizes one indexing cycle.
type Stats struct {
	Root       string
	Collection string
	Added      int
	Modified   int
	Deleted    int
	Skipped    int // unreadable paths reported by the scan
	Excluded   int // files left for a later cycle by the chunk cap or read failures
	Chunks     int
	Batches    int
	Duration   time.Duration
}

// Status describes what is indexed for a root.
type Status struct {
	Root       string
	Collection string
	Indexed    bool
	Files      int
	Chunks     int
}

// NewContext creates a Context. The ignore patterns are validated here, so
// a malformed pattern fails construction with *core.ConfigurationError.
func NewContext(embedder ai.Embedder, store storage.VectorStore, snapshots storage.SnapshotStore, opts ...Option) (*Context, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrVectorStoreRequired
	}
	if snapshots == nil {
		return nil, ErrSnapshotStoreRequired
	}

	concurrency := runtime.NumCPU() / 2
	if concurrency < 1 {
		concurrency = 1
	}

	c := &Context{
		embedder:    embedder,
		store:       store,
		snapshots:   snapshots,
		batchSize:   DefaultBatchSize,
		charBudget:  DefaultCharBudget,
		concurrency: concurrency,
		chunkLimit:  DefaultChunkLimit,
		hashWorkers: runtime.NumCPU(),
		logger:      slog.Default(),
		running:     make(map[string]struct{}),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			c.Release()
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "indexing")

	if c.pool == nil {
		pool, err := ants.NewPool(c.concurrency)
		if err != nil {
			return nil, err
		}
		c.pool = pool
	}

	patterns, err := ignore.New(c.ignorePatterns...)
	if err != nil {
		c.Release()
		return nil, err
	}
	c.patterns = patterns

	if c.chunker == nil {
		splitter, err := chunk.NewSplitter()
		if err != nil {
			c.Release()
			return nil, err
		}
		c.chunker = splitter
	}

	searcher, err := search.NewSearcher(embedder, store, search.WithLogger(c.logger))
	if err != nil {
		c.Release()
		return nil, err
	}
	c.searcher = searcher

	return c, nil
}

// Release releases the worker pool.
// The Context should not be used after calling Release.
func (c *Context) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// Patterns returns the merged ignore rules.
func (c *Context) Patterns() *ignore.PatternSet {
	return c.patterns
}

// CollectionName returns the collection that holds the vectors of root.
// A collection fixed with WithCollection belongs to the first root it is
// resolved for; any other root fails with *core.ConfigurationError.
func (c *Context) CollectionName(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &core.ConfigurationError{Field: "root", Reason: err.Error()}
	}
	if c.collection == "" {
		return CollectionPrefix + "_" + core.IDFromContent(abs).Hex(), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner == "" {
		c.owner = abs
	}
	if c.owner != abs {
		return "", &core.ConfigurationError{
			Field:  "collection",
			Reason: fmt.Sprintf("%s already holds %s, cannot also index %s", c.collection, c.owner, abs),
		}
	}
	return c.collection, nil
}

// Synchronizer returns the file synchronizer for root.
func (c *Context) Synchronizer(root string) (*filesync.Synchronizer, error) {
	collection, err := c.CollectionName(root)
	if err != nil {
		return nil, err
	}
	exts := append(append([]string(nil), DefaultExtensions...), c.extensions...)
	return filesync.New(root, collection, c.patterns, c.snapshots,
		filesync.WithExtensions(exts...),
		filesync.WithHashWorkers(c.hashWorkers),
		filesync.WithLogger(c.logger),
	)
}

// acquire marks root as busy. The returned func releases it.
func (c *Context) acquire(root string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.running[root]; busy {
		return nil, fmt.Errorf("%w: %s", core.ErrIndexInProgress, root)
	}
	c.running[root] = struct{}{}
	return func() {
		c.mu.Lock()
		delete(c.running, root)
		c.mu.Unlock()
	}, nil
}

// Index rebuilds the index of root from scratch: the collection is dropped,
// the snapshot reset, and every tracked file embedded again.
func (c *Context) Index(ctx context.Context, root string) (*Stats, error) {
	syncer, err := c.Synchronizer(root)
	if err != nil {
		return nil, err
	}
	release, err := c.acquire(syncer.Root())
	if err != nil {
		return nil, err
	}
	defer release()

	if err := c.clear(ctx, syncer); err != nil {
		return nil, err
	}
	return c.run(ctx, syncer, "index")
}

// Reindex brings the index of root up to date with the files on disk.
// Unchanged files cause no embedding calls and no store writes.
func (c *Context) Reindex(ctx context.Context, root string) (*Stats, error) {
	syncer, err := c.Synchronizer(root)
	if err != nil {
		return nil, err
	}
	release, err := c.acquire(syncer.Root())
	if err != nil {
		return nil, err
	}
	defer release()

	return c.run(ctx, syncer, "reindex")
}

// Clear drops the collection of root and forgets its snapshot.
func (c *Context) Clear(ctx context.Context, root string) error {
	syncer, err := c.Synchronizer(root)
	if err != nil {
		return err
	}
	release, err := c.acquire(syncer.Root())
	if err != nil {
		return err
	}
	defer release()

	return c.clear(ctx, syncer)
}

func (c *Context) clear(ctx context.Context, syncer *filesync.Synchronizer) error {
	collection := syncer.Key().Collection
	if err := c.store.Drop(ctx, collection); err != nil {
		return &core.StoreError{Op: "drop", Collection: collection, Err: err}
	}
	if err := syncer.Reset(ctx); err != nil {
		return err
	}
	c.logger.Info("cleared index", "root", syncer.Root(), "collection", collection)
	return nil
}

// Status reports whether root is indexed and how much is stored for it.
func (c *Context) Status(ctx context.Context, root string) (*Status, error) {
	syncer, err := c.Synchronizer(root)
	if err != nil {
		return nil, err
	}
	collection := syncer.Key().Collection
	status := &Status{Root: syncer.Root(), Collection: collection}

	status.Indexed, err = c.store.HasCollection(ctx, collection)
	if err != nil {
		return nil, &core.StoreError{Op: "has_collection", Collection: collection, Err: err}
	}
	if status.Indexed {
		if status.Chunks, err = c.store.Count(ctx, collection); err != nil {
			return nil, &core.StoreError{Op: "count", Collection: collection, Err: err}
		}
	}

	snap, err := syncer.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	status.Files = len(snap)
	return status, nil
}

// Search embeds query and returns the topK most similar chunks of root,
// exactly as the vector store ranked them.
func (c *Context) Search(ctx context.Context, root, query string, topK int) ([]core.SearchResult, error) {
	return c.SearchWithMonitor(ctx, root, query, topK, nil)
}

// SearchWithMonitor is Search with a monitor observing each stage.
func (c *Context) SearchWithMonitor(ctx context.Context, root, query string, topK int, monitor search.SearchMonitor) ([]core.SearchResult, error) {
	collection, err := c.CollectionName(root)
	if err != nil {
		return nil, err
	}
	exists, err := c.store.HasCollection(ctx, collection)
	if err != nil {
		return nil, &core.StoreError{Op: "has_collection", Collection: collection, Err: err}
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, root)
	}

	start := time.Now()
	results, err := c.searcher.SearchWithMonitor(ctx, collection, query, topK, monitor)
	observeSearch(collection, time.Since(start), err)
	return results, err
}
