package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/codeindex/ai"
	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/storage"
)

// Searcher provides semantic search over one vector store.
type Searcher struct {
	embedder ai.Embedder
	store    storage.VectorStore
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(embedder ai.Embedder, store storage.VectorStore, opts ...Option) (*Searcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrVectorStoreRequired
	}

	s := &Searcher{
		embedder: embedder,
		store:    store,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to topK chunks of collection most similar to query.
func (s *Searcher) Search(ctx context.Context, collection, query string, topK int) ([]core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, collection, query, topK, nil)
}

// SearchWithMonitor is Search with a monitor receiving callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, collection, query string, topK int, monitor SearchMonitor) ([]core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	monitor.Start(collection, query)

	start := time.Now()
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, &core.EmbeddingError{Err: err}
	}
	monitor.AfterEmbedding(len(embedding), time.Since(start))

	start = time.Now()
	results, err := s.store.Search(ctx, collection, embedding, topK)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "collection", collection, "err", err)
		return nil, &core.StoreError{Op: "search", Collection: collection, Err: err}
	}
	monitor.AfterVectorSearch(len(results), time.Since(start))

	monitor.Finish(results)
	return results, nil
}
