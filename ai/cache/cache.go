// Package cache memoizes query embeddings in a bounded LRU.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/codeindex/ai"
)

// Embedder wraps an ai.Embedder and caches EmbedText results by text.
// EmbedTexts is passed through: indexed chunks are embedded once per change.
type Embedder struct {
	next  ai.Embedder
	cache *lru.Cache[string, []float32]
}

// New wraps next with an LRU of the given size. A size below one returns
// next unchanged.
func New(next ai.Embedder, size int) ai.Embedder {
	if size < 1 {
		return next
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return next
	}
	return &Embedder{next: next, cache: c}
}

// EmbedText returns the cached vector for text, embedding it on a miss.
// Callers must not modify the returned slice.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		return v, nil
	}
	v, err := e.next.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(text, v)
	return v, nil
}

// EmbedTexts delegates to the wrapped embedder.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return e.next.EmbedTexts(ctx, texts)
}

// Len returns the number of cached queries.
func (e *Embedder) Len() int {
	return e.cache.Len()
}

// Purge empties the cache, e.g. after the embedding model changes.
func (e *Embedder) Purge() {
	e.cache.Purge()
}
