package search

import (
	"time"

	"github.com/poiesic/codeindex/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(collection, query string)
	AfterEmbedding(dimension int, took time.Duration)
	AfterVectorSearch(hits int, took time.Duration)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                        {}
func (n *noopMonitor) AfterEmbedding(_ int, _ time.Duration)    {}
func (n *noopMonitor) AfterVectorSearch(_ int, _ time.Duration) {}
func (n *noopMonitor) Finish(_ []core.SearchResult)             {}
