package storage

import (
	"context"

	"github.com/poiesic/codeindex/core"
)

// VectorStore stores chunk embeddings grouped in named collections.
// Implementations must be safe for concurrent use.
type VectorStore interface {
	// Create creates a collection. Creating an existing collection with the
	// same dimension is a no-op; a different dimension returns ErrDimensionMismatch.
	Create(ctx context.Context, spec core.CollectionSpec) error

	// HasCollection reports whether the collection exists.
	HasCollection(ctx context.Context, name string) (bool, error)

	// Drop removes a collection and every vector in it.
	// Dropping a missing collection is not an error.
	Drop(ctx context.Context, name string) error

	// Insert stores vectors, replacing any vector with the same id.
	// Returns ErrCollectionNotFound if the collection doesn't exist.
	Insert(ctx context.Context, collection string, vectors []core.IndexedVector) error

	// Delete removes every vector whose id starts with idPrefix and returns
	// how many were removed. Deleting from a missing collection removes nothing.
	Delete(ctx context.Context, collection string, idPrefix string) (int, error)

	// Search returns up to topK vectors ordered by similarity (highest first).
	// Returns ErrCollectionNotFound if the collection doesn't exist.
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]core.SearchResult, error)

	// Count returns the number of vectors in the collection.
	Count(ctx context.Context, collection string) (int, error)

	// Close releases resources held by the store.
	Close() error
}

// SnapshotStore persists one snapshot per (root, collection) pair.
// Implementations must be safe for concurrent use.
type SnapshotStore interface {
	// Load returns the stored snapshot. A missing snapshot is returned as an
	// empty, non-nil Snapshot. An unreadable one returns *core.SnapshotCorruptionError.
	Load(ctx context.Context, key core.SnapshotKey) (core.Snapshot, error)

	// Replace atomically replaces the stored snapshot. Readers observe either
	// the previous snapshot or the new one, never a mix.
	Replace(ctx context.Context, key core.SnapshotKey, snapshot core.Snapshot) error
}
