package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVectors(t *testing.T) storage.VectorStore {
	t.Helper()
	vectors, snapshots, backend, err := NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		snapshots.Close()
		backend.Close()
	})
	return vectors
}

func chunkVector(path string, index int, vec ...float32) core.IndexedVector {
	return core.IndexedVector{
		ID:     core.ChunkID(path, index),
		Vector: vec,
		Metadata: core.ChunkMetadata{
			Path:       path,
			ChunkIndex: index,
			StartLine:  index*10 + 1,
			EndLine:    index*10 + 10,
			Language:   "typescript",
			Content:    fmt.Sprintf("chunk %d of %s", index, path),
		},
	}
}

func TestVectorRepository_CreateIsIdempotent(t *testing.T) {
	store := newTestVectors(t)
	ctx := context.Background()

	spec := core.CollectionSpec{Name: "code_chunks", Dimension: 3}
	require.NoError(t, store.Create(ctx, spec))
	require.NoError(t, store.Create(ctx, spec))

	ok, err := store.HasCollection(ctx, "code_chunks")
	require.NoError(t, err)
	assert.True(t, ok)

	err = store.Create(ctx, core.CollectionSpec{Name: "code_chunks", Dimension: 4})
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)

	err = store.Create(ctx, core.CollectionSpec{Name: "bad:name", Dimension: 4})
	assert.ErrorIs(t, err, core.ErrInvalidCollection)
}

func TestVectorRepository_InsertRequiresCollection(t *testing.T) {
	store := newTestVectors(t)

	err := store.Insert(context.Background(), "missing", []core.IndexedVector{chunkVector("a.ts", 0, 1, 0, 0)})
	assert.ErrorIs(t, err, storage.ErrCollectionNotFound)
}

func TestVectorRepository_InsertRejectsWrongDimension(t *testing.T) {
	store := newTestVectors(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, core.CollectionSpec{Name: "c", Dimension: 3}))

	err := store.Insert(ctx, "c", []core.IndexedVector{chunkVector("a.ts", 0, 1, 0)})
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestVectorRepository_SearchRanksBySimilarity(t *testing.T) {
	store := newTestVectors(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, core.CollectionSpec{Name: "c", Dimension: 3}))

	require.NoError(t, store.Insert(ctx, "c", []core.IndexedVector{
		chunkVector("a.ts", 0, 1, 0, 0),
		chunkVector("b.ts", 0, 0.9, 0.1, 0),
		chunkVector("c.ts", 0, 0, 0, 1),
	}))

	results, err := store.Search(ctx, "c", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.ts", results[0].Metadata.Path)
	assert.Equal(t, "b.ts", results[1].Metadata.Path)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "chunk 0 of a.ts", results[0].Metadata.Content)
}

func TestVectorRepository_SearchErrors(t *testing.T) {
	store := newTestVectors(t)
	ctx := context.Background()

	_, err := store.Search(ctx, "missing", []float32{1}, 5)
	assert.ErrorIs(t, err, storage.ErrCollectionNotFound)

	require.NoError(t, store.Create(ctx, core.CollectionSpec{Name: "c", Dimension: 2}))
	_, err = store.Search(ctx, "c", []float32{1, 0}, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = store.Search(ctx, "c", []float32{1, 0, 0}, 3)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestVectorRepository_DeleteByPathPrefix(t *testing.T) {
	store := newTestVectors(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, core.CollectionSpec{Name: "c", Dimension: 2}))

	require.NoError(t, store.Insert(ctx, "c", []core.IndexedVector{
		chunkVector("src/a.ts", 0, 1, 0),
		chunkVector("src/a.ts", 1, 1, 0),
		chunkVector("src/a.ts", 2, 1, 0),
		chunkVector("src/a.tsx", 0, 0, 1),
	}))

	removed, err := store.Delete(ctx, "c", core.ChunkIDPrefix("src/a.ts"))
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	count, err := store.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "sibling file with a longer name survives")

	removed, err = store.Delete(ctx, "missing", core.ChunkIDPrefix("src/a.ts"))
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestVectorRepository_InsertReplacesSameID(t *testing.T) {
	store := newTestVectors(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, core.CollectionSpec{Name: "c", Dimension: 2}))

	require.NoError(t, store.Insert(ctx, "c", []core.IndexedVector{chunkVector("a.ts", 0, 1, 0)}))
	require.NoError(t, store.Insert(ctx, "c", []core.IndexedVector{chunkVector("a.ts", 0, 0, 1)}))

	count, err := store.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := store.Search(ctx, "c", []float32{0, 1}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestVectorRepository_Drop(t *testing.T) {
	store := newTestVectors(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, core.CollectionSpec{Name: "c", Dimension: 2}))
	require.NoError(t, store.Create(ctx, core.CollectionSpec{Name: "other", Dimension: 2}))
	require.NoError(t, store.Insert(ctx, "c", []core.IndexedVector{chunkVector("a.ts", 0, 1, 0)}))
	require.NoError(t, store.Insert(ctx, "other", []core.IndexedVector{chunkVector("a.ts", 0, 1, 0)}))

	require.NoError(t, store.Drop(ctx, "c"))
	require.NoError(t, store.Drop(ctx, "never-created"))

	ok, err := store.HasCollection(ctx, "c")
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := store.Count(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
