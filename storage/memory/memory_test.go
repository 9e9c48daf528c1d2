package memory

import (
	"context"
	"testing"

	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec(path string, index int, v ...float32) core.IndexedVector {
	return core.IndexedVector{
		ID:       core.ChunkID(path, index),
		Vector:   v,
		Metadata: core.ChunkMetadata{Path: path, ChunkIndex: index, Content: path},
	}
}

func TestVectorStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()

	require.NoError(t, store.Create(ctx, core.CollectionSpec{Name: "c", Dimension: 2}))
	require.NoError(t, store.Insert(ctx, "c", []core.IndexedVector{
		vec("a.ts", 0, 1, 0),
		vec("a.ts", 1, 0.5, 0.5),
		vec("a.tsx", 0, 0, 1),
	}))

	results, err := store.Search(ctx, "c", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, core.ChunkID("a.ts", 0), results[0].ID)

	removed, err := store.Delete(ctx, "c", core.ChunkIDPrefix("a.ts"))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{core.ChunkID("a.tsx", 0)}, store.IDs("c"))

	require.NoError(t, store.Drop(ctx, "c"))
	_, err = store.Search(ctx, "c", []float32{1, 0}, 1)
	assert.ErrorIs(t, err, storage.ErrCollectionNotFound)
}

func TestVectorStore_InsertIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()
	require.NoError(t, store.Create(ctx, core.CollectionSpec{Name: "c", Dimension: 2}))

	err := store.Insert(ctx, "c", []core.IndexedVector{vec("a.ts", 0, 1, 0), vec("b.ts", 0, 1)})
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)

	count, err := store.Count(ctx, "c")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestVectorStore_Closed(t *testing.T) {
	store := NewVectorStore()
	require.NoError(t, store.Close())

	_, err := store.HasCollection(context.Background(), "c")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestSnapshotStore_ReplaceIsolatesCallerMap(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()
	key := core.SnapshotKey{Root: "/r", Collection: "c"}

	snap, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, snap)

	snap = core.Snapshot{"a.ts": {Path: "a.ts", Size: 1}}
	require.NoError(t, store.Replace(ctx, key, snap))
	snap["b.ts"] = core.FileFingerprint{Path: "b.ts"}

	loaded, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts"}, loaded.Paths())
}
