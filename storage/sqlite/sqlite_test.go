package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func vec(path string, index int, v ...float32) core.IndexedVector {
	return core.IndexedVector{
		ID:     core.ChunkID(path, index),
		Vector: v,
		Metadata: core.ChunkMetadata{
			Path: path, ChunkIndex: index, StartLine: 1, EndLine: 5,
			Language: "go", Content: "func main() {}",
		},
	}
}

func TestVectorStore_InsertSearchDelete(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore(openTestDB(t))

	require.NoError(t, store.Create(ctx, core.CollectionSpec{Name: "c", Dimension: 2}))
	require.NoError(t, store.Create(ctx, core.CollectionSpec{Name: "c", Dimension: 2}))
	assert.ErrorIs(t, store.Create(ctx, core.CollectionSpec{Name: "c", Dimension: 3}), storage.ErrDimensionMismatch)

	require.NoError(t, store.Insert(ctx, "c", []core.IndexedVector{
		vec("main.go", 0, 1, 0),
		vec("main.go", 1, 0.7, 0.7),
		vec("main.go_test", 0, 0, 1),
	}))

	results, err := store.Search(ctx, "c", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, core.ChunkID("main.go", 0), results[0].ID)
	assert.Equal(t, "go", results[0].Metadata.Language)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)

	removed, err := store.Delete(ctx, "c", core.ChunkIDPrefix("main.go"))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	count, err := store.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVectorStore_PrefixWithLikeMetacharacters(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore(openTestDB(t))
	require.NoError(t, store.Create(ctx, core.CollectionSpec{Name: "c", Dimension: 1}))
	require.NoError(t, store.Insert(ctx, "c", []core.IndexedVector{
		vec("a_b%.ts", 0, 1),
		vec("axb%.ts", 0, 1),
	}))

	removed, err := store.Delete(ctx, "c", core.ChunkIDPrefix("a_b%.ts"))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestVectorStore_MissingCollection(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore(openTestDB(t))

	ok, err := store.HasCollection(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	err = store.Insert(ctx, "nope", []core.IndexedVector{vec("a.go", 0, 1)})
	assert.ErrorIs(t, err, storage.ErrCollectionNotFound)

	_, err = store.Search(ctx, "nope", []float32{1}, 1)
	assert.ErrorIs(t, err, storage.ErrCollectionNotFound)
}

func TestVectorStore_DropRemovesVectors(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore(openTestDB(t))
	require.NoError(t, store.Create(ctx, core.CollectionSpec{Name: "c", Dimension: 1}))
	require.NoError(t, store.Insert(ctx, "c", []core.IndexedVector{vec("a.go", 0, 1)}))

	require.NoError(t, store.Drop(ctx, "c"))
	count, err := store.Count(ctx, "c")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSnapshotStore_Replace(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore(openTestDB(t))
	key := core.SnapshotKey{Root: "/src", Collection: "c"}

	snap, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, snap)

	first := core.Snapshot{
		"a.go": {Path: "a.go", Hash: []byte{1}, Size: 1, MTime: 10},
		"b.go": {Path: "b.go", Hash: []byte{2}, Size: 2, MTime: 20},
	}
	require.NoError(t, store.Replace(ctx, key, first))
	loaded, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, first, loaded)

	second := core.Snapshot{"c.go": {Path: "c.go", Hash: []byte{3}, Size: 3, MTime: 30}}
	require.NoError(t, store.Replace(ctx, key, second))
	loaded, err = store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, second, loaded)
}

func TestSerializeVector(t *testing.T) {
	in := []float32{0, -1.5, 3.25}
	assert.Equal(t, in, deserializeVector(serializeVector(in)))
}
