package indexing

import (
	"strings"
	"testing"

	"github.com/poiesic/codeindex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunksOf(path string, sizes ...int) []core.Chunk {
	chunks := make([]core.Chunk, len(sizes))
	for i, size := range sizes {
		chunks[i] = core.Chunk{Path: path, Index: i, Text: strings.Repeat("x", size)}
	}
	return chunks
}

func TestMakeBatches_Empty(t *testing.T) {
	assert.Empty(t, makeBatches(nil, 10, 100))
}

func TestMakeBatches_CountLimit(t *testing.T) {
	batches := makeBatches(chunksOf("a.ts", 1, 1, 1, 1, 1), 2, 1000)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].chunks, 2)
	assert.Len(t, batches[1].chunks, 2)
	assert.Len(t, batches[2].chunks, 1)
	for i, b := range batches {
		assert.Equal(t, i, b.index)
	}
}

func TestMakeBatches_CharBudget(t *testing.T) {
	batches := makeBatches(chunksOf("a.ts", 40, 40, 30, 100, 5), 10, 100)
	require.Len(t, batches, 4)
	assert.Len(t, batches[0].chunks, 2, "40+40 fits, 30 more would not")
	assert.Len(t, batches[1].chunks, 1)
	assert.Len(t, batches[2].chunks, 1, "chunk at the budget fills a batch")
	assert.Len(t, batches[3].chunks, 1)
}

func TestMakeBatches_OversizedChunkIsNotSplit(t *testing.T) {
	batches := makeBatches(chunksOf("a.ts", 5, 500, 5), 10, 100)
	require.Len(t, batches, 3)
	assert.Len(t, batches[1].chunks[0].Text, 500)
}

func TestMakeBatches_PreservesOrderAcrossFiles(t *testing.T) {
	chunks := append(chunksOf("a.ts", 1, 1), chunksOf("b.ts", 1, 1, 1)...)
	batches := makeBatches(chunks, 3, 1000)
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"a.ts", "b.ts"}, batches[0].paths())
	assert.Equal(t, []string{"b.ts"}, batches[1].paths())
	assert.Equal(t, []string{"x", "x"}, batches[1].texts())
}
