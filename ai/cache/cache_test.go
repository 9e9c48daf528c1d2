package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/codeindex/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedder_CachesQueries(t *testing.T) {
	ctx := context.Background()
	inner := mock.NewMockEmbedder()
	e := New(inner, 2).(*Embedder)

	first, err := e.EmbedText(ctx, "retry policy")
	require.NoError(t, err)
	second, err := e.EmbedText(ctx, "retry policy")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.QueryCount())
	assert.Equal(t, 1, e.Len())
}

func TestEmbedder_EvictsLeastRecent(t *testing.T) {
	ctx := context.Background()
	inner := mock.NewMockEmbedder()
	e := New(inner, 2)

	for _, q := range []string{"a", "b", "c", "a"} {
		_, err := e.EmbedText(ctx, q)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, inner.QueryCount())
}

func TestEmbedder_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	inner := mock.NewMockEmbedder()
	calls := 0
	inner.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("unavailable")
		}
		return []float32{1}, nil
	}
	e := New(inner, 4)

	_, err := e.EmbedText(ctx, "q")
	assert.Error(t, err)
	v, err := e.EmbedText(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, v)
}

func TestEmbedder_BatchesPassThrough(t *testing.T) {
	inner := mock.NewMockEmbedder()
	e := New(inner, 4)

	_, err := e.EmbedTexts(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, inner.BatchSizes())
}

func TestNew_DisabledReturnsInner(t *testing.T) {
	inner := mock.NewMockEmbedder()
	assert.Same(t, inner, New(inner, 0))
}
