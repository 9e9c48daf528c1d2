package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	m.Dimension = 8
	ctx := context.Background()

	a, err := m.EmbedText(ctx, "hello")
	require.NoError(t, err)
	b, err := m.EmbedTexts(ctx, []string{"hello", "world"})
	require.NoError(t, err)

	assert.Len(t, a, 8)
	assert.Equal(t, a, b[0])
	assert.NotEqual(t, b[0], b[1])

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestMockEmbedder_CountsAreConcurrencySafe(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.EmbedTexts(ctx, []string{"a", "b"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, m.BatchCount())
	assert.Equal(t, 40, m.TextCount())
	assert.Equal(t, 20, m.CallCount())

	m.Reset()
	assert.Zero(t, m.CallCount())
}
