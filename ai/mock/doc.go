// Package mock provides test doubles for ai.Embedder.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	embedder := mock.NewMockEmbedder()
//	vector, err := embedder.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("service unavailable")
//	}
//
//	// Check call counts
//	batches := embedder.BatchSizes()
//
// By default MockEmbedder returns unit vectors derived from an FNV hash of
// the text, so equal texts always embed identically.
package mock
