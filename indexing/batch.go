package indexing

import "github.com/poiesic/codeindex/core"

// batch is one embedding request.
type batch struct {
	index  int
	chunks []core.Chunk
}

func (b *batch) texts() []string {
	texts := make([]string, len(b.chunks))
	for i, ch := range b.chunks {
		texts[i] = ch.Text
	}
	return texts
}

// paths returns the distinct files contributing to the batch, in order.
func (b *batch) paths() []string {
	var paths []string
	for _, ch := range b.chunks {
		if len(paths) == 0 || paths[len(paths)-1] != ch.Path {
			paths = append(paths, ch.Path)
		}
	}
	return paths
}

// makeBatches groups chunks in order so that no batch exceeds maxCount
// chunks or charBudget characters. Chunks are never split; a chunk longer
// than the budget travels alone.
func makeBatches(chunks []core.Chunk, maxCount, charBudget int) []*batch {
	var (
		batches []*batch
		current *batch
		chars   int
	)
	for _, ch := range chunks {
		size := len(ch.Text)
		if current != nil && (len(current.chunks) >= maxCount || chars+size > charBudget) {
			current = nil
		}
		if current == nil {
			current = &batch{index: len(batches)}
			batches = append(batches, current)
			chars = 0
		}
		current.chunks = append(current.chunks, ch)
		chars += size
	}
	return batches
}
