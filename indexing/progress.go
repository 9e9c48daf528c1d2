package indexing

import (
	"sync"

	"github.com/poiesic/codeindex/core"
)

// tracker turns stored chunks into per-file progress reports.
type tracker struct {
	mu        sync.Mutex
	fn        func(core.Progress)
	remaining map[string]int
	state     core.Progress
}

func newTracker(fn func(core.Progress)) *tracker {
	return &tracker{fn: fn, remaining: make(map[string]int)}
}

func (t *tracker) report() {
	if t.fn != nil {
		t.fn(t.state)
	}
}

func (t *tracker) phase(p core.Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Phase = p
	t.report()
}

// expect registers the files about to be embedded with their chunk counts.
// Files without chunks count as processed straight away.
func (t *tracker) expect(files []fileChunks) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Phase = core.PhaseEmbedding
	t.state.Total = len(files)
	for _, f := range files {
		if len(f.chunks) == 0 {
			t.state.Processed++
			continue
		}
		t.remaining[f.path] = len(f.chunks)
	}
	t.report()
}

// stored records that chunks were written to the store.
func (t *tracker) stored(chunks []core.Chunk) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range chunks {
		t.state.Chunks++
		if n, ok := t.remaining[ch.Path]; ok {
			if n <= 1 {
				delete(t.remaining, ch.Path)
				t.state.Processed++
			} else {
				t.remaining[ch.Path] = n - 1
			}
		}
	}
	t.report()
}

func (t *tracker) snapshot() core.Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
