// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package indexing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/filesync"
)

// fileChunks holds the chunks of one file scheduled for embedding.
type fileChunks struct {
	path   string
	chunks []core.Chunk
}

// run performs one sync and reconcile cycle for the synchronizer's root.
// The snapshot is committed only when every delete, embedding and insert
// succeeded.
func (c *Context) run(ctx context.Context, syncer *filesync.Synchronizer, operation string) (_ *Stats, err error) {
	start := time.Now()
	collection := syncer.Key().Collection
	stats := &Stats{Root: syncer.Root(), Collection: collection}
	logger := c.logger.With("root", stats.Root, "collection", collection, "operation", operation)
	track := newTracker(c.progress)

	defer func() {
		stats.Duration = time.Since(start)
		observeCycle(operation, stats.Duration, err)
	}()

	exists, err := c.store.HasCollection(ctx, collection)
	if err != nil {
		return nil, &core.StoreError{Op: "has_collection", Collection: collection, Err: err}
	}
	if !exists {
		previous, err := syncer.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if len(previous) > 0 {
			logger.Warn("collection is missing but a snapshot exists, indexing every file again", "files", len(previous))
			if err := syncer.Reset(ctx); err != nil {
				return nil, err
			}
		}
	}

	track.phase(core.PhaseScanning)
	result, err := syncer.ComputeChangeSet(ctx)
	if err != nil {
		return nil, err
	}
	changes := result.Changes
	stats.Added = len(changes.Added)
	stats.Modified = len(changes.Modified)
	stats.Deleted = len(changes.Deleted)
	stats.Skipped = len(result.Skipped)
	for _, skipped := range result.Skipped {
		logger.Warn("skipped unreadable path", "path", skipped.Path, "err", skipped.Err)
	}

	if exists {
		track.phase(core.PhaseDeleting)
		if err := c.deleteStale(ctx, collection, &changes); err != nil {
			return nil, err
		}
	}

	files, excluded, err := c.prepare(ctx, syncer.Root(), &changes, logger)
	if err != nil {
		return nil, err
	}
	stats.Excluded = len(excluded)

	var chunks []core.Chunk
	for _, f := range files {
		chunks = append(chunks, f.chunks...)
	}
	batches := makeBatches(chunks, c.batchSize, c.charBudget)
	stats.Batches = len(batches)
	track.expect(files)

	logger.Info("reconciling",
		"added", stats.Added,
		"modified", stats.Modified,
		"deleted", stats.Deleted,
		"chunks", len(chunks),
		"batches", len(batches))

	if err := c.embedAndStore(ctx, collection, stats.Root, exists, batches, track); err != nil {
		logger.Error("reconciliation aborted, snapshot not committed", "err", err)
		return nil, err
	}
	stats.Chunks = track.snapshot().Chunks

	snapshot := result.Current.Clone()
	for _, p := range excluded {
		delete(snapshot, p)
	}
	if err := syncer.Commit(ctx, snapshot); err != nil {
		return nil, err
	}
	track.phase(core.PhaseDone)
	observeFiles(collection, stats)

	logger.Info("reconciled",
		"files", len(snapshot),
		"chunks", stats.Chunks,
		"excluded", stats.Excluded,
		"took", time.Since(start))
	return stats, nil
}

// deleteStale removes every stored chunk of deleted, modified and added
// paths. Added paths are included so leftovers of an aborted cycle cannot
// survive next to the new chunks.
func (c *Context) deleteStale(ctx context.Context, collection string, changes *core.ChangeSet) error {
	for _, group := range [][]string{changes.Deleted, changes.Modified, changes.Added} {
		for _, p := range group {
			if err := ctx.Err(); err != nil {
				return err
			}
			removed, err := c.store.Delete(ctx, collection, core.ChunkIDPrefix(p))
			if err != nil {
				return &core.StoreError{Op: "delete", Collection: collection, Path: p, Err: err}
			}
			if removed > 0 {
				c.logger.Debug("deleted stale chunks", "path", p, "chunks", removed)
			}
		}
	}
	return nil
}

// prepare reads and chunks every added and modified file in path order.
// Files that vanished, could not be read, or fall past the chunk cap are
// returned as excluded so the commit leaves them out.
func (c *Context) prepare(ctx context.Context, root string, changes *core.ChangeSet, logger *slog.Logger) ([]fileChunks, []string, error) {
	paths := make([]string, 0, len(changes.Added)+len(changes.Modified))
	paths = append(paths, changes.Added...)
	paths = append(paths, changes.Modified...)
	slices.Sort(paths)

	var (
		files    []fileChunks
		excluded []string
		total    int
	)
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(p)))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("reading file failed, leaving it for a later cycle", "path", p, "err", err)
			}
			excluded = append(excluded, p)
			continue
		}
		if bytes.IndexByte(data, 0) >= 0 {
			logger.Debug("binary content, not embedding", "path", p)
			files = append(files, fileChunks{path: p})
			continue
		}

		chunks, err := c.chunker.Split(p, string(data))
		if err != nil {
			return nil, nil, fmt.Errorf("chunking %s: %w", p, err)
		}
		if total+len(chunks) > c.chunkLimit {
			rest := paths[i:]
			logger.Warn("chunk limit reached, remaining files deferred to a later cycle",
				"limit", c.chunkLimit, "deferred", len(rest))
			excluded = append(excluded, rest...)
			break
		}
		total += len(chunks)
		files = append(files, fileChunks{path: p, chunks: chunks})
	}
	return files, excluded, nil
}

// embedAndStore embeds every batch and inserts the vectors. The first batch
// runs alone so the collection can be created with the dimension the
// embedder actually returns. The rest run on the worker pool; the first
// failure cancels the batches that have not started.
func (c *Context) embedAndStore(ctx context.Context, collection, root string, exists bool, batches []*batch, track *tracker) error {
	if len(batches) == 0 {
		return nil
	}

	first, err := c.embedBatch(ctx, collection, batches[0])
	if err != nil {
		return err
	}
	if !exists {
		spec := core.CollectionSpec{
			Name:        collection,
			Dimension:   len(first[0].Vector),
			Description: "code chunks of " + root,
		}
		if err := c.store.Create(ctx, spec); err != nil {
			return &core.StoreError{Op: "create", Collection: collection, Err: err}
		}
		c.logger.Info("created collection", "collection", collection, "dimension", spec.Dimension)
	}
	if err := c.insertBatch(ctx, collection, batches[0], first, track); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for _, b := range batches[1:] {
		if runCtx.Err() != nil {
			break
		}
		wg.Add(1)
		err := c.pool.Submit(func() {
			defer wg.Done()
			if runCtx.Err() != nil {
				return
			}
			vectors, err := c.embedBatch(runCtx, collection, b)
			if err != nil {
				fail(err)
				return
			}
			if err := c.insertBatch(runCtx, collection, b, vectors, track); err != nil {
				fail(err)
			}
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submitting batch %d: %w", b.index, err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// embedBatch embeds one batch and pairs each vector with its chunk.
func (c *Context) embedBatch(ctx context.Context, collection string, b *batch) ([]core.IndexedVector, error) {
	texts := b.texts()
	start := time.Now()
	embeddings, err := c.embedder.EmbedTexts(ctx, texts)
	embedDurationSeconds.Observe(time.Since(start).Seconds())
	if err == nil && len(embeddings) != len(texts) {
		err = fmt.Errorf("%w: expected %d vectors, received %d", core.ErrEmbeddingMismatch, len(texts), len(embeddings))
	}
	if err != nil {
		batchesTotal.WithLabelValues(collection, "embed_error").Inc()
		return nil, &core.EmbeddingError{Batch: b.index, Paths: b.paths(), Err: err}
	}

	vectors := make([]core.IndexedVector, len(b.chunks))
	for i, ch := range b.chunks {
		if len(embeddings[i]) == 0 {
			batchesTotal.WithLabelValues(collection, "embed_error").Inc()
			return nil, &core.EmbeddingError{
				Batch: b.index,
				Paths: b.paths(),
				Err:   fmt.Errorf("%w: empty vector for %s", core.ErrEmbeddingMismatch, core.ChunkID(ch.Path, ch.Index)),
			}
		}
		vectors[i] = core.IndexedVector{
			ID:     core.ChunkID(ch.Path, ch.Index),
			Vector: embeddings[i],
			Metadata: core.ChunkMetadata{
				Path:       ch.Path,
				ChunkIndex: ch.Index,
				StartLine:  ch.StartLine,
				EndLine:    ch.EndLine,
				Language:   ch.Language,
				Content:    ch.Text,
			},
		}
	}
	return vectors, nil
}

func (c *Context) insertBatch(ctx context.Context, collection string, b *batch, vectors []core.IndexedVector, track *tracker) error {
	if err := c.store.Insert(ctx, collection, vectors); err != nil {
		batchesTotal.WithLabelValues(collection, "store_error").Inc()
		paths := b.paths()
		return &core.StoreError{Op: "insert", Collection: collection, Path: paths[0], Err: err}
	}
	batchesTotal.WithLabelValues(collection, "ok").Inc()
	chunksTotal.WithLabelValues(collection).Add(float64(len(vectors)))
	track.stored(b.chunks)
	return nil
}
