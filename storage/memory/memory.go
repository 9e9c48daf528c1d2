// Package memory provides in-memory vector and snapshot stores.
// They are intended for tests and for short-lived, single-process indexes.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/storage"
)

type collection struct {
	spec    core.CollectionSpec
	vectors map[string]core.IndexedVector
}

// VectorStore is a mutex-guarded map of collections.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
	closed      bool
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore returns an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{collections: make(map[string]*collection)}
}

func (s *VectorStore) Create(ctx context.Context, spec core.CollectionSpec) error {
	if err := core.ValidateCollectionSpec(&spec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}
	if existing, ok := s.collections[spec.Name]; ok {
		if existing.spec.Dimension != spec.Dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, requested %d",
				storage.ErrDimensionMismatch, spec.Name, existing.spec.Dimension, spec.Dimension)
		}
		return nil
	}
	s.collections[spec.Name] = &collection{spec: spec, vectors: make(map[string]core.IndexedVector)}
	return nil
}

func (s *VectorStore) HasCollection(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, storage.ErrStorageClosed
	}
	_, ok := s.collections[name]
	return ok, nil
}

func (s *VectorStore) Drop(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}
	delete(s.collections, name)
	return nil
}

func (s *VectorStore) Insert(ctx context.Context, name string, vectors []core.IndexedVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}
	c, ok := s.collections[name]
	if !ok {
		return storage.ErrCollectionNotFound
	}
	for i := range vectors {
		vec := vectors[i]
		if err := core.ValidateIndexedVector(&vec); err != nil {
			return err
		}
		if len(vec.Vector) != c.spec.Dimension {
			return fmt.Errorf("%w: %s has %d dimensions, collection %s expects %d",
				storage.ErrDimensionMismatch, vec.ID, len(vec.Vector), name, c.spec.Dimension)
		}
	}
	for _, vec := range vectors {
		vec.Vector = append([]float32(nil), vec.Vector...)
		c.vectors[vec.ID] = vec
	}
	return nil
}

func (s *VectorStore) Delete(ctx context.Context, name string, idPrefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, storage.ErrStorageClosed
	}
	c, ok := s.collections[name]
	if !ok {
		return 0, nil
	}
	removed := 0
	for id := range c.vectors {
		if strings.HasPrefix(id, idPrefix) {
			delete(c.vectors, id)
			removed++
		}
	}
	return removed, nil
}

func (s *VectorStore) Search(ctx context.Context, name string, vector []float32, topK int) ([]core.SearchResult, error) {
	if topK <= 0 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	c, ok := s.collections[name]
	if !ok {
		return nil, storage.ErrCollectionNotFound
	}
	if len(vector) != c.spec.Dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s expects %d",
			storage.ErrDimensionMismatch, len(vector), name, c.spec.Dimension)
	}
	results := make([]core.SearchResult, 0, len(c.vectors))
	for _, vec := range c.vectors {
		results = append(results, core.SearchResult{
			ID:       vec.ID,
			Score:    storage.CosineSimilarity(vector, vec.Vector),
			Metadata: vec.Metadata,
		})
	}
	return storage.RankResults(results, topK), nil
}

func (s *VectorStore) Count(ctx context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, storage.ErrStorageClosed
	}
	c, ok := s.collections[name]
	if !ok {
		return 0, nil
	}
	return len(c.vectors), nil
}

// IDs returns the ids stored in a collection. Order is unspecified.
func (s *VectorStore) IDs(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(c.vectors))
	for id := range c.vectors {
		ids = append(ids, id)
	}
	return ids
}

func (s *VectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SnapshotStore keeps snapshots in a map keyed by SnapshotKey.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[core.SnapshotKey]core.Snapshot
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore returns an empty in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[core.SnapshotKey]core.Snapshot)}
}

func (s *SnapshotStore) Load(ctx context.Context, key core.SnapshotKey) (core.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[key]
	if !ok {
		return make(core.Snapshot), nil
	}
	return snap.Clone(), nil
}

func (s *SnapshotStore) Replace(ctx context.Context, key core.SnapshotKey, snapshot core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[key] = snapshot.Clone()
	return nil
}
