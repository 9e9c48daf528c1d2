package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/storage"
)

// VectorRepository implements storage.VectorStore for BadgerDB.
// Search is an exhaustive cosine scan over the collection.
type VectorRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.VectorStore = (*VectorRepository)(nil)

// NewVectorRepository creates a vector store on an open backend.
// Closing the store does not close the backend.
func NewVectorRepository(backend *Backend) (storage.VectorStore, error) {
	return newVectorRepository(backend)
}

func newVectorRepository(backend *Backend) (*VectorRepository, error) {
	if backend == nil {
		return nil, errors.New("badger backend required")
	}
	return &VectorRepository{
		backend: backend,
		logger:  backend.logger.With("component", "badger-vectors"),
	}, nil
}

// Close is a no-op; the backend is owned by the caller.
func (r *VectorRepository) Close() error {
	return nil
}

func (r *VectorRepository) checkOpen() error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// getSpec reads a collection spec inside tx. Returns storage.ErrCollectionNotFound if absent.
func getSpec(tx *badger.Txn, name string) (core.CollectionSpec, error) {
	item, err := tx.Get(makeCollectionKey(name))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return core.CollectionSpec{}, storage.ErrCollectionNotFound
		}
		return core.CollectionSpec{}, err
	}
	var spec core.CollectionSpec
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		spec, unmarshalErr = storage.UnmarshalCollectionSpec(val)
		return unmarshalErr
	})
	return spec, err
}

// Create creates a collection.
func (r *VectorRepository) Create(ctx context.Context, spec core.CollectionSpec) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if err := core.ValidateCollectionSpec(&spec); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := getSpec(tx, spec.Name)
		switch {
		case err == nil:
			if existing.Dimension != spec.Dimension {
				return fmt.Errorf("%w: collection %s has dimension %d, requested %d",
					storage.ErrDimensionMismatch, spec.Name, existing.Dimension, spec.Dimension)
			}
			return nil
		case !errors.Is(err, storage.ErrCollectionNotFound):
			return err
		}

		if err := tx.Set(makeCollectionKey(spec.Name), storage.MarshalCollectionSpec(spec)); err != nil {
			return err
		}
		r.logger.Debug("created collection", "collection", spec.Name, "dimension", spec.Dimension)
		return tx.Commit()
	}, true)
}

// HasCollection reports whether the collection exists.
func (r *VectorRepository) HasCollection(ctx context.Context, name string) (bool, error) {
	if err := r.checkOpen(); err != nil {
		return false, err
	}
	var found bool
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := getSpec(tx, name)
		if errors.Is(err, storage.ErrCollectionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	}, false)
	return found, err
}

// Drop removes a collection and every vector in it.
func (r *VectorRepository) Drop(ctx context.Context, name string) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	removed, err := r.backend.DeletePrefix(makeVectorPrefix(name))
	if err != nil {
		return err
	}
	if err := r.backend.DeleteKeys([][]byte{makeCollectionKey(name)}); err != nil {
		return err
	}
	r.logger.Debug("dropped collection", "collection", name, "vectors", removed)
	return nil
}

// Insert stores vectors, replacing any with the same id.
func (r *VectorRepository) Insert(ctx context.Context, collection string, vectors []core.IndexedVector) error {
	if err := r.checkOpen(); err != nil {
		return err
	}

	var spec core.CollectionSpec
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		spec, err = getSpec(tx, collection)
		return err
	}, false)
	if err != nil {
		return err
	}

	entries := make([]Entry, 0, len(vectors))
	for i := range vectors {
		vec := &vectors[i]
		if err := core.ValidateIndexedVector(vec); err != nil {
			return err
		}
		if len(vec.Vector) != spec.Dimension {
			return fmt.Errorf("%w: %s has %d dimensions, collection %s expects %d",
				storage.ErrDimensionMismatch, vec.ID, len(vec.Vector), collection, spec.Dimension)
		}
		entries = append(entries, Entry{
			Key:   makeVectorKey(collection, vec.ID),
			Value: storage.MarshalVector(vec),
		})
	}

	return r.backend.SetEntries(entries)
}

// Delete removes every vector whose id starts with idPrefix.
func (r *VectorRepository) Delete(ctx context.Context, collection string, idPrefix string) (int, error) {
	if err := r.checkOpen(); err != nil {
		return 0, err
	}
	return r.backend.DeletePrefix(makeVectorKey(collection, idPrefix))
}

// Search returns the topK vectors most similar to vector.
func (r *VectorRepository) Search(ctx context.Context, collection string, vector []float32, topK int) ([]core.SearchResult, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	if topK <= 0 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []core.SearchResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		spec, err := getSpec(tx, collection)
		if err != nil {
			return err
		}
		if spec.Dimension != len(vector) {
			return fmt.Errorf("%w: query has %d dimensions, collection %s expects %d",
				storage.ErrDimensionMismatch, len(vector), collection, spec.Dimension)
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeVectorPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var vec *core.IndexedVector
			err := iter.Item().Value(func(val []byte) error {
				var err error
				vec, err = storage.UnmarshalVector(val)
				return err
			})
			if err != nil {
				return err
			}

			results = append(results, core.SearchResult{
				ID:       vec.ID,
				Score:    storage.CosineSimilarity(vector, vec.Vector),
				Metadata: vec.Metadata,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return storage.RankResults(results, topK), nil
}

// Count returns the number of vectors in the collection.
func (r *VectorRepository) Count(ctx context.Context, collection string) (int, error) {
	if err := r.checkOpen(); err != nil {
		return 0, err
	}
	keys, err := r.backend.KeysWithPrefix(makeVectorPrefix(collection))
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
