package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/storage"
)

// VectorStore implements storage.VectorStore on a DB.
type VectorStore struct {
	d *DB
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore returns a vector store backed by d.
// Closing the store closes d.
func NewVectorStore(d *DB) storage.VectorStore {
	return &VectorStore{d: d}
}

func (s *VectorStore) dimension(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, name string) (int, error) {
	var dim int
	err := q.QueryRowContext(ctx, "SELECT dimension FROM collections WHERE name = ?", name).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrCollectionNotFound
	}
	return dim, err
}

func (s *VectorStore) Create(ctx context.Context, spec core.CollectionSpec) error {
	if err := core.ValidateCollectionSpec(&spec); err != nil {
		return err
	}
	dim, err := s.dimension(ctx, s.d.db, spec.Name)
	switch {
	case err == nil:
		if dim != spec.Dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, requested %d",
				storage.ErrDimensionMismatch, spec.Name, dim, spec.Dimension)
		}
		return nil
	case !errors.Is(err, storage.ErrCollectionNotFound):
		return err
	}
	_, err = s.d.db.ExecContext(ctx,
		"INSERT INTO collections (name, dimension, description) VALUES (?, ?, ?)",
		spec.Name, spec.Dimension, spec.Description)
	if err == nil {
		s.d.logger.Debug("created collection", "collection", spec.Name, "dimension", spec.Dimension)
	}
	return err
}

func (s *VectorStore) HasCollection(ctx context.Context, name string) (bool, error) {
	_, err := s.dimension(ctx, s.d.db, name)
	if errors.Is(err, storage.ErrCollectionNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *VectorStore) Drop(ctx context.Context, name string) error {
	tx, err := s.d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vectors WHERE collection = ?", name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *VectorStore) Insert(ctx context.Context, collection string, vectors []core.IndexedVector) error {
	tx, err := s.d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	dim, err := s.dimension(ctx, tx, collection)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO vectors
		(collection, id, path, chunk_index, start_line, end_line, language, content, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range vectors {
		vec := &vectors[i]
		if err := core.ValidateIndexedVector(vec); err != nil {
			return err
		}
		if len(vec.Vector) != dim {
			return fmt.Errorf("%w: %s has %d dimensions, collection %s expects %d",
				storage.ErrDimensionMismatch, vec.ID, len(vec.Vector), collection, dim)
		}
		m := vec.Metadata
		_, err := stmt.ExecContext(ctx, collection, vec.ID, m.Path, m.ChunkIndex,
			m.StartLine, m.EndLine, m.Language, m.Content, serializeVector(vec.Vector))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *VectorStore) Delete(ctx context.Context, collection string, idPrefix string) (int, error) {
	res, err := s.d.db.ExecContext(ctx,
		"DELETE FROM vectors WHERE collection = ? AND substr(id, 1, length(?)) = ?",
		collection, idPrefix, idPrefix)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *VectorStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]core.SearchResult, error) {
	if topK <= 0 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}
	dim, err := s.dimension(ctx, s.d.db, collection)
	if err != nil {
		return nil, err
	}
	if dim != len(vector) {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s expects %d",
			storage.ErrDimensionMismatch, len(vector), collection, dim)
	}

	rows, err := s.d.db.QueryContext(ctx, `SELECT id, path, chunk_index, start_line, end_line, language, content, vector
		FROM vectors WHERE collection = ?`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []core.SearchResult
	for rows.Next() {
		var (
			r    core.SearchResult
			blob []byte
		)
		m := &r.Metadata
		if err := rows.Scan(&r.ID, &m.Path, &m.ChunkIndex, &m.StartLine, &m.EndLine, &m.Language, &m.Content, &blob); err != nil {
			return nil, err
		}
		r.Score = storage.CosineSimilarity(vector, deserializeVector(blob))
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return storage.RankResults(results, topK), nil
}

func (s *VectorStore) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors WHERE collection = ?", collection).Scan(&n)
	return n, err
}

func (s *VectorStore) Close() error {
	return s.d.Close()
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}
