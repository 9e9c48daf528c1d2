package sqlite

import (
	"context"

	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/storage"
)

// SnapshotStore implements storage.SnapshotStore on a DB.
type SnapshotStore struct {
	d *DB
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore returns a snapshot store backed by d.
func NewSnapshotStore(d *DB) *SnapshotStore {
	return &SnapshotStore{d: d}
}

func (s *SnapshotStore) Load(ctx context.Context, key core.SnapshotKey) (core.Snapshot, error) {
	rows, err := s.d.db.QueryContext(ctx,
		"SELECT path, hash, size, mtime FROM snapshots WHERE snapshot_key = ?", key.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshot := make(core.Snapshot)
	for rows.Next() {
		var fp core.FileFingerprint
		if err := rows.Scan(&fp.Path, &fp.Hash, &fp.Size, &fp.MTime); err != nil {
			return make(core.Snapshot), &core.SnapshotCorruptionError{Key: key.String(), Err: err}
		}
		if len(fp.Hash) == 0 {
			fp.Hash = nil
		}
		snapshot[fp.Path] = fp
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *SnapshotStore) Replace(ctx context.Context, key core.SnapshotKey, snapshot core.Snapshot) error {
	tx, err := s.d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	k := key.String()
	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE snapshot_key = ?", k); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO snapshots (snapshot_key, path, hash, size, mtime) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range snapshot.Paths() {
		fp := snapshot[p]
		if _, err := stmt.ExecContext(ctx, k, p, fp.Hash, fp.Size, fp.MTime); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.d.logger.Debug("replaced snapshot", "key", k, "files", len(snapshot))
	return nil
}
