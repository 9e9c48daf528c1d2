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

package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/storage"
)

const defaultSnapshotPageSize = 1000

// SnapshotRepository implements storage.SnapshotStore for BadgerDB.
//
// A snapshot is written as pages under a fresh generation number, then made
// live by rewriting a single head key in one transaction. Readers resolve the
// head first, so they see either the old generation or the new one. Pages of
// superseded generations are removed after the head moves.
type SnapshotRepository struct {
	backend  *Backend
	genSeq   *badger.Sequence
	pageSize int
	logger   *slog.Logger
}

var _ storage.SnapshotStore = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a snapshot store on an open backend.
// Caller must Close the repository before closing the backend.
func NewSnapshotRepository(backend *Backend) (*SnapshotRepository, error) {
	if backend == nil {
		return nil, errors.New("badger backend required")
	}
	genSeq, err := backend.GetSequence(snapshotGenSeq)
	if err != nil {
		return nil, err
	}
	return &SnapshotRepository{
		backend:  backend,
		genSeq:   genSeq,
		pageSize: defaultSnapshotPageSize,
		logger:   backend.logger.With("component", "badger-snapshots"),
	}, nil
}

// Close releases the generation sequence.
func (r *SnapshotRepository) Close() error {
	return r.genSeq.Release()
}

func encodeHead(gen uint64, pages int) []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint64(buf, gen)
	binary.BigEndian.PutUint32(buf[8:], uint32(pages))
	return buf
}

func decodeHead(val []byte) (uint64, int, error) {
	if len(val) != 12 {
		return 0, 0, fmt.Errorf("%w: head is %d bytes", storage.ErrTruncatedData, len(val))
	}
	return binary.BigEndian.Uint64(val), int(binary.BigEndian.Uint32(val[8:])), nil
}

// Load returns the live snapshot for key.
func (r *SnapshotRepository) Load(ctx context.Context, key core.SnapshotKey) (core.Snapshot, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	snapshot := make(core.Snapshot)
	var corrupt error
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSnapshotHeadKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		var gen uint64
		var pages int
		err = item.Value(func(val []byte) error {
			var decodeErr error
			gen, pages, decodeErr = decodeHead(val)
			return decodeErr
		})
		if err != nil {
			corrupt = err
			return nil
		}

		for page := 0; page < pages; page++ {
			item, err := tx.Get(makeSnapshotPageKey(key, gen, page))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					corrupt = fmt.Errorf("%w: page %d of generation %d is missing", storage.ErrTruncatedData, page, gen)
					return nil
				}
				return err
			}
			err = item.Value(func(val []byte) error {
				part, err := storage.UnmarshalSnapshot(val)
				if err != nil {
					return err
				}
				for p, fp := range part {
					snapshot[p] = fp
				}
				return nil
			})
			if err != nil {
				corrupt = err
				return nil
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	if corrupt != nil {
		return make(core.Snapshot), &core.SnapshotCorruptionError{Key: key.String(), Err: corrupt}
	}
	return snapshot, nil
}

// Replace atomically replaces the snapshot for key.
func (r *SnapshotRepository) Replace(ctx context.Context, key core.SnapshotKey, snapshot core.Snapshot) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	gen, err := r.genSeq.Next()
	if err != nil {
		return err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if gen == 0 {
		if gen, err = r.genSeq.Next(); err != nil {
			return err
		}
	}

	paths := snapshot.Paths()
	var entries []Entry
	for start := 0; start < len(paths); start += r.pageSize {
		end := min(start+r.pageSize, len(paths))
		part := make(core.Snapshot, end-start)
		for _, p := range paths[start:end] {
			part[p] = snapshot[p]
		}
		entries = append(entries, Entry{
			Key:   makeSnapshotPageKey(key, gen, len(entries)),
			Value: storage.MarshalSnapshot(part),
		})
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.backend.SetEntries(entries); err != nil {
		return err
	}

	headKey := makeSnapshotHeadKey(key)
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(headKey, encodeHead(gen, len(entries))); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	r.logger.Debug("replaced snapshot", "key", key.String(), "files", len(snapshot), "generation", gen)
	r.collectGarbage(key, gen, headKey)
	return nil
}

// collectGarbage removes pages of every generation except live.
func (r *SnapshotRepository) collectGarbage(key core.SnapshotKey, live uint64, headKey []byte) {
	keep := makeSnapshotGenPrefix(key, live)
	all, err := r.backend.KeysWithPrefix([]byte(fmt.Sprintf("%s:%s:", snapshotPrefix, key.String())))
	if err != nil {
		r.logger.Warn("listing stale snapshot pages failed", "key", key.String(), "err", err)
		return
	}
	stale := all[:0]
	for _, k := range all {
		if bytes.Equal(k, headKey) || bytes.HasPrefix(k, keep) {
			continue
		}
		stale = append(stale, k)
	}
	if len(stale) == 0 {
		return
	}
	if err := r.backend.DeleteKeys(stale); err != nil {
		r.logger.Warn("removing stale snapshot pages failed", "key", key.String(), "err", err)
	}
}
