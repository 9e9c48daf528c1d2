// Package filesnap stores snapshots as JSON documents, one file per
// (root, collection) pair, replaced by write-to-temp and rename.
package filesnap

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/storage"
)

const formatVersion = 1

type document struct {
	Version    int         `json:"version"`
	Root       string      `json:"root"`
	Collection string      `json:"collection"`
	Files      []fileEntry `json:"files"`
}

type fileEntry struct {
	Path  string `json:"path"`
	Hash  string `json:"hash"`
	Size  int64  `json:"size"`
	MTime int64  `json:"mtime"`
}

// Store is a directory of snapshot documents.
type Store struct {
	dir    string
	mu     sync.Mutex
	logger *slog.Logger
}

var _ storage.SnapshotStore = (*Store)(nil)

// New returns a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, &core.ConfigurationError{Field: "snapshot_dir", Reason: "must not be empty"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: slog.Default().With("component", "filesnap"),
	}, nil
}

// PathFor returns the file holding the snapshot for key.
func (s *Store) PathFor(key core.SnapshotKey) string {
	return filepath.Join(s.dir, key.Collection+"-"+core.IDFromContent(key.Root).Hex()+".json")
}

func (s *Store) Load(ctx context.Context, key core.SnapshotKey) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.PathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(core.Snapshot), nil
		}
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return make(core.Snapshot), &core.SnapshotCorruptionError{Key: key.String(), Err: err}
	}
	if doc.Version != formatVersion {
		return make(core.Snapshot), &core.SnapshotCorruptionError{
			Key: key.String(),
			Err: fmt.Errorf("unsupported version %d", doc.Version),
		}
	}

	snapshot := make(core.Snapshot, len(doc.Files))
	for _, f := range doc.Files {
		if f.Path == "" {
			return make(core.Snapshot), &core.SnapshotCorruptionError{Key: key.String(), Err: core.ErrEmptyPath}
		}
		hash, err := hex.DecodeString(f.Hash)
		if err != nil {
			return make(core.Snapshot), &core.SnapshotCorruptionError{Key: key.String(), Err: err}
		}
		if len(hash) == 0 {
			hash = nil
		}
		snapshot[f.Path] = core.FileFingerprint{Path: f.Path, Hash: hash, Size: f.Size, MTime: f.MTime}
	}
	return snapshot, nil
}

func (s *Store) Replace(ctx context.Context, key core.SnapshotKey, snapshot core.Snapshot) error {
	doc := document{
		Version:    formatVersion,
		Root:       key.Root,
		Collection: key.Collection,
		Files:      make([]fileEntry, 0, len(snapshot)),
	}
	for _, p := range snapshot.Paths() {
		fp := snapshot[p]
		doc.Files = append(doc.Files, fileEntry{
			Path:  p,
			Hash:  hex.EncodeToString(fp.Hash),
			Size:  fp.Size,
			MTime: fp.MTime,
		})
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(s.PathFor(key), data); err != nil {
		return err
	}
	s.logger.Debug("replaced snapshot", "key", key.String(), "files", len(snapshot))
	return nil
}

// writeAtomic writes data next to path and renames it into place, so a
// crash leaves either the old file or the new one.
func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".snap-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := f.Name()

	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
