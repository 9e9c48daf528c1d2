package filesync

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/codeindex/core"
	"golang.org/x/sync/errgroup"
)

// HashFile returns the BLAKE2b-256 digest of the file at path.
func HashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := blake2b.New(32, nil)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// fingerprint builds the current snapshot from the walked files. A file whose
// size and mtime are unchanged keeps its previous hash. A file that cannot be
// read keeps its previous fingerprint, if any, and is reported as skipped;
// a file that vanished since the walk is dropped.
func (s *Synchronizer) fingerprint(ctx context.Context, files []candidate, previous core.Snapshot) (core.Snapshot, []*core.TraversalError, error) {
	results := make([]*core.FileFingerprint, len(files))

	var (
		mu      sync.Mutex
		skipped []*core.TraversalError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.hashWorkers)
	for i, c := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fp := core.FileFingerprint{
				Path:  c.rel,
				Size:  c.info.Size(),
				MTime: c.info.ModTime().UnixNano(),
			}
			prev, known := previous[c.rel]
			if known && prev.SameStat(fp) && len(prev.Hash) > 0 {
				fp.Hash = prev.Hash
				results[i] = &fp
				return nil
			}

			hash, err := HashFile(c.abs)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				s.logger.Warn("skipping unreadable file", "path", c.rel, "err", err)
				mu.Lock()
				skipped = append(skipped, &core.TraversalError{Path: c.rel, Err: err})
				mu.Unlock()
				if known {
					results[i] = &prev
				}
				return nil
			}
			fp.Hash = hash
			results[i] = &fp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	current := make(core.Snapshot, len(files))
	for _, fp := range results {
		if fp != nil {
			current[fp.Path] = *fp
		}
	}
	return current, skipped, nil
}
