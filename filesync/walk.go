package filesync

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/codeindex/core"
)

// candidate is a regular file that survived pruning.
type candidate struct {
	rel  string
	abs  string
	info fs.FileInfo
}

type scan struct {
	files       []candidate
	skipped     []*core.TraversalError
	skippedDirs []string
}

// walk lists every tracked file under the root. Only a failure on the root
// itself is returned as an error.
func (s *Synchronizer) walk(ctx context.Context) (*scan, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, &core.TraversalError{Path: s.root, Err: err}
	}
	if !info.IsDir() {
		return nil, &core.TraversalError{Path: s.root, Err: ErrRootNotDirectory}
	}

	out := &scan{}
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if path == s.root {
			if walkErr != nil {
				return &core.TraversalError{Path: s.root, Err: walkErr}
			}
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if walkErr != nil {
			s.logger.Warn("skipping unreadable path", "path", rel, "err", walkErr)
			out.skipped = append(out.skipped, &core.TraversalError{Path: rel, Err: walkErr})
			if d != nil && d.IsDir() {
				out.skippedDirs = append(out.skippedDirs, rel)
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if s.patterns.IsIgnored(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if !s.Tracks(rel) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			s.logger.Warn("skipping unreadable file", "path", rel, "err", err)
			out.skipped = append(out.skipped, &core.TraversalError{Path: rel, Err: err})
			return nil
		}
		out.files = append(out.files, candidate{rel: rel, abs: path, info: fi})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// carryForward copies previous fingerprints of files below any skipped
// directory into current, so an unreadable subtree is not reported deleted.
func carryForward(current, previous core.Snapshot, skippedDirs []string) {
	if len(skippedDirs) == 0 {
		return
	}
	for p, fp := range previous {
		if _, ok := current[p]; ok {
			continue
		}
		for _, dir := range skippedDirs {
			if strings.HasPrefix(p, dir+"/") {
				current[p] = fp
				break
			}
		}
	}
}

func sortTraversalErrors(errs []*core.TraversalError) []*core.TraversalError {
	slices.SortFunc(errs, func(a, b *core.TraversalError) int {
		return strings.Compare(a.Path, b.Path)
	})
	return errs
}
