package filesync

import (
	"slices"

	"github.com/poiesic/codeindex/core"
)

// Diff compares two snapshots. A path present in both is modified when its
// size or hash differs; a changed mtime alone is not a modification.
// Each list is sorted.
func Diff(previous, current core.Snapshot) core.ChangeSet {
	var changes core.ChangeSet
	for p, fp := range current {
		old, ok := previous[p]
		switch {
		case !ok:
			changes.Added = append(changes.Added, p)
		case !old.SameContent(fp):
			changes.Modified = append(changes.Modified, p)
		}
	}
	for p := range previous {
		if _, ok := current[p]; !ok {
			changes.Deleted = append(changes.Deleted, p)
		}
	}
	slices.Sort(changes.Added)
	slices.Sort(changes.Modified)
	slices.Sort(changes.Deleted)
	return changes
}
