package badger

import (
	"fmt"

	"github.com/poiesic/codeindex/core"
)

const (
	collectionPrefix  = "col"
	vectorPrefix      = "vec"
	snapshotPrefix    = "snap"
	snapshotGenSeq    = "snapgenseq"
	snapshotHeadLabel = "head"
)

// makeCollectionKey generates the key holding a collection's spec.
func makeCollectionKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", collectionPrefix, name))
}

// makeVectorPrefix generates the prefix shared by all vectors of a collection.
// Format: prefix:collection:
func makeVectorPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", vectorPrefix, collection))
}

// makeVectorKey generates a key for a vector by id.
// Format: prefix:collection:id
func makeVectorKey(collection, id string) []byte {
	return append(makeVectorPrefix(collection), id...)
}

// makeSnapshotHeadKey generates the key pointing at the live snapshot generation.
func makeSnapshotHeadKey(key core.SnapshotKey) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", snapshotPrefix, key.String(), snapshotHeadLabel))
}

// makeSnapshotGenPrefix generates the prefix of every page of one generation.
// Format: prefix:key:gen:
func makeSnapshotGenPrefix(key core.SnapshotKey, gen uint64) []byte {
	return []byte(fmt.Sprintf("%s:%s:%020d:", snapshotPrefix, key.String(), gen))
}

// makeSnapshotPageKey generates a key for one page of a snapshot generation.
// Zero padding keeps pages in numeric order under lexicographic iteration.
func makeSnapshotPageKey(key core.SnapshotKey, gen uint64, page int) []byte {
	return []byte(fmt.Sprintf("%s%08d", makeSnapshotGenPrefix(key, gen), page))
}
