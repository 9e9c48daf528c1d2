package core

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ID is a compact identifier derived from content.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Hex returns the ID as 16 lowercase hex characters.
func (id ID) Hex() string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	return hex.EncodeToString(buf[:])
}

// FileFingerprint is the observable state of one tracked file at sync time.
type FileFingerprint struct {
	Path  string // slash-separated, relative to the codebase root
	Hash  []byte // BLAKE2b-256 of the file contents
	Size  int64
	MTime int64 // modification time in unix nanoseconds
}

// SameStat reports whether size and modification time match.
// A match lets the synchronizer reuse the previous hash without reading the file.
func (f FileFingerprint) SameStat(other FileFingerprint) bool {
	return f.Size == other.Size && f.MTime == other.MTime
}

// SameContent reports whether two fingerprints describe identical contents.
func (f FileFingerprint) SameContent(other FileFingerprint) bool {
	return f.Size == other.Size && bytes.Equal(f.Hash, other.Hash)
}

// Snapshot maps a relative path to the fingerprint recorded for it.
type Snapshot map[string]FileFingerprint

// Paths returns the tracked paths in lexical order.
func (s Snapshot) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Clone returns a shallow copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// SnapshotKey identifies the snapshot for one (root, collection) pair.
type SnapshotKey struct {
	Root       string
	Collection string
}

// String returns a stable storage key for the pair.
func (k SnapshotKey) String() string {
	return k.Collection + ":" + IDFromContent(k.Root).Hex()
}

// ChangeSet lists the paths that differ between two snapshots.
type ChangeSet struct {
	Added    []string
	Modified []string
	Deleted  []string
}

// IsEmpty reports whether nothing changed.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

// Len returns the total number of changed paths.
func (c ChangeSet) Len() int {
	return len(c.Added) + len(c.Modified) + len(c.Deleted)
}

// Chunk is a sub-file unit of text submitted for embedding.
type Chunk struct {
	Path      string
	Index     int
	Text      string
	StartByte int // inclusive
	EndByte   int // exclusive
	StartLine int // 1-based
	EndLine   int
	Language  string
}

// ChunkMetadata travels with every stored vector.
type ChunkMetadata struct {
	Path       string
	ChunkIndex int
	StartLine  int
	EndLine    int
	Language   string
	Content    string
}

// IndexedVector is a chunk embedding as handed to a vector store.
type IndexedVector struct {
	ID       string
	Vector   []float32
	Metadata ChunkMetadata
}

// SearchResult is one hit returned by a vector store.
type SearchResult struct {
	ID       string
	Score    float32
	Metadata ChunkMetadata
}

// CollectionSpec describes a vector collection to create.
type CollectionSpec struct {
	Name        string
	Dimension   int
	Description string
}

const chunkIDSeparator = "#"

// The path part of a chunk id never contains the separator, so the prefix of
// one path cannot match the ids of a longer path such as "a.ts#b.ts".
var (
	chunkIDEscaper   = strings.NewReplacer("%", "%25", "#", "%23")
	chunkIDUnescaper = strings.NewReplacer("%25", "%", "%23", "#")
)

// ChunkID returns the deterministic vector id for a chunk of a file.
func ChunkID(path string, index int) string {
	return fmt.Sprintf("%s%s%06d", chunkIDEscaper.Replace(path), chunkIDSeparator, index)
}

// ChunkIDPrefix returns the prefix shared by every chunk id of path and by
// no chunk id of any other path.
func ChunkIDPrefix(path string) string {
	return chunkIDEscaper.Replace(path) + chunkIDSeparator
}

// ParseChunkID splits a chunk id into its path and index.
func ParseChunkID(id string) (string, int, bool) {
	i := strings.LastIndex(id, chunkIDSeparator)
	if i < 0 {
		return "", 0, false
	}
	var index int
	if _, err := fmt.Sscanf(id[i+1:], "%d", &index); err != nil {
		return "", 0, false
	}
	return chunkIDUnescaper.Replace(id[:i]), index, true
}

// Phase names a stage of an indexing run.
type Phase string

const (
	PhaseScanning  Phase = "scanning"
	PhaseDeleting  Phase = "deleting"
	PhaseEmbedding Phase = "embedding"
	PhaseDone      Phase = "done"
)

// Progress is reported to callers while an indexing run advances.
type Progress struct {
	Phase     Phase
	Processed int // files fully embedded and stored
	Total     int // files to embed in this run
	Chunks    int // chunks stored so far
}

// Percent returns completion in the range [0, 100].
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Processed) / float64(p.Total) * 100
}
