package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "absolute root path",
			content:  "/home/dev/projects/api",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_DifferentContent(t *testing.T) {
	assert.NotEqual(t, IDFromContent("/repo/a"), IDFromContent("/repo/b"))
}

func TestIDHex(t *testing.T) {
	assert.Equal(t, "0000000000000000", ID(0).Hex())
	assert.Equal(t, "00000000000000ff", ID(255).Hex())
	assert.Len(t, IDFromContent("anything").Hex(), 16)
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "src/index.ts#000000", ChunkID("src/index.ts", 0))
	assert.Equal(t, "src/index.ts#000012", ChunkID("src/index.ts", 12))

	prefix := ChunkIDPrefix("src/a.ts")
	assert.True(t, len(ChunkID("src/a.ts", 3)) > len(prefix))
	assert.Equal(t, prefix, ChunkID("src/a.ts", 3)[:len(prefix)])
	assert.NotEqual(t, prefix, ChunkID("src/a.tsx", 0)[:len(prefix)])
}

func TestChunkIDPrefix_PathsContainingSeparator(t *testing.T) {
	tests := []struct {
		path  string
		other string
	}{
		{"a.ts", "a.ts#b.ts"},
		{"a.ts", "a.ts%23b.ts"},
		{"a%", "a%23"},
		{"dir#", "dir#/x.go"},
	}
	for _, tt := range tests {
		t.Run(tt.other, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(ChunkID(tt.path, 0), ChunkIDPrefix(tt.path)))
			assert.False(t, strings.HasPrefix(ChunkID(tt.other, 0), ChunkIDPrefix(tt.path)))
			assert.False(t, strings.HasPrefix(ChunkID(tt.path, 0), ChunkIDPrefix(tt.other)))
		})
	}
}

func TestParseChunkID(t *testing.T) {
	path, index, ok := ParseChunkID(ChunkID("lib/x#y.go", 7))
	require.True(t, ok)
	assert.Equal(t, "lib/x#y.go", path)
	assert.Equal(t, 7, index)

	path, _, ok = ParseChunkID(ChunkID("100%#23.go", 0))
	require.True(t, ok)
	assert.Equal(t, "100%#23.go", path)

	_, _, ok = ParseChunkID("no-separator")
	assert.False(t, ok)

	_, _, ok = ParseChunkID("file.go#abc")
	assert.False(t, ok)
}

func TestFingerprintComparisons(t *testing.T) {
	a := FileFingerprint{Path: "a.go", Hash: []byte{1, 2, 3}, Size: 10, MTime: 100}

	b := a
	b.MTime = 200
	assert.False(t, a.SameStat(b))
	assert.True(t, a.SameContent(b), "touching a file does not change its content")

	c := a
	c.Hash = []byte{9, 9, 9}
	assert.True(t, a.SameStat(c))
	assert.False(t, a.SameContent(c))
}

func TestSnapshotPathsAndClone(t *testing.T) {
	snap := Snapshot{
		"src/b.ts": {Path: "src/b.ts"},
		"src/a.ts": {Path: "src/a.ts"},
		"README.md": {Path: "README.md"},
	}
	assert.Equal(t, []string{"README.md", "src/a.ts", "src/b.ts"}, snap.Paths())

	clone := snap.Clone()
	delete(clone, "README.md")
	assert.Len(t, snap, 3)
	assert.Len(t, clone, 2)
}

func TestSnapshotKey(t *testing.T) {
	k1 := SnapshotKey{Root: "/repo", Collection: "code_chunks"}
	k2 := SnapshotKey{Root: "/other", Collection: "code_chunks"}
	assert.NotEqual(t, k1.String(), k2.String())
	assert.Equal(t, k1.String(), SnapshotKey{Root: "/repo", Collection: "code_chunks"}.String())
}

func TestChangeSet(t *testing.T) {
	var cs ChangeSet
	assert.True(t, cs.IsEmpty())
	assert.Equal(t, 0, cs.Len())

	cs.Added = []string{"a"}
	cs.Deleted = []string{"b", "c"}
	assert.False(t, cs.IsEmpty())
	assert.Equal(t, 3, cs.Len())

	assert.True(t, ChangeSet{}.IsEmpty())
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, float64(100), Progress{}.Percent())
	assert.Equal(t, float64(50), Progress{Processed: 1, Total: 2}.Percent())
}

func TestSnapshotMUSRoundTrip(t *testing.T) {
	snap := Snapshot{
		"src/index.ts": {Path: "src/index.ts", Hash: []byte{0xde, 0xad}, Size: 42, MTime: 1700000000000000000},
		"src/util.ts":  {Path: "src/util.ts", Hash: []byte{0xbe, 0xef}, Size: 7, MTime: -1},
	}

	buf := make([]byte, SnapshotMUS.Size(snap))
	n := SnapshotMUS.Marshal(snap, buf)
	require.Equal(t, len(buf), n)

	decoded, read, err := SnapshotMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, n, read)
	assert.Equal(t, snap, decoded)
}

func TestSnapshotMUSTruncated(t *testing.T) {
	snap := Snapshot{"a.go": {Path: "a.go", Hash: []byte{1}, Size: 1, MTime: 1}}
	buf := make([]byte, SnapshotMUS.Size(snap))
	SnapshotMUS.Marshal(snap, buf)

	_, _, err := SnapshotMUS.Unmarshal(buf[:len(buf)-3])
	assert.Error(t, err)
}

func TestIndexedVectorMUSRoundTrip(t *testing.T) {
	vec := IndexedVector{
		ID:     ChunkID("main.go", 2),
		Vector: []float32{0.25, -1.5, 3},
		Metadata: ChunkMetadata{
			Path:       "main.go",
			ChunkIndex: 2,
			StartLine:  10,
			EndLine:    42,
			Language:   "go",
			Content:    "func main() {}",
		},
	}

	buf := make([]byte, IndexedVectorMUS.Size(vec))
	IndexedVectorMUS.Marshal(vec, buf)

	decoded, _, err := IndexedVectorMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)
}
