package core

import (
	"errors"
	"testing"
)

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   &Chunk{Path: "src/a.ts", Index: 0, Text: "export {}", StartByte: 0, EndByte: 9},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "empty path",
			chunk:   &Chunk{Text: "x", EndByte: 1},
			wantErr: ErrEmptyPath,
		},
		{
			name:    "negative index",
			chunk:   &Chunk{Path: "a", Index: -1, Text: "x", EndByte: 1},
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "whitespace only",
			chunk:   &Chunk{Path: "a", Text: " \n\t", EndByte: 3},
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "inverted range",
			chunk:   &Chunk{Path: "a", Text: "x", StartByte: 5, EndByte: 2},
			wantErr: ErrInvalidChunk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateIndexedVector(t *testing.T) {
	valid := &IndexedVector{
		ID:       ChunkID("a.go", 1),
		Vector:   []float32{1},
		Metadata: ChunkMetadata{Path: "a.go", ChunkIndex: 1},
	}
	if err := ValidateIndexedVector(valid); err != nil {
		t.Fatalf("ValidateIndexedVector() unexpected error = %v", err)
	}

	tests := []struct {
		name string
		vec  *IndexedVector
	}{
		{"nil", nil},
		{"no path", &IndexedVector{ID: "#000000", Vector: []float32{1}}},
		{"no embedding", &IndexedVector{ID: ChunkID("a.go", 0), Metadata: ChunkMetadata{Path: "a.go"}}},
		{"id mismatch", &IndexedVector{ID: "a.go#1", Vector: []float32{1}, Metadata: ChunkMetadata{Path: "a.go", ChunkIndex: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateIndexedVector(tt.vec); !errors.Is(err, ErrInvalidVector) {
				t.Errorf("ValidateIndexedVector() error = %v, want %v", err, ErrInvalidVector)
			}
		})
	}
}

func TestErrorTaxonomyUnwraps(t *testing.T) {
	cause := errors.New("boom")

	var embErr *EmbeddingError
	err := error(&EmbeddingError{Batch: 2, Paths: []string{"a.go"}, Err: cause})
	if !errors.As(err, &embErr) || !errors.Is(err, cause) {
		t.Errorf("EmbeddingError does not unwrap to its cause")
	}

	var storeErr *StoreError
	err = error(&StoreError{Op: "insert", Collection: "c", Err: cause})
	if !errors.As(err, &storeErr) || !errors.Is(err, cause) {
		t.Errorf("StoreError does not unwrap to its cause")
	}

	if !errors.Is(&TraversalError{Path: "x", Err: cause}, cause) {
		t.Errorf("TraversalError does not unwrap to its cause")
	}
	if !errors.Is(&SnapshotCorruptionError{Key: "k", Err: cause}, cause) {
		t.Errorf("SnapshotCorruptionError does not unwrap to its cause")
	}
}

func TestValidateCollectionSpec(t *testing.T) {
	valid := []CollectionSpec{
		{Name: "code_chunks_0123abcd", Dimension: 384},
		{Name: "my-project", Dimension: 1},
	}
	for _, spec := range valid {
		if err := ValidateCollectionSpec(&spec); err != nil {
			t.Errorf("ValidateCollectionSpec(%+v) unexpected error = %v", spec, err)
		}
	}

	invalid := []*CollectionSpec{
		nil,
		{Name: "", Dimension: 3},
		{Name: "has:colon", Dimension: 3},
		{Name: "has space", Dimension: 3},
		{Name: "ok", Dimension: 0},
	}
	for _, spec := range invalid {
		if err := ValidateCollectionSpec(spec); !errors.Is(err, ErrInvalidCollection) {
			t.Errorf("ValidateCollectionSpec(%+v) error = %v, want %v", spec, err, ErrInvalidCollection)
		}
	}
}
