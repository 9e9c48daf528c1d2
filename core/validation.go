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

package core

import (
	"fmt"
	"strings"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Path must not be empty
//   - Index must not be negative
//   - Text must not be empty
//   - EndByte must not precede StartByte
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Path == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyPath)
	}

	if chunk.Index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidChunk, chunk.Index)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidChunk)
	}

	if chunk.EndByte < chunk.StartByte {
		return fmt.Errorf("%w: byte range [%d,%d) is inverted", ErrInvalidChunk, chunk.StartByte, chunk.EndByte)
	}

	return nil
}

// ValidateIndexedVector validates an IndexedVector before it is stored.
//
// The id must equal ChunkID(Metadata.Path, Metadata.ChunkIndex) so that
// prefix deletes can find it again.
func ValidateIndexedVector(vec *IndexedVector) error {
	if vec == nil {
		return fmt.Errorf("%w: vector is nil", ErrInvalidVector)
	}

	if vec.Metadata.Path == "" {
		return fmt.Errorf("%w: %w", ErrInvalidVector, ErrEmptyPath)
	}

	if len(vec.Vector) == 0 {
		return fmt.Errorf("%w: %s has no embedding", ErrInvalidVector, vec.ID)
	}

	if want := ChunkID(vec.Metadata.Path, vec.Metadata.ChunkIndex); vec.ID != want {
		return fmt.Errorf("%w: id %q does not match %q", ErrInvalidVector, vec.ID, want)
	}

	return nil
}

// ValidateCollectionName checks that name is usable as a collection identifier.
// Names are limited to ASCII letters, digits, '_' and '-' so they can be
// embedded in storage keys and table values without escaping.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidCollection)
	}
	if len(name) > 255 {
		return fmt.Errorf("%w: name longer than 255 bytes", ErrInvalidCollection)
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return fmt.Errorf("%w: name %q contains %q", ErrInvalidCollection, name, c)
		}
	}
	return nil
}

// ValidateCollectionSpec validates a CollectionSpec before creation.
func ValidateCollectionSpec(spec *CollectionSpec) error {
	if spec == nil {
		return fmt.Errorf("%w: spec is nil", ErrInvalidCollection)
	}
	if err := ValidateCollectionName(spec.Name); err != nil {
		return err
	}
	if spec.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidCollection, spec.Dimension)
	}
	return nil
}
