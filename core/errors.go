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
	"errors"
	"fmt"
	"strings"
)

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidVector indicates an IndexedVector failed validation.
	ErrInvalidVector = errors.New("invalid vector")

	// ErrInvalidCollection indicates a collection name or spec failed validation.
	ErrInvalidCollection = errors.New("invalid collection")

	// ErrEmptyPath indicates a relative path was empty.
	ErrEmptyPath = errors.New("path cannot be empty")

	// ErrEmbeddingMismatch indicates the embedder returned a different number of vectors than texts.
	ErrEmbeddingMismatch = errors.New("embedding result mismatch")

	// ErrIndexInProgress indicates a sync/reconcile cycle is already running for the root.
	ErrIndexInProgress = errors.New("indexing already in progress for this root")

	// ErrMalformedRecord indicates a stored record could not be decoded.
	ErrMalformedRecord = errors.New("malformed record")
)

// ConfigurationError reports an invalid option or pattern detected at construction.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// TraversalError reports a filesystem failure while walking the tree.
// Only a failure on the root itself aborts a sync.
type TraversalError struct {
	Path string
	Err  error
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("traversal of %q: %v", e.Path, e.Err)
}

func (e *TraversalError) Unwrap() error { return e.Err }

// EmbeddingError reports a failed or malformed embedding batch.
type EmbeddingError struct {
	Batch int
	Paths []string
	Err   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding batch %d (%s): %v", e.Batch, strings.Join(e.Paths, ", "), e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// StoreError reports a failed vector store operation.
type StoreError struct {
	Op         string
	Collection string
	Path       string
	Err        error
}

func (e *StoreError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("vector store %s on %s (%s): %v", e.Op, e.Collection, e.Path, e.Err)
	}
	return fmt.Sprintf("vector store %s on %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// SnapshotCorruptionError reports an unreadable persisted snapshot.
// Callers recover by treating the snapshot as empty.
type SnapshotCorruptionError struct {
	Key string
	Err error
}

func (e *SnapshotCorruptionError) Error() string {
	return fmt.Sprintf("snapshot %s is corrupt: %v", e.Key, e.Err)
}

func (e *SnapshotCorruptionError) Unwrap() error { return e.Err }
