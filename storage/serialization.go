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

package storage

import (
	"fmt"

	"github.com/poiesic/codeindex/core"
)

// MarshalVector serializes an IndexedVector to bytes.
func MarshalVector(vec *core.IndexedVector) []byte {
	buf := make([]byte, core.IndexedVectorMUS.Size(*vec))
	core.IndexedVectorMUS.Marshal(*vec, buf)
	return buf
}

// UnmarshalVector deserializes an IndexedVector from bytes.
func UnmarshalVector(data []byte) (*core.IndexedVector, error) {
	vec, n, err := core.IndexedVectorMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return &vec, nil
}

// MarshalSnapshot serializes a Snapshot to bytes.
func MarshalSnapshot(snapshot core.Snapshot) []byte {
	buf := make([]byte, core.SnapshotMUS.Size(snapshot))
	core.SnapshotMUS.Marshal(snapshot, buf)
	return buf
}

// UnmarshalSnapshot deserializes a Snapshot from bytes.
func UnmarshalSnapshot(data []byte) (core.Snapshot, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	snapshot, n, err := core.SnapshotMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return snapshot, nil
}

// MarshalCollectionSpec serializes a CollectionSpec to bytes.
func MarshalCollectionSpec(spec core.CollectionSpec) []byte {
	buf := make([]byte, core.CollectionSpecMUS.Size(spec))
	core.CollectionSpecMUS.Marshal(spec, buf)
	return buf
}

// UnmarshalCollectionSpec deserializes a CollectionSpec from bytes.
func UnmarshalCollectionSpec(data []byte) (core.CollectionSpec, error) {
	spec, _, err := core.CollectionSpecMUS.Unmarshal(data)
	if err != nil {
		return core.CollectionSpec{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return spec, nil
}
