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

// Package storage provides the storage abstraction layer for codeindex.
//
// Two interfaces decouple persistence from indexing logic:
//
//   - VectorStore: chunk embeddings grouped into collections, with
//     id-prefix deletion and nearest-neighbour search
//   - SnapshotStore: the per-root file fingerprints recorded by the last
//     successful reconciliation
//
// # Implementations
//
//   - storage/badger: BadgerDB-backed vector and snapshot stores (default)
//   - storage/sqlite: SQLite vector and snapshot stores (pure Go driver)
//   - storage/filesnap: JSON snapshot files replaced by atomic rename
//   - storage/memory: in-memory stores for tests
//
// # Constructor Return Type Pattern
//
// Public constructors return the interface types so callers cannot couple
// to one backend:
//
//	store, err := badger.NewVectorRepository(backend)  // returns storage.VectorStore
//
// # Vector ids
//
// Vector ids are built with core.ChunkID(path, index). Deleting with
// core.ChunkIDPrefix(path) removes every chunk of one file without a side
// table, which is what lets a modified file shrink cleanly.
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
package storage
