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

// Package indexing keeps a vector collection in step with a source tree.
//
// A Context ties together a filesync.Synchronizer, a chunk.Chunker, an
// ai.Embedder and a storage.VectorStore. Each Reindex call runs one cycle:
//
//  1. compute the change set of the root against its last committed snapshot
//  2. delete the vectors of every deleted or modified file by id prefix
//  3. chunk added and modified files and group the chunks into batches
//  4. embed and insert the batches on a bounded worker pool
//  5. commit the new snapshot
//
// The snapshot is committed only when every batch succeeded. Any embedding
// or store failure aborts the cycle, and the next cycle sees the same
// changes again. All deletions finish before the first insert, so a file
// that shrinks from N chunks to M never keeps chunks M..N-1.
//
// Cycles for one root are serialized: a call that overlaps a running cycle
// for the same root fails with core.ErrIndexInProgress.
//
// # Collections
//
// Unless WithCollection is given, the collection for a root is named
// "code_chunks_" followed by a hash of the absolute root path. The
// collection is created lazily with the dimension of the first embedding.
// A fixed collection name serves one root per Context.
package indexing
