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

// Package filesync computes which files under a codebase root were added,
// modified or deleted since the last committed snapshot.
//
// A Synchronizer walks the root, pruning directories its ignore.PatternSet
// excludes, fingerprints every surviving regular file and diffs the result
// against the snapshot held in a storage.SnapshotStore:
//
//	sync, err := filesync.New(root, "code_chunks", patterns, store)
//	result, err := sync.ComputeChangeSet(ctx)
//	// ... reconcile result.Changes ...
//	err = sync.Commit(ctx, result.Current)
//
// ComputeChangeSet never writes. The caller commits result.Current once it
// has acted on the change set, so a failed reconciliation is retried in full
// on the next run.
//
// # Fingerprints
//
// A file whose size and modification time match its previous fingerprint
// keeps the previous hash without being read. Otherwise its contents are
// hashed with BLAKE2b-256. Hashing fans out on a bounded errgroup.
//
// # Failures
//
// A failure on the root aborts the run. Any other unreadable directory or
// file is reported in Result.Skipped and logged; paths below it keep their
// previous fingerprints so they are not mistaken for deletions.
//
// Symbolic links and other non-regular files are never followed or indexed.
package filesync
