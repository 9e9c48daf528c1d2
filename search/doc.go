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

// Package search answers natural-language queries against an indexed collection.
//
// A Searcher embeds the query with the configured ai.Embedder and asks the
// vector store for the nearest chunks. Results come back exactly as the store
// ranked them; the package never re-scores or filters hits.
//
// A SearchMonitor can observe each stage, which the CLI uses for verbose
// output. MatchesAllTerms is a helper for callers that want to flag hits
// containing every query word verbatim.
package search
