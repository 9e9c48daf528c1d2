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

// Package ai provides the embedding abstraction used by codeindex.
//
// Indexing depends only on the Embedder interface, so the embedding model
// and its transport can be swapped without touching the orchestrator.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible embedding APIs through langchaingo
//   - ai/cache: an LRU wrapper that memoizes query embeddings
//   - ai/mock: deterministic test doubles
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewEmbedder, cache.New) return the ai.Embedder
// interface. Test utility constructors (mock.NewMockEmbedder) return the
// concrete type so tests can inject behaviour and assert call counts:
//
//	mockEmbed := mock.NewMockEmbedder()  // returns *mock.MockEmbedder
//	count := mockEmbed.BatchCount()      // test assertion
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithEmbeddingModel("nomic-embed-text"))
//	embedder, err := openai.NewEmbedder(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	embedder = cache.New(embedder, config.QueryCacheSize)
//	vector, err := embedder.EmbedText(ctx, "where are retries configured?")
package ai
