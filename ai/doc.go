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

// Package ai provides the embedding abstraction used by mailroom.
//
// The Embedder interface turns a text into a fixed-length vector. Vectors are
// fitted to Config.Dimensions (768 by default) so every stored embedding has
// the same shape regardless of provider.
//
// # Implementation Packages
//
//   - ai/gemini: Gemini embedContent REST API (default)
//   - ai/openai: OpenAI-compatible APIs through langchaingo
//   - ai/provider: builds the Embedder named by Config.Provider
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors return the ai.Embedder interface. The mock constructor
// returns the concrete type so tests can inject behavior and count calls.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
//	embedder, err := provider.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vec, err := embedder.EmbedText(ctx, "Hello world")
//
// # Errors
//
// A failed request yields *EmbeddingError carrying the model, the HTTP status
// and body when a response arrived, and the underlying cause otherwise.
package ai
