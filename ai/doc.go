// Copyright 2026 Quellwerk Systems
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


// Package ai provides abstractions for the AI services used by Concierge.
//
// This package defines interfaces for text embeddings and large-language-model
// completions. It follows the dependency inversion principle, allowing the
// core domain and orchestration logic to depend on abstractions rather than
// concrete implementations.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Completer: Drafts grounded answers using an LLM
//   - Provider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations. Test utility constructors (mock.NewMockEmbedder,
// mock.NewMockCompleter) return CONCRETE types to enable test assertions and
// behavior injection via the mock's public fields.
//
// # Error Taxonomy
//
// Completer implementations classify transport failures into ErrRateLimited,
// ErrUnavailable, and ErrTimeout. The orchestrator retries these with bounded
// exponential backoff and degrades to a human-routed fallback on exhaustion;
// they are never surfaced raw to a caller.
package ai
