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


// Package knowledge manages the per-tenant knowledge bases.
//
// Two pieces live here: the ingestion Pipeline, which chunks tenant
// documents, embeds them in batches on a worker pool, and stores them in
// the tenant's collection, and the Index, which embeds a query and runs
// tenant-scoped similarity search over the stored chunks.
//
// Chunk IDs are content-based, so re-ingesting unchanged text is an
// overwrite, and vectors are normalized on the way in so the search path
// can score with plain dot products.
package knowledge
