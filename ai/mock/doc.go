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


// Package mock provides test doubles for the ai package interfaces.
//
// The mocks generate deterministic output by default (FNV-hash embeddings,
// request-derived answers) so tests are reproducible without external AI
// services. Behavior can be overridden per test via the exported function
// fields, and failure sequences can be scripted through FailWith/FailCount
// on MockCompleter for retry and degradation tests.
package mock
