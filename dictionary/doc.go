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


// Package dictionary maps normalized query keys to ranked suggestion lists.
//
// A Dictionary sits on top of a storage.DictionaryRepository. It owns key
// normalization, so callers always pass raw queries, and it owns the set of
// second-level suggesters consulted when a key has no trusted suggestion.
//
// Maintenance operations:
//   - Inverted maps each top suggestion back to the keys that suggest it
//   - Prune truncates oversized lists
//   - Optimize collapses suggestion chains so serving needs fewer lookups
//
// Concurrent updates to the same key are last-writer-wins.
package dictionary
