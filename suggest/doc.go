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


// Package suggest turns a query into a ranked list of corrections.
//
// The DefaultSuggester reads the trained dictionary and works in three
// stages:
//   - Gather the stored list, topping it up from the second-level
//     suggesters when its best score is suppressed
//   - Build a query-sensitive view that never offers the query itself first
//   - Navigate toward a suggestion whose own suggestions are clearly more
//     popular, with a hard cap on the number of hops
//
// Queries without any stored list are handed to the dictionary's
// second-level suggesters directly.
package suggest
