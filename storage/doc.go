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


// Package storage provides the storage abstraction layer for didyoumean.
//
// This package defines the repository interfaces the engine persists through.
// Two backends implement them: storage/badger (BadgerDB, on disk or in memory)
// and storage/memory (plain maps).
//
// # Architecture
//
//   - DictionaryRepository: suggestion lists keyed by normalized query
//   - SessionRepository: in-flight query sessions keyed by session id
//
// Suggestion lists are serialized with msgpack. Sessions use hand-written
// mus serializers and are flattened to a node list in insertion order where
// each node records the index of its parent.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	dict := badger.NewDictionaryRepository(backend)
//
// Use in tests with in-memory storage:
//
//	dict, sessions, backend, err := badger.NewMemoryRepositories()
//
// # Consistency
//
// Repositories are safe for concurrent use, but nothing above a single
// PutList or PutSession is atomic. Two writers updating the same key race
// and the last write wins.
package storage
