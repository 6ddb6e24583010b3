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


package storage

import (
	"fmt"

	"github.com/poiesic/didyoumean/core"
	"github.com/vmihailenco/msgpack/v5"
)

// MarshalSuggestionList serializes a SuggestionList to bytes.
func MarshalSuggestionList(list *core.SuggestionList) ([]byte, error) {
	data, err := msgpack.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalSuggestionList deserializes a SuggestionList from bytes.
func UnmarshalSuggestionList(data []byte) (*core.SuggestionList, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	var list core.SuggestionList
	if err := msgpack.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &list, nil
}

// MarshalSession serializes a QuerySession to bytes.
func MarshalSession(session *core.QuerySession) ([]byte, error) {
	rec := sessionRecord{
		ID:          session.ID,
		LastTouched: session.LastTouched,
		Expiration:  session.Expiration,
		Nodes:       make([]nodeRecord, session.Len()),
	}
	for i, n := range session.Nodes() {
		rec.Nodes[i] = nodeRecord{
			Parent:      session.ParentIndex(i),
			Query:       n.Query,
			Hits:        n.Hits,
			Suggestion:  n.Suggestion,
			Timestamp:   n.Timestamp,
			Inspections: n.Inspections,
		}
	}
	data := make([]byte, sessionRecordMUS.Size(rec))
	sessionRecordMUS.Marshal(rec, data)
	return data, nil
}

// UnmarshalSession deserializes a QuerySession from bytes, rebuilding the
// node tree from the recorded parent indices.
func UnmarshalSession(data []byte) (*core.QuerySession, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	rec, _, err := sessionRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}

	session := core.NewQuerySession(rec.ID, rec.Expiration)
	for i, n := range rec.Nodes {
		if n.Parent >= i {
			return nil, fmt.Errorf("%w: node %d has forward parent %d", ErrSerializationFailed, i, n.Parent)
		}
		idx, err := session.QueryWithParent(n.Parent, n.Query, n.Hits, n.Suggestion, n.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		node, _ := session.Node(idx)
		node.Inspections = n.Inspections
	}
	session.LastTouched = rec.LastTouched
	return session, nil
}
