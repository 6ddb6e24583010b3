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


package core

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the engine.
var (
	// ErrQueryFailure indicates a dictionary backend read or write failed.
	ErrQueryFailure = errors.New("query failure")

	// ErrSessionFailure indicates a session store operation failed.
	ErrSessionFailure = errors.New("session failure")

	// ErrIllegalState indicates a programming-contract violation.
	ErrIllegalState = errors.New("illegal state")
)

// Domain validation errors
var (
	// ErrDuplicateSuggestion indicates the suggested text already exists in the list.
	// Callers must update the existing entry in place instead.
	ErrDuplicateSuggestion = fmt.Errorf("%w: duplicate suggestion", ErrIllegalState)

	// ErrInvalidSuggestionList indicates a SuggestionList failed validation.
	ErrInvalidSuggestionList = errors.New("invalid suggestion list")

	// ErrInvalidSession indicates a QuerySession failed validation.
	ErrInvalidSession = errors.New("invalid query session")

	// ErrEmptyKey indicates a suggestion list key is empty.
	ErrEmptyKey = errors.New("query key cannot be empty")

	// ErrEmptySuggestion indicates a suggestion text is empty.
	ErrEmptySuggestion = errors.New("suggested text cannot be empty")

	// ErrInvalidScore indicates a score is NaN, infinite or negative.
	ErrInvalidScore = errors.New("invalid suggestion score")

	// ErrEmptySessionID indicates the session id is empty.
	ErrEmptySessionID = errors.New("session id cannot be empty")

	// ErrInvalidNodeIndex indicates a node index outside the session.
	ErrInvalidNodeIndex = errors.New("invalid node index")
)
