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
	"fmt"
	"math"
)

// ValidateSuggestionList validates a SuggestionList before it is stored.
//
// Validation rules:
//   - Key must not be empty
//   - Every suggestion must pass ValidateSuggestion
//   - Suggested texts must be unique
//
// NOT validated:
//   - Order (lists are re-sorted by their owners before storing)
func ValidateSuggestionList(list *SuggestionList) error {
	if list == nil {
		return fmt.Errorf("%w: list is nil", ErrInvalidSuggestionList)
	}

	if list.Key == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSuggestionList, ErrEmptyKey)
	}

	seen := make(map[string]struct{}, len(list.Suggestions))
	for _, s := range list.Suggestions {
		if err := ValidateSuggestion(s); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSuggestionList, err)
		}
		if _, dup := seen[s.Text]; dup {
			return fmt.Errorf("%w: %w", ErrInvalidSuggestionList, ErrDuplicateSuggestion)
		}
		seen[s.Text] = struct{}{}
	}

	return nil
}

// ValidateSuggestion checks that the text is set and the score is a finite,
// non-negative number.
func ValidateSuggestion(s Suggestion) error {
	if s.Text == "" {
		return ErrEmptySuggestion
	}
	if math.IsNaN(s.Score) || math.IsInf(s.Score, 0) || s.Score < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidScore, s.Score)
	}
	return nil
}

// ValidateSession validates a QuerySession before it is stored.
//
// Validation rules:
//   - ID must not be empty
//   - Expiration must be positive
func ValidateSession(session *QuerySession) error {
	if session == nil {
		return fmt.Errorf("%w: session is nil", ErrInvalidSession)
	}

	if session.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSession, ErrEmptySessionID)
	}

	if session.Expiration <= 0 {
		return fmt.Errorf("%w: expiration must be positive", ErrInvalidSession)
	}

	return nil
}
