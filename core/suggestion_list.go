package core

import (
	"fmt"
	"slices"
)

// SuggestionList is the ordered, score-descending set of suggestions stored
// under one normalized query key. Suggested texts are unique within a list.
type SuggestionList struct {
	Key         string       `msgpack:"k"`
	Suggestions []Suggestion `msgpack:"s"`
}

// NewSuggestionList creates an empty list for an already normalized key.
func NewSuggestionList(key string) *SuggestionList {
	return &SuggestionList{Key: key}
}

// Len returns the number of suggestions.
func (l *SuggestionList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Suggestions)
}

// At returns the suggestion at index i.
func (l *SuggestionList) At(i int) Suggestion {
	return l.Suggestions[i]
}

// Top returns the best suggestion, if any.
func (l *SuggestionList) Top() (Suggestion, bool) {
	if l.Len() == 0 {
		return Suggestion{}, false
	}
	return l.Suggestions[0], true
}

// Get returns a pointer to the entry with the given text so callers can
// update it in place. The pointer is invalidated by AddSuggested and Truncate.
func (l *SuggestionList) Get(text string) *Suggestion {
	for i := range l.Suggestions {
		if l.Suggestions[i].Text == text {
			return &l.Suggestions[i]
		}
	}
	return nil
}

// Contains reports whether text is already suggested.
func (l *SuggestionList) Contains(text string) bool {
	return l.Get(text) != nil
}

// AddSuggested inserts a new suggestion at its sorted position. A new entry
// is placed ahead of existing entries with the same score.
func (l *SuggestionList) AddSuggested(text string, score float64, hits int) error {
	if l.Contains(text) {
		return fmt.Errorf("%w: %q in list %q", ErrDuplicateSuggestion, text, l.Key)
	}
	idx := len(l.Suggestions)
	for i, s := range l.Suggestions {
		if s.Score <= score {
			idx = i
			break
		}
	}
	l.Suggestions = slices.Insert(l.Suggestions, idx, NewSuggestion(text, score, hits))
	return nil
}

// Sort restores descending score order. Equal scores keep their relative order.
func (l *SuggestionList) Sort() {
	slices.SortStableFunc(l.Suggestions, Compare)
}

// Filter returns the suggestions accepted by keep, in list order.
func (l *SuggestionList) Filter(keep func(Suggestion) bool) []Suggestion {
	var out []Suggestion
	for _, s := range l.Suggestions {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// Truncate keeps at most n suggestions and reports whether any were removed.
func (l *SuggestionList) Truncate(n int) bool {
	if n < 0 || len(l.Suggestions) <= n {
		return false
	}
	l.Suggestions = l.Suggestions[:n]
	return true
}

// Clone returns a deep copy.
func (l *SuggestionList) Clone() *SuggestionList {
	return &SuggestionList{
		Key:         l.Key,
		Suggestions: slices.Clone(l.Suggestions),
	}
}

// Equal reports whether both lists hold the same key and entries in the same order.
func (l *SuggestionList) Equal(other *SuggestionList) bool {
	if l == nil || other == nil {
		return l == other
	}
	return l.Key == other.Key && slices.Equal(l.Suggestions, other.Suggestions)
}
