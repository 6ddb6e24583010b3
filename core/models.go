package core

import (
	"encoding/binary"
	"math"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for corpus documents.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// UnknownHits marks a corpus hit count that was never measured.
const UnknownHits = -1

// MaxScore caps positive score adaptation.
const MaxScore = 9999.0

// Classification grades how much an inspected result was the user's goal.
// Values between the named anchors are permitted.
type Classification float64

const (
	// NoPartOfGoal marks a result the user rejected.
	NoPartOfGoal Classification = -1
	// Unknown carries no goal signal.
	Unknown Classification = 0
	// Goal marks a result that was what the user was looking for.
	Goal Classification = 1
)

// Suggestion is a single suggested correction with its score.
type Suggestion struct {
	Text  string  `msgpack:"t"`
	Score float64 `msgpack:"s"`
	Hits  int     `msgpack:"h"` // UnknownHits when not measured
}

// NewSuggestion creates a Suggestion.
func NewSuggestion(text string, score float64, hits int) Suggestion {
	return Suggestion{Text: text, Score: score, Hits: hits}
}

// HasHits reports whether the corpus hit count is known.
func (s Suggestion) HasHits() bool {
	return s.Hits >= 0
}

// Compare orders suggestions by descending score.
func Compare(a, b Suggestion) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	}
	return 0
}

// ScaleScore multiplies score by factor, capped at MaxScore.
func ScaleScore(score, factor float64) float64 {
	return math.Min(score*factor, MaxScore)
}
