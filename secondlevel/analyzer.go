package secondlevel

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Analyzer splits text into lowercase tokens. A token is a run of letters
// and digits; apostrophes are kept inside a token ("it's") and trimmed at
// its edges.
type Analyzer struct {
	stopWords map[string]bool
}

// NewAnalyzer creates an Analyzer that drops the given stop words.
// The corpus analyzer keeps every word, so it is normally created without any.
func NewAnalyzer(stopWords ...string) *Analyzer {
	a := &Analyzer{stopWords: make(map[string]bool, len(stopWords))}
	for _, w := range stopWords {
		a.stopWords[strings.ToLower(w)] = true
	}
	return a
}

// Analyze returns the tokens of text in order.
func (a *Analyzer) Analyze(text string) []string {
	folded := norm.NFKC.String(text)
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, "'"))
		if cleaned != "" && !a.stopWords[cleaned] {
			tokens = append(tokens, cleaned)
		}
	}
	return tokens
}
