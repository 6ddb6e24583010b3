package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// KeyFormatter maps a raw query to the dictionary key it is stored under.
type KeyFormatter func(query string) string

// FormatQueryKey is the default KeyFormatter. It folds the query to NFKC,
// drops punctuation, symbols and whitespace, and lowercases the rest, so
// "the da-vinci code" and "The DaVinci Code" share a key.
func FormatQueryKey(query string) string {
	folded := norm.NFKC.String(query)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsControl(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
