package secondlevel

import (
	"cmp"
	"slices"
	"unicode/utf8"

	"github.com/poiesic/didyoumean/core"
	"github.com/tchap/go-patricia/v2/patricia"
)

// TokenSuggester proposes replacements for a single token.
type TokenSuggester interface {
	// SuggestToken returns up to n replacements for token, best first. With
	// suggestSelf a token found in the corpus is returned as its own best
	// replacement. With morePopularOnly only tokens with a higher document
	// frequency than token are returned.
	SuggestToken(token string, n int, suggestSelf, morePopularOnly bool) []core.Suggestion
}

// TokenConfig holds the n-gram token suggester settings.
type TokenConfig struct {
	// MinWordLength is the shortest corpus term indexed by its n-grams.
	MinWordLength int

	// Accuracy is the lowest similarity a candidate may have.
	Accuracy float64
}

// DefaultTokenConfig returns the standard token suggester settings.
func DefaultTokenConfig() TokenConfig {
	return TokenConfig{
		MinWordLength: 2,
		Accuracy:      0.5,
	}
}

// candidateFactor bounds the n-gram shortlist at candidateFactor*n words.
const candidateFactor = 10

// startGramBoost is added for a candidate sharing the token's leading gram.
const startGramBoost = 2

// NgramTokenSuggester finds corpus terms that share character n-grams with a
// token and ranks them by edit-distance similarity.
type NgramTokenSuggester struct {
	index    *Index
	grams    *patricia.Trie // gram -> []string terms containing it
	config   TokenConfig
	distance core.EditDistance
}

var _ TokenSuggester = (*NgramTokenSuggester)(nil)

// NewNgramTokenSuggester indexes the n-grams of every term in index.
// Terms added to index afterwards are not seen.
func NewNgramTokenSuggester(index *Index, config TokenConfig) (*NgramTokenSuggester, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if config.Accuracy < 0 || config.Accuracy > 1 {
		return nil, ErrInvalidConfig
	}
	s := &NgramTokenSuggester{
		index:    index,
		grams:    patricia.NewTrie(),
		config:   config,
		distance: core.Levenshtein{},
	}

	var terms []string
	err := index.VisitTerms(func(term string, _ int) error {
		if utf8.RuneCountInString(term) >= config.MinWordLength {
			terms = append(terms, term)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(terms)
	for _, term := range terms {
		s.addTerm(term)
	}
	return s, nil
}

func (s *NgramTokenSuggester) addTerm(term string) {
	lo, hi := gramSizes(utf8.RuneCountInString(term))
	seen := make(map[string]bool)
	for size := lo; size <= hi; size++ {
		for _, g := range grams(term, size) {
			if seen[g] {
				continue
			}
			seen[g] = true
			key := patricia.Prefix(g)
			if item := s.grams.Get(key); item != nil {
				s.grams.Set(key, append(item.([]string), term))
				continue
			}
			s.grams.Insert(key, []string{term})
		}
	}
}

type tokenCandidate struct {
	text    string
	overlap int
	score   float64
	freq    int
}

// SuggestToken implements TokenSuggester.
func (s *NgramTokenSuggester) SuggestToken(token string, n int, suggestSelf, morePopularOnly bool) []core.Suggestion {
	if token == "" || n < 1 {
		return nil
	}
	tokenFreq := s.index.DocFreq(token)

	overlap := make(map[string]int)
	lo, hi := gramSizes(utf8.RuneCountInString(token))
	for size := lo; size <= hi; size++ {
		gs := grams(token, size)
		for i, g := range gs {
			item := s.grams.Get(patricia.Prefix(g))
			if item == nil {
				continue
			}
			for _, term := range item.([]string) {
				overlap[term]++
			}
			if i == 0 {
				for _, term := range s.index.TermsWithPrefix(g) {
					if _, ok := overlap[term]; ok {
						overlap[term] += startGramBoost
					}
				}
			}
		}
	}

	shortlist := make([]tokenCandidate, 0, len(overlap))
	for term, count := range overlap {
		if term == token {
			continue
		}
		shortlist = append(shortlist, tokenCandidate{text: term, overlap: count})
	}
	slices.SortFunc(shortlist, func(a, b tokenCandidate) int {
		if c := cmp.Compare(b.overlap, a.overlap); c != 0 {
			return c
		}
		return cmp.Compare(a.text, b.text)
	})
	if limit := candidateFactor * n; len(shortlist) > limit {
		shortlist = shortlist[:limit]
	}

	var ranked []tokenCandidate
	for _, c := range shortlist {
		c.score = similarity(s.distance, token, c.text)
		if c.score < s.config.Accuracy {
			continue
		}
		c.freq = s.index.DocFreq(c.text)
		if morePopularOnly && c.freq <= tokenFreq {
			continue
		}
		ranked = append(ranked, c)
	}
	slices.SortFunc(ranked, func(a, b tokenCandidate) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.freq, a.freq); c != 0 {
			return c
		}
		return cmp.Compare(a.text, b.text)
	})

	out := make([]core.Suggestion, 0, n)
	if suggestSelf && !morePopularOnly && tokenFreq > 0 {
		out = append(out, core.NewSuggestion(token, 1.0, tokenFreq))
	}
	for _, c := range ranked {
		if len(out) == n {
			break
		}
		out = append(out, core.NewSuggestion(c.text, c.score, c.freq))
	}
	return out
}

// gramSizes returns the n-gram sizes used for a word of the given length.
func gramSizes(length int) (lo, hi int) {
	switch {
	case length > 5:
		return 3, 4
	case length == 5:
		return 2, 3
	default:
		return 1, 2
	}
}

// grams returns the size-long rune n-grams of word in order.
func grams(word string, size int) []string {
	runes := []rune(word)
	if size < 1 || len(runes) < size {
		return nil
	}
	out := make([]string, 0, len(runes)-size+1)
	for i := 0; i+size <= len(runes); i++ {
		out = append(out, string(runes[i:i+size]))
	}
	return out
}

// similarity is 1 - distance/max(len(a), len(b)).
func similarity(d core.EditDistance, a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(d.Distance(a, b))/float64(longest)
}
