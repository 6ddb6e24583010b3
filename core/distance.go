package core

// EditDistance measures how many edits separate two strings.
type EditDistance interface {
	Distance(a, b string) int
}

// Levenshtein is the classic edit distance with unit cost for insertion,
// deletion and substitution. It compares runes, not bytes.
type Levenshtein struct{}

var _ EditDistance = Levenshtein{}

// Distance returns the Levenshtein distance between a and b.
func (Levenshtein) Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// NormalizedSimilarity returns 1 - distance/min(len(a), len(b)).
// The result is 1 for two empty strings and 0 when only one is empty.
// It can be negative when the distance exceeds the shorter length.
func NormalizedSimilarity(d EditDistance, a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	shortest := min(la, lb)
	if shortest == 0 {
		if la == lb {
			return 1
		}
		return 0
	}
	return 1 - float64(d.Distance(a, b))/float64(shortest)
}

// Similarity is NormalizedSimilarity using Levenshtein distance.
func Similarity(a, b string) float64 {
	return NormalizedSimilarity(Levenshtein{}, a, b)
}
