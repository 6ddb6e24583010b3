package secondlevel

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/dictionary"
)

// PhraseConfig holds the phrase suggester settings.
type PhraseConfig struct {
	// MaxPerToken is how many replacements are tried for each token. A
	// phrase of t tokens costs up to MaxPerToken^t corpus queries.
	MaxPerToken int

	// Slop is how many extra positions a proximity match may span.
	Slop int

	// InOrder requires the corpus to contain the tokens in typed order.
	InOrder bool

	// MorePopularOnly only replaces a token with more frequent corpus terms.
	MorePopularOnly bool
}

// DefaultPhraseConfig returns the standard phrase suggester settings.
func DefaultPhraseConfig() PhraseConfig {
	return PhraseConfig{
		MaxPerToken: 3,
		Slop:        5,
	}
}

type matchMode int

const (
	// matchNear requires the tokens within the slop of each other.
	matchNear matchMode = iota
	// matchConjunction requires the tokens anywhere in one document.
	matchConjunction
)

// PhraseSuggester corrects a phrase token by token. Every combination of
// token replacements is checked against the corpus index, and combinations
// that occur there are ranked by their summed token scores times the number
// of matching documents.
type PhraseSuggester struct {
	index       *Index
	tokens      TokenSuggester
	config      PhraseConfig
	mode        matchMode
	reorder     bool
	persistable bool
	suggestable func(phrase, query string) bool
	logger      *slog.Logger
}

var _ dictionary.SecondLevelSuggester = (*PhraseSuggester)(nil)

// PhraseOption configures a PhraseSuggester.
type PhraseOption func(*PhraseSuggester)

// WithSuggestablePhrase sets a filter consulted before a candidate phrase
// is looked up. Phrases it rejects are skipped.
func WithSuggestablePhrase(fn func(phrase, query string) bool) PhraseOption {
	return func(s *PhraseSuggester) {
		s.suggestable = fn
	}
}

// WithPhraseLogger sets a custom logger.
// Default is slog.Default().
func WithPhraseLogger(logger *slog.Logger) PhraseOption {
	return func(s *PhraseSuggester) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewPhraseSuggester creates the primary phrase suggester. Candidates must
// occur near each other in one document, and a match in a document with
// stored vectors restores the corpus word order. Its results may be stored
// in the dictionary.
func NewPhraseSuggester(index *Index, tokens TokenSuggester, config PhraseConfig, opts ...PhraseOption) (*PhraseSuggester, error) {
	return newPhraseSuggester(index, tokens, config, matchNear, true, true, "phrase", opts)
}

// NewMultiTokenSuggester creates a phrase suggester that only requires the
// candidates somewhere in the same document. It keeps the typed order and
// its results are never stored.
func NewMultiTokenSuggester(index *Index, tokens TokenSuggester, config PhraseConfig, opts ...PhraseOption) (*PhraseSuggester, error) {
	return newPhraseSuggester(index, tokens, config, matchConjunction, false, false, "multi_token", opts)
}

func newPhraseSuggester(index *Index, tokens TokenSuggester, config PhraseConfig, mode matchMode, reorder, persistable bool, kind string, opts []PhraseOption) (*PhraseSuggester, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if tokens == nil {
		return nil, ErrTokenSuggesterRequired
	}
	if config.MaxPerToken < 1 {
		return nil, fmt.Errorf("%w: max per token %d", ErrInvalidConfig, config.MaxPerToken)
	}
	if config.Slop < 0 {
		return nil, fmt.Errorf("%w: slop %d", ErrInvalidConfig, config.Slop)
	}

	s := &PhraseSuggester{
		index:       index,
		tokens:      tokens,
		config:      config,
		mode:        mode,
		reorder:     reorder,
		persistable: persistable,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "secondlevel", "suggester", kind)
	return s, nil
}

// Persistable implements dictionary.SecondLevelSuggester.
func (s *PhraseSuggester) Persistable() bool {
	return s.persistable
}

// Suggest implements dictionary.SecondLevelSuggester.
func (s *PhraseSuggester) Suggest(ctx context.Context, query string, n int) ([]core.Suggestion, error) {
	queue, err := s.SuggestQueue(ctx, query, n, s.config.MaxPerToken, s.config.MorePopularOnly)
	if err != nil {
		return nil, err
	}
	return queue.Drain(), nil
}

// DidYouMean returns the best phrase for query, or "" when nothing in the
// corpus matches.
func (s *PhraseSuggester) DidYouMean(ctx context.Context, query string) (string, error) {
	queue, err := s.SuggestQueue(ctx, query, 1, s.config.MaxPerToken, s.config.MorePopularOnly)
	if err != nil {
		return "", err
	}
	best, ok := queue.Best()
	if !ok {
		return "", nil
	}
	return best.Text, nil
}

// SuggestQueue returns a queue of at most maxSuggestions phrases for query.
func (s *PhraseSuggester) SuggestQueue(ctx context.Context, query string, maxSuggestions, maxPerToken int, morePopularOnly bool) (*core.SuggestionQueue, error) {
	start := time.Now()
	queue := core.NewSuggestionQueue(maxSuggestions)

	tokens := s.index.Analyzer().Analyze(query)
	if len(tokens) == 0 {
		return queue, nil
	}

	matrix := make([][]core.Suggestion, len(tokens))
	radices := make([]int, len(tokens))
	for i, tok := range tokens {
		candidates := s.tokens.SuggestToken(tok, maxPerToken, true, morePopularOnly)
		if len(candidates) == 0 {
			candidates = []core.Suggestion{core.NewSuggestion(tok, 0, core.UnknownHits)}
		}
		matrix[i] = candidates
		radices[i] = len(candidates)
	}

	best := make(map[string]core.Suggestion)
	var order []string
	queries := 0
	picks := make([]core.Suggestion, len(tokens))
	terms := make([]string, len(tokens))

	for combination := range Combinations(radices) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, c := range combination {
			picks[i] = matrix[i][c]
			terms[i] = picks[i].Text
		}
		if s.suggestable != nil && !s.suggestable(strings.Join(terms, " "), query) {
			continue
		}

		queries++
		phrase, hits := s.lookup(picks, terms)
		if hits == 0 {
			continue
		}

		score := 0.0
		for _, p := range picks {
			score += p.Score
		}
		score *= float64(hits)

		prev, seen := best[phrase]
		if !seen {
			order = append(order, phrase)
		}
		if !seen || score > prev.Score {
			best[phrase] = core.NewSuggestion(phrase, score, hits)
		}
	}

	for _, phrase := range order {
		queue.InsertWithOverflow(best[phrase])
	}

	s.logger.Debug("phrase search",
		"query", query,
		"tokens", len(tokens),
		"queries", queries,
		"matches", len(order),
		"elapsed", time.Since(start))
	return queue, nil
}

// lookup queries the index for one combination and returns the phrase to
// suggest with its hit count.
func (s *PhraseSuggester) lookup(picks []core.Suggestion, terms []string) (string, int) {
	if s.mode == matchConjunction {
		return strings.Join(terms, " "), len(s.index.Conjunction(terms))
	}

	matches := s.index.Near(terms, s.config.Slop, s.config.InOrder)
	if len(matches) == 0 {
		return "", 0
	}
	if !s.reorder {
		return strings.Join(terms, " "), len(matches)
	}

	for _, m := range matches {
		if !s.index.HasVectors(m.Doc) {
			continue
		}
		return corpusOrder(picks, m.Positions), len(matches)
	}
	return strings.Join(terms, " "), len(matches)
}

// corpusOrder joins the picks in the order of their matched positions.
func corpusOrder(picks []core.Suggestion, positions []int) string {
	idx := make([]int, len(picks))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return positions[a] - positions[b]
	})
	words := make([]string, len(idx))
	for i, j := range idx {
		words[i] = picks[j].Text
	}
	return strings.Join(words, " ")
}
