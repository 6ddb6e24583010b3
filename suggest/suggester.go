package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/dictionary"
	"github.com/poiesic/didyoumean/metrics"
)

// Suggester produces corrections for a query from a dictionary.
type Suggester interface {
	// DidYouMean returns up to n suggestions, best first.
	// An empty result means no correction is available.
	DidYouMean(ctx context.Context, dict *dictionary.Dictionary, query string, n int) ([]core.Suggestion, error)
}

// Config holds the DefaultSuggester tunables.
type Config struct {
	// SuppressionThreshold hides suggestions scoring at or below it. A list
	// whose best score is below it is topped up from the second level.
	SuppressionThreshold float64

	// NavigationCap bounds how many times navigation may adopt a nested
	// result before giving up and returning the original one.
	NavigationCap int

	// NestedHitsRatio is how many times more hits a nested suggestion needs
	// before navigation adopts it.
	NestedHitsRatio int

	// PromoteSimilarity is the minimum similarity to the new top entry a
	// more popular entry needs to be promoted to the front.
	PromoteSimilarity float64
}

// DefaultConfig returns the standard suggester settings.
func DefaultConfig() Config {
	return Config{
		SuppressionThreshold: 0.05,
		NavigationCap:        100,
		NestedHitsRatio:      3,
		PromoteSimilarity:    0.8,
	}
}

// secondLevelStep is the score gap between second-level entries merged
// into a suppressed list.
const secondLevelStep = 0.01

// DefaultSuggester is the dictionary-driven Suggester.
type DefaultSuggester struct {
	config   Config
	distance core.EditDistance
	logger   *slog.Logger
}

var _ Suggester = (*DefaultSuggester)(nil)

// Option configures a DefaultSuggester.
type Option func(*DefaultSuggester) error

// WithEditDistance sets the distance used to compare suggestions.
// Default is core.Levenshtein.
func WithEditDistance(d core.EditDistance) Option {
	return func(s *DefaultSuggester) error {
		if d != nil {
			s.distance = d
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *DefaultSuggester) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSuggester creates a DefaultSuggester.
func NewSuggester(config Config, opts ...Option) (*DefaultSuggester, error) {
	if config.SuppressionThreshold < 0 {
		return nil, fmt.Errorf("%w: negative suppression threshold %v", ErrInvalidConfig, config.SuppressionThreshold)
	}
	if config.NavigationCap < 1 {
		return nil, fmt.Errorf("%w: navigation cap %d", ErrInvalidConfig, config.NavigationCap)
	}
	if config.NestedHitsRatio < 1 {
		return nil, fmt.Errorf("%w: nested hits ratio %d", ErrInvalidConfig, config.NestedHitsRatio)
	}

	s := &DefaultSuggester{
		config:   config,
		distance: core.Levenshtein{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "suggester")
	return s, nil
}

// Config returns the suggester settings.
func (s *DefaultSuggester) Config() Config {
	return s.config
}

// DidYouMean returns up to n suggestions for query, best first.
func (s *DefaultSuggester) DidYouMean(ctx context.Context, dict *dictionary.Dictionary, query string, n int) ([]core.Suggestion, error) {
	return s.DidYouMeanWithMonitor(ctx, dict, query, n, nil)
}

// DidYouMeanOne returns the best suggestion for query, or "" when there is none.
func (s *DefaultSuggester) DidYouMeanOne(ctx context.Context, dict *dictionary.Dictionary, query string) (string, error) {
	results, err := s.DidYouMean(ctx, dict, query, 1)
	if err != nil || len(results) == 0 {
		return "", err
	}
	return results[0].Text, nil
}

// DidYouMeanWithMonitor is DidYouMean with callbacks at each stage.
func (s *DefaultSuggester) DidYouMeanWithMonitor(ctx context.Context, dict *dictionary.Dictionary, query string, n int, monitor Monitor) ([]core.Suggestion, error) {
	if dict == nil {
		return nil, ErrDictionaryRequired
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if n < 1 {
		n = 1
	}

	start := time.Now()
	monitor.Start(query, n)

	results, outcome, err := s.didYouMean(ctx, dict, query, n, monitor)
	if err != nil {
		metrics.RecordSuggestion(metrics.OutcomeError, time.Since(start).Seconds())
		s.logger.Error("error suggesting", "query", query, "err", err)
		return nil, err
	}
	if len(results) == 0 {
		outcome = metrics.OutcomeNone
	}
	metrics.RecordSuggestion(outcome, time.Since(start).Seconds())

	monitor.Finish(query, results)
	return results, nil
}

func (s *DefaultSuggester) didYouMean(ctx context.Context, dict *dictionary.Dictionary, query string, n int, monitor Monitor) ([]core.Suggestion, string, error) {
	if !dict.HasKey(query) {
		return nil, metrics.OutcomeNone, nil
	}
	list, err := s.gather(ctx, dict, query, n, monitor)
	if err != nil {
		return nil, "", err
	}
	if list.Len() == 0 {
		results, err := dict.SecondLevelSuggestion(ctx, query, n)
		if err != nil {
			return nil, "", err
		}
		monitor.SecondLevel(query, results)
		if len(results) > n {
			results = results[:n]
		}
		return results, metrics.OutcomeSecondLevel, nil
	}

	original := s.querySensitive(list, n, query)
	if len(original) == 0 {
		return nil, metrics.OutcomeNone, nil
	}

	current := original
	nested, err := s.nested(ctx, dict, current, n, monitor)
	if err != nil {
		return nil, "", err
	}

	steps := 0
	for s.hasBetter(nested, current) {
		steps++
		if steps > s.config.NavigationCap {
			s.logger.Warn("navigation cap reached, returning original suggestions",
				"query", query, "steps", steps-1)
			metrics.RecordNavigationAbort()
			monitor.NavigationAborted(query, steps-1)
			return original, metrics.OutcomeDictionary, nil
		}
		monitor.NavigationStep(steps, current, nested)
		current = nested
		nested, err = s.nested(ctx, dict, current, n, monitor)
		if err != nil {
			return nil, "", err
		}
	}

	return current, metrics.OutcomeDictionary, nil
}

// nested returns the query-sensitive suggestions for the top entry of current.
func (s *DefaultSuggester) nested(ctx context.Context, dict *dictionary.Dictionary, current []core.Suggestion, n int, monitor Monitor) ([]core.Suggestion, error) {
	text := current[0].Text
	list, err := s.gather(ctx, dict, text, n, monitor)
	if err != nil {
		return nil, err
	}
	return s.querySensitive(list, n, text), nil
}

// gather loads the stored list for query. When the best stored score is
// suppressed, second-level suggestions not yet in the list are merged in
// at descending scores below 1.0 and the list is stored again.
func (s *DefaultSuggester) gather(ctx context.Context, dict *dictionary.Dictionary, query string, n int, monitor Monitor) (*core.SuggestionList, error) {
	list, err := dict.Get(ctx, query)
	if err != nil {
		return nil, err
	}

	top, ok := list.Top()
	if ok && top.Score < s.config.SuppressionThreshold {
		extra, err := dict.SecondLevelSuggestion(ctx, query, n)
		if err != nil {
			return nil, err
		}
		monitor.SecondLevel(query, extra)

		score := 1.0
		changed := false
		for _, e := range extra {
			score -= secondLevelStep
			if list.Contains(e.Text) {
				continue
			}
			if err := list.AddSuggested(e.Text, score, e.Hits); err != nil {
				return nil, err
			}
			changed = true
		}
		if changed {
			if err := dict.Put(ctx, list); err != nil {
				return nil, err
			}
		}
	}

	monitor.Gathered(query, list)
	return list, nil
}

// querySensitive filters out suppressed entries and keeps the query itself
// from being the first suggestion. When the query was on top, the entries
// below the new top are searched for a more popular near-identical text,
// and the most popular of those moves to the front.
func (s *DefaultSuggester) querySensitive(list *core.SuggestionList, n int, query string) []core.Suggestion {
	if list.Len() == 0 {
		return nil
	}
	ret := list.Filter(func(e core.Suggestion) bool {
		return e.Score > s.config.SuppressionThreshold
	})

	if len(ret) > 1 && ret[0].Text == query {
		ret[0], ret[1] = ret[1], ret[0]

		best := -1
		for i := 2; i < len(ret); i++ {
			if ret[i].Hits <= ret[0].Hits {
				continue
			}
			if core.NormalizedSimilarity(s.distance, ret[0].Text, ret[i].Text) <= s.config.PromoteSimilarity {
				continue
			}
			if best < 0 || ret[i].Hits > ret[best].Hits {
				best = i
			}
		}
		if best > 0 {
			promoted := ret[best]
			ret = slices.Delete(ret, best, best+1)
			ret = slices.Insert(ret, 0, promoted)
		}
	}

	if len(ret) > n {
		ret = ret[:n]
	}
	return ret
}

// hasBetter reports whether the nested suggestions are clearly more
// popular than the current ones.
func (s *DefaultSuggester) hasBetter(nested, current []core.Suggestion) bool {
	if len(nested) == 0 || len(current) == 0 || !current[0].HasHits() {
		return false
	}
	cur, next := current[0].Hits, nested[0].Hits
	if cur == 0 && next > 0 {
		return true
	}
	return cur*s.config.NestedHitsRatio < next
}
