package dictionary

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/metrics"
	"github.com/poiesic/didyoumean/storage"
	"golang.org/x/sync/singleflight"
)

// SecondLevelSuggester produces corpus-derived suggestions for queries the
// dictionary has no trusted answer for.
type SecondLevelSuggester interface {
	// Suggest returns up to n suggestions, best first.
	Suggest(ctx context.Context, query string, n int) ([]core.Suggestion, error)

	// Persistable reports whether results may be written back to the dictionary.
	Persistable() bool
}

// WeightedSuggester pairs a second-level suggester with its blend weight.
type WeightedSuggester struct {
	Suggester SecondLevelSuggester
	Weight    float64
}

// Dictionary is the learned mapping from query keys to suggestion lists.
type Dictionary struct {
	repo         storage.DictionaryRepository
	keyFormatter core.KeyFormatter
	logger       *slog.Logger

	mu          sync.RWMutex
	secondLevel []WeightedSuggester

	lookups singleflight.Group
}

// Option configures a Dictionary.
type Option func(*Dictionary) error

// WithKeyFormatter replaces the key normalization.
// Default is core.FormatQueryKey.
func WithKeyFormatter(f core.KeyFormatter) Option {
	return func(d *Dictionary) error {
		if f != nil {
			d.keyFormatter = f
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dictionary) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// New creates a Dictionary backed by repo.
func New(repo storage.DictionaryRepository, opts ...Option) (*Dictionary, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	d := &Dictionary{
		repo:         repo,
		keyFormatter: core.FormatQueryKey,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	d.logger = d.logger.With("component", "dictionary")
	return d, nil
}

// FormatKey normalizes a raw query into a dictionary key.
func (d *Dictionary) FormatKey(query string) string {
	return d.keyFormatter(query)
}

// HasKey reports whether query normalizes to a usable key. Queries made
// only of punctuation and whitespace have no dictionary entry.
func (d *Dictionary) HasKey(query string) bool {
	return d.keyFormatter(query) != ""
}

// Get returns the suggestion list for query, or nil if there is none.
func (d *Dictionary) Get(ctx context.Context, query string) (*core.SuggestionList, error) {
	key := d.keyFormatter(query)
	if key == "" {
		return nil, nil
	}
	list, err := d.repo.GetList(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrQueryFailure, err)
	}
	return list, nil
}

// GetOrCreate returns the suggestion list for query, or a new empty list
// keyed for it. A new list is not stored until Put is called.
func (d *Dictionary) GetOrCreate(ctx context.Context, query string) (*core.SuggestionList, error) {
	list, err := d.Get(ctx, query)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = d.NewSuggestionList(query)
	}
	return list, nil
}

// NewSuggestionList creates an empty list keyed for query.
func (d *Dictionary) NewSuggestionList(query string) *core.SuggestionList {
	return core.NewSuggestionList(d.keyFormatter(query))
}

// Put stores list. Storing an unchanged list has no effect, and a list
// with an empty key is not stored.
func (d *Dictionary) Put(ctx context.Context, list *core.SuggestionList) error {
	if list != nil && list.Key == "" {
		d.logger.Debug("skipping list without key")
		return nil
	}
	if err := d.repo.PutList(ctx, list); err != nil {
		return fmt.Errorf("%w: %w", core.ErrQueryFailure, err)
	}
	return nil
}

// IsExistingSuggestion reports whether suggested is already a suggestion for query.
func (d *Dictionary) IsExistingSuggestion(ctx context.Context, query, suggested string) (bool, error) {
	list, err := d.Get(ctx, query)
	if err != nil {
		return false, err
	}
	return list != nil && list.Contains(suggested), nil
}

// Size returns the number of stored lists.
func (d *Dictionary) Size(ctx context.Context) (int, error) {
	n, err := d.repo.Size(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrQueryFailure, err)
	}
	return n, nil
}

// ForEach visits every stored list.
func (d *Dictionary) ForEach(ctx context.Context, fn func(*core.SuggestionList) error) error {
	if err := d.repo.ForEachList(ctx, fn); err != nil {
		return fmt.Errorf("%w: %w", core.ErrQueryFailure, err)
	}
	return nil
}

// Close releases the repository.
func (d *Dictionary) Close() error {
	return d.repo.Close()
}

// SecondLevelSuggesters returns a copy of the registered suggesters.
func (d *Dictionary) SecondLevelSuggesters() []WeightedSuggester {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.secondLevel)
}

// SetSecondLevelSuggesters replaces every registered suggester at once.
func (d *Dictionary) SetSecondLevelSuggesters(suggesters []WeightedSuggester) error {
	for _, ws := range suggesters {
		if err := validateWeighted(ws); err != nil {
			return err
		}
	}
	next := slices.Clone(suggesters)
	d.mu.Lock()
	d.secondLevel = next
	d.mu.Unlock()
	return nil
}

// RegisterSecondLevel adds one suggester to the registry.
func (d *Dictionary) RegisterSecondLevel(s SecondLevelSuggester, weight float64) error {
	ws := WeightedSuggester{Suggester: s, Weight: weight}
	if err := validateWeighted(ws); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.secondLevel = append(slices.Clone(d.secondLevel), ws)
	return nil
}

func validateWeighted(ws WeightedSuggester) error {
	if ws.Suggester == nil {
		return ErrSuggesterRequired
	}
	if ws.Weight <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidWeight, ws.Weight)
	}
	return nil
}

// SecondLevelSuggestion asks every registered suggester for up to n
// suggestions and blends the persistable ones: each text scores the sum of
// the weights of the suggesters that produced it. The best blended text is
// stored at score 1.0 when the query has no list yet, or added to the
// existing list when absent; entries already stored are never changed. The
// blended results are returned best first; nil means no suggester had an
// answer.
//
// Concurrent calls for the same key and n share one lookup. The shared
// lookup runs without the caller's cancellation, so one caller giving up
// does not fail the others.
func (d *Dictionary) SecondLevelSuggestion(ctx context.Context, query string, n int) ([]core.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		metrics.RecordSecondLevelLookup(metrics.ResultError)
		return nil, err
	}
	key := d.keyFormatter(query) + "\x00" + strconv.Itoa(n)
	ch := d.lookups.DoChan(key, func() (any, error) {
		return d.secondLevelSuggestion(context.WithoutCancel(ctx), query, n)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		metrics.RecordSecondLevelLookup(metrics.ResultError)
		return nil, ctx.Err()
	case res = <-ch:
	}
	v, err := res.Val, res.Err
	if err != nil {
		metrics.RecordSecondLevelLookup(metrics.ResultError)
		return nil, err
	}
	results := v.([]core.Suggestion)
	if len(results) == 0 {
		metrics.RecordSecondLevelLookup(metrics.ResultMiss)
		return nil, nil
	}
	metrics.RecordSecondLevelLookup(metrics.ResultHit)
	return slices.Clone(results), nil
}

func (d *Dictionary) secondLevelSuggestion(ctx context.Context, query string, n int) ([]core.Suggestion, error) {
	blended := make(map[string]*core.Suggestion)
	var order []string

	for _, ws := range d.SecondLevelSuggesters() {
		suggestions, err := ws.Suggester.Suggest(ctx, query, n)
		if err != nil {
			return nil, fmt.Errorf("%w: second-level suggest: %w", core.ErrQueryFailure, err)
		}
		if !ws.Suggester.Persistable() {
			continue
		}
		for i, s := range suggestions {
			if i >= n {
				break
			}
			b, ok := blended[s.Text]
			if !ok {
				b = &core.Suggestion{Text: s.Text, Hits: s.Hits}
				blended[s.Text] = b
				order = append(order, s.Text)
			}
			b.Score += ws.Weight
		}
	}

	if len(blended) == 0 {
		return nil, nil
	}

	results := make([]core.Suggestion, 0, len(order))
	for _, text := range order {
		results = append(results, *blended[text])
	}
	slices.SortStableFunc(results, core.Compare)

	if err := d.storeSecondLevel(ctx, query, results[0]); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Dictionary) storeSecondLevel(ctx context.Context, query string, best core.Suggestion) error {
	if !d.HasKey(query) {
		return nil
	}
	list, err := d.GetOrCreate(ctx, query)
	if err != nil {
		return err
	}
	if list.Contains(best.Text) {
		return nil
	}
	if err := list.AddSuggested(best.Text, 1.0, best.Hits); err != nil {
		return err
	}
	if err := d.Put(ctx, list); err != nil {
		return err
	}
	d.logger.Debug("stored second-level suggestion", "query", query, "suggestion", best.Text)
	return nil
}
