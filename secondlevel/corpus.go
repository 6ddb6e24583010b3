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


package secondlevel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/didyoumean/dictionary"
	"github.com/poiesic/didyoumean/metrics"
	"golang.org/x/sync/singleflight"
)

// Corrector answers the single best suggestion for a query.
type Corrector interface {
	DidYouMeanOne(ctx context.Context, dict *dictionary.Dictionary, query string) (string, error)
}

// Config holds the second-level settings.
type Config struct {
	Phrase PhraseConfig
	Token  TokenConfig

	// PhraseWeight is the blend weight of the primary phrase suggester.
	PhraseWeight float64

	// MultiTokenWeight is the blend weight of the system index suggester.
	MultiTokenWeight float64
}

// DefaultConfig returns the standard second-level settings.
func DefaultConfig() Config {
	return Config{
		Phrase:           DefaultPhraseConfig(),
		Token:            DefaultTokenConfig(),
		PhraseWeight:     3.0,
		MultiTokenWeight: 1.0,
	}
}

// Corpus is one generation of second-level suggesters.
type Corpus struct {
	// Index holds the a-priori documents mined from the dictionary.
	Index  *Index
	Phrase *PhraseSuggester

	// MultiToken is nil when no system index was supplied.
	MultiToken *PhraseSuggester
}

// CorpusFactory mines the dictionary for text known to be spelled right and
// builds the second-level suggesters over it.
type CorpusFactory struct {
	corrector Corrector
	config    Config
	logger    *slog.Logger

	builds singleflight.Group

	mu      sync.RWMutex
	current *Corpus
}

// FactoryOption configures a CorpusFactory.
type FactoryOption func(*CorpusFactory)

// WithFactoryLogger sets a custom logger.
// Default is slog.Default().
func WithFactoryLogger(logger *slog.Logger) FactoryOption {
	return func(f *CorpusFactory) {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
	}
}

// NewCorpusFactory creates a factory that checks candidate documents with corrector.
func NewCorpusFactory(corrector Corrector, config Config, opts ...FactoryOption) (*CorpusFactory, error) {
	if corrector == nil {
		return nil, ErrCorrectorRequired
	}
	if config.PhraseWeight <= 0 || config.MultiTokenWeight <= 0 {
		return nil, fmt.Errorf("%w: weights must be positive", ErrInvalidConfig)
	}
	f := &CorpusFactory{
		corrector: corrector,
		config:    config,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "corpus")
	return f, nil
}

// Current returns the last installed corpus, or nil.
func (f *CorpusFactory) Current() *Corpus {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// BuildIndex returns an index of every suggestion text that at least one
// other query is corrected to, and that the dictionary corrects to itself.
func (f *CorpusFactory) BuildIndex(ctx context.Context, dict *dictionary.Dictionary) (*Index, error) {
	inverted, err := dict.Inverted(ctx)
	if err != nil {
		return nil, err
	}

	index := NewIndex()
	for _, text := range slices.Sorted(maps.Keys(inverted)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if inverted[text].Len() <= 1 {
			continue
		}
		suggested, err := f.corrector.DidYouMeanOne(ctx, dict, text)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(suggested, text) {
			continue
		}
		if _, _, err := index.AddDocument(text, true); err != nil {
			if errors.Is(err, ErrEmptyDocument) {
				continue
			}
			return nil, err
		}
	}
	return index, nil
}

// Build creates a corpus from the dictionary. When system is not nil, a
// multi-token suggester over it is included.
func (f *CorpusFactory) Build(ctx context.Context, dict *dictionary.Dictionary, system *Index) (*Corpus, error) {
	index, err := f.BuildIndex(ctx, dict)
	if err != nil {
		return nil, err
	}

	tokens, err := NewNgramTokenSuggester(index, f.config.Token)
	if err != nil {
		return nil, err
	}
	phrase, err := NewPhraseSuggester(index, tokens, f.config.Phrase, WithPhraseLogger(f.logger))
	if err != nil {
		return nil, err
	}
	corpus := &Corpus{Index: index, Phrase: phrase}

	if system != nil {
		systemTokens, err := NewNgramTokenSuggester(system, f.config.Token)
		if err != nil {
			return nil, err
		}
		multiConfig := f.config.Phrase
		multiConfig.MorePopularOnly = true
		corpus.MultiToken, err = NewMultiTokenSuggester(system, systemTokens, multiConfig, WithPhraseLogger(f.logger))
		if err != nil {
			return nil, err
		}
	}
	return corpus, nil
}

// Install builds a corpus and registers its suggesters on dict, replacing
// the previous ones in one step. When the build fails the previous
// suggesters stay registered. Concurrent calls share one build.
func (f *CorpusFactory) Install(ctx context.Context, dict *dictionary.Dictionary, system *Index) (*Corpus, error) {
	v, err, _ := f.builds.Do(fmt.Sprintf("%p", dict), func() (any, error) {
		return f.install(ctx, dict, system)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Corpus), nil
}

func (f *CorpusFactory) install(ctx context.Context, dict *dictionary.Dictionary, system *Index) (*Corpus, error) {
	start := time.Now()
	corpus, err := f.Build(ctx, dict, system)
	if err != nil {
		metrics.RecordCorpusRebuild(metrics.StatusError, 0)
		f.logger.Error("error building corpus, keeping previous suggesters", "err", err)
		return nil, err
	}

	suggesters := []dictionary.WeightedSuggester{
		{Suggester: corpus.Phrase, Weight: f.config.PhraseWeight},
	}
	if corpus.MultiToken != nil {
		suggesters = append(suggesters, dictionary.WeightedSuggester{
			Suggester: corpus.MultiToken,
			Weight:    f.config.MultiTokenWeight,
		})
	}
	if err := dict.SetSecondLevelSuggesters(suggesters); err != nil {
		metrics.RecordCorpusRebuild(metrics.StatusError, 0)
		return nil, err
	}

	f.mu.Lock()
	f.current = corpus
	f.mu.Unlock()

	metrics.RecordCorpusRebuild(metrics.StatusSuccess, corpus.Index.Len())
	f.logger.Info("installed second-level suggesters",
		"documents", corpus.Index.Len(),
		"terms", corpus.Index.NumTerms(),
		"multi_token", corpus.MultiToken != nil,
		"elapsed", time.Since(start))
	return corpus, nil
}
