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


package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/secondlevel"
	"github.com/poiesic/didyoumean/session"
	"github.com/poiesic/didyoumean/suggest"
	"github.com/poiesic/didyoumean/training"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid config")

// Storage backends.
const (
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config holds every engine setting. The zero value is not usable; start
// from DefaultConfig, NewConfig or Load.
type Config struct {
	Session     SessionConfig     `toml:"session"`
	Extractor   ExtractorConfig   `toml:"extractor"`
	Trainer     TrainerConfig     `toml:"trainer"`
	Suggester   SuggesterConfig   `toml:"suggester"`
	SecondLevel SecondLevelConfig `toml:"secondlevel"`
	Storage     StorageConfig     `toml:"storage"`
	Training    TrainingConfig    `toml:"training"`
}

// SessionConfig holds session manager settings.
type SessionConfig struct {
	// ExpirationMS is how long a session may stay idle before it is trained.
	// Default: 600000
	ExpirationMS int64 `toml:"expiration_ms"`
}

// ExtractorConfig holds goal extraction settings.
type ExtractorConfig struct {
	MinimumSimilarity           float64 `toml:"minimum_similarity"`
	MaximumTimeBetweenQueriesMS int64   `toml:"maximum_time_between_queries_ms"`
	InspectionWeightThreshold   float64 `toml:"inspection_weight_threshold"`
}

// TrainerConfig holds score adaptation settings. Scores never grow past
// core.MaxScore.
type TrainerConfig struct {
	AcceptedFactor             float64 `toml:"accepted_factor"`
	IgnoredFactor              float64 `toml:"ignored_factor"`
	NotSuggestedPositiveFactor float64 `toml:"not_suggested_positive_factor"`
	TrainFinalGoalAsSelf       bool    `toml:"train_final_goal_as_self"`
}

// SuggesterConfig holds serve-time settings.
type SuggesterConfig struct {
	SuppressionThreshold float64 `toml:"suppression_threshold"`
	NavigationCap        int     `toml:"navigation_cap"`
	NestedHitsRatio      int     `toml:"nested_hits_ratio"`
	PromoteSimilarity    float64 `toml:"promote_similarity"`
}

// SecondLevelConfig holds corpus suggester settings.
type SecondLevelConfig struct {
	MaxPerToken      int     `toml:"max_per_token"`
	Slop             int     `toml:"slop"`
	InOrder          bool    `toml:"in_order"`
	MorePopularOnly  bool    `toml:"more_popular_only"`
	PhraseWeight     float64 `toml:"phrase_weight"`
	MultiTokenWeight float64 `toml:"multi_token_weight"`
	MinWordLength    int     `toml:"min_word_length"`
	TokenAccuracy    float64 `toml:"token_accuracy"`
}

// StorageConfig selects and locates the backing store.
type StorageConfig struct {
	// Backend is "badger" or "memory".
	Backend string `toml:"backend"`

	// Path is the badger directory. Ignored when InMemory is set.
	Path string `toml:"path"`

	// InMemory runs badger without touching disk.
	InMemory bool `toml:"in_memory"`
}

// TrainingConfig holds worker pool settings.
type TrainingConfig struct {
	// Threads is the number of concurrent training workers.
	// Default: half the CPUs, at least 1
	Threads int `toml:"threads"`

	// BatchSize is how many expired sessions are queued at once.
	// Default: 10000
	BatchSize int `toml:"batch_size"`
}

// Option is a functional option for configuring a Config.
type Option func(*Config)

// WithStoragePath selects the badger backend at path.
func WithStoragePath(path string) Option {
	return func(c *Config) {
		c.Storage.Backend = BackendBadger
		c.Storage.Path = path
		c.Storage.InMemory = false
	}
}

// WithInMemoryStorage selects a store that is discarded on close.
func WithInMemoryStorage() Option {
	return func(c *Config) {
		c.Storage.Backend = BackendMemory
		c.Storage.Path = ""
	}
}

// WithSessionExpiration sets the session idle timeout.
func WithSessionExpiration(d time.Duration) Option {
	return func(c *Config) {
		c.Session.ExpirationMS = d.Milliseconds()
	}
}

// WithTrainingThreads sets the number of training workers.
func WithTrainingThreads(n int) Option {
	return func(c *Config) {
		c.Training.Threads = n
	}
}

// WithBatchSize sets the training batch size.
func WithBatchSize(n int) Option {
	return func(c *Config) {
		c.Training.BatchSize = n
	}
}

// WithNavigationCap sets the suggester navigation cap.
func WithNavigationCap(n int) Option {
	return func(c *Config) {
		c.Suggester.NavigationCap = n
	}
}

func defaultThreads() int {
	return max(runtime.NumCPU()/2, 1)
}

// DefaultConfig returns a Config with the standard settings and a badger
// store in ./didyoumean-data.
func DefaultConfig() *Config {
	extractor := session.DefaultExtractorConfig()
	trainer := training.DefaultConfig()
	suggester := suggest.DefaultConfig()
	second := secondlevel.DefaultConfig()

	return &Config{
		Session: SessionConfig{
			ExpirationMS: core.DefaultSessionExpiration.Milliseconds(),
		},
		Extractor: ExtractorConfig{
			MinimumSimilarity:           extractor.MinimumSimilarity,
			MaximumTimeBetweenQueriesMS: extractor.MaximumTimeBetweenQueries.Milliseconds(),
			InspectionWeightThreshold:   extractor.InspectionWeightThreshold,
		},
		Trainer: TrainerConfig{
			AcceptedFactor:             trainer.AcceptedFactor,
			IgnoredFactor:              trainer.IgnoredFactor,
			NotSuggestedPositiveFactor: trainer.NotSuggestedPositiveFactor,
			TrainFinalGoalAsSelf:       trainer.TrainFinalGoalAsSelf,
		},
		Suggester: SuggesterConfig{
			SuppressionThreshold: suggester.SuppressionThreshold,
			NavigationCap:        suggester.NavigationCap,
			NestedHitsRatio:      suggester.NestedHitsRatio,
			PromoteSimilarity:    suggester.PromoteSimilarity,
		},
		SecondLevel: SecondLevelConfig{
			MaxPerToken:      second.Phrase.MaxPerToken,
			Slop:             second.Phrase.Slop,
			InOrder:          second.Phrase.InOrder,
			MorePopularOnly:  second.Phrase.MorePopularOnly,
			PhraseWeight:     second.PhraseWeight,
			MultiTokenWeight: second.MultiTokenWeight,
			MinWordLength:    second.Token.MinWordLength,
			TokenAccuracy:    second.Token.Accuracy,
		},
		Storage: StorageConfig{
			Backend: BackendBadger,
			Path:    "didyoumean-data",
		},
		Training: TrainingConfig{
			Threads:   defaultThreads(),
			BatchSize: training.DefaultBatchSize,
		},
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithStoragePath("/var/lib/didyoumean"),
//	    WithSessionExpiration(5*time.Minute),
//	)
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Load reads a TOML file over the defaults. Settings missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadWithPriority loads the first of paths that exists. When none exists
// the defaults are returned with an empty source.
func LoadWithPriority(paths ...string) (cfg *Config, source string, err error) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err = Load(path)
		if err != nil {
			return nil, path, err
		}
		return cfg, path, nil
	}
	return DefaultConfig(), "", nil
}

// Normalize fills in degenerate values.
func (c *Config) Normalize() {
	if c.Training.Threads < 1 {
		c.Training.Threads = 1
	}
	if c.Training.BatchSize == 0 {
		c.Training.BatchSize = training.DefaultBatchSize
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendBadger
	}
}

// Validate checks that the configuration is usable.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch {
	case c.Session.ExpirationMS <= 0:
		return fmt.Errorf("%w: session expiration must be positive", ErrInvalidConfig)
	case c.Extractor.MinimumSimilarity < 0 || c.Extractor.MinimumSimilarity > 1:
		return fmt.Errorf("%w: extractor minimum similarity must be between 0 and 1", ErrInvalidConfig)
	case c.Extractor.MaximumTimeBetweenQueriesMS < 0:
		return fmt.Errorf("%w: extractor maximum time between queries must not be negative", ErrInvalidConfig)
	case c.Trainer.AcceptedFactor <= 0 || c.Trainer.IgnoredFactor <= 0 || c.Trainer.NotSuggestedPositiveFactor <= 0:
		return fmt.Errorf("%w: trainer factors must be positive", ErrInvalidConfig)
	case c.Suggester.SuppressionThreshold < 0:
		return fmt.Errorf("%w: suppression threshold must not be negative", ErrInvalidConfig)
	case c.Suggester.NavigationCap < 1:
		return fmt.Errorf("%w: navigation cap must be at least 1", ErrInvalidConfig)
	case c.Suggester.NestedHitsRatio < 1:
		return fmt.Errorf("%w: nested hits ratio must be at least 1", ErrInvalidConfig)
	case c.SecondLevel.MaxPerToken < 1:
		return fmt.Errorf("%w: max suggestions per token must be at least 1", ErrInvalidConfig)
	case c.SecondLevel.Slop < 0:
		return fmt.Errorf("%w: slop must not be negative", ErrInvalidConfig)
	case c.SecondLevel.PhraseWeight <= 0 || c.SecondLevel.MultiTokenWeight <= 0:
		return fmt.Errorf("%w: second-level weights must be positive", ErrInvalidConfig)
	case c.SecondLevel.TokenAccuracy < 0 || c.SecondLevel.TokenAccuracy > 1:
		return fmt.Errorf("%w: token accuracy must be between 0 and 1", ErrInvalidConfig)
	case c.Training.BatchSize < 1:
		return fmt.Errorf("%w: batch size must be at least 1", ErrInvalidConfig)
	}

	switch c.Storage.Backend {
	case BackendBadger:
		if c.Storage.Path == "" && !c.Storage.InMemory {
			return fmt.Errorf("%w: badger storage needs a path or in_memory", ErrInvalidConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	return nil
}

// SessionExpiration returns the session idle timeout.
func (c *Config) SessionExpiration() time.Duration {
	return time.Duration(c.Session.ExpirationMS) * time.Millisecond
}

// ForExtractor projects the extractor settings.
func (c *Config) ForExtractor() session.ExtractorConfig {
	return session.ExtractorConfig{
		MinimumSimilarity:         c.Extractor.MinimumSimilarity,
		MaximumTimeBetweenQueries: time.Duration(c.Extractor.MaximumTimeBetweenQueriesMS) * time.Millisecond,
		InspectionWeightThreshold: c.Extractor.InspectionWeightThreshold,
	}
}

// ForTrainer projects the trainer settings.
func (c *Config) ForTrainer() training.Config {
	return training.Config{
		AcceptedFactor:             c.Trainer.AcceptedFactor,
		IgnoredFactor:              c.Trainer.IgnoredFactor,
		NotSuggestedPositiveFactor: c.Trainer.NotSuggestedPositiveFactor,
		TrainFinalGoalAsSelf:       c.Trainer.TrainFinalGoalAsSelf,
	}
}

// ForSuggester projects the suggester settings.
func (c *Config) ForSuggester() suggest.Config {
	return suggest.Config{
		SuppressionThreshold: c.Suggester.SuppressionThreshold,
		NavigationCap:        c.Suggester.NavigationCap,
		NestedHitsRatio:      c.Suggester.NestedHitsRatio,
		PromoteSimilarity:    c.Suggester.PromoteSimilarity,
	}
}

// ForSecondLevel projects the corpus suggester settings.
func (c *Config) ForSecondLevel() secondlevel.Config {
	return secondlevel.Config{
		Phrase: secondlevel.PhraseConfig{
			MaxPerToken:     c.SecondLevel.MaxPerToken,
			Slop:            c.SecondLevel.Slop,
			InOrder:         c.SecondLevel.InOrder,
			MorePopularOnly: c.SecondLevel.MorePopularOnly,
		},
		Token: secondlevel.TokenConfig{
			MinWordLength: c.SecondLevel.MinWordLength,
			Accuracy:      c.SecondLevel.TokenAccuracy,
		},
		PhraseWeight:     c.SecondLevel.PhraseWeight,
		MultiTokenWeight: c.SecondLevel.MultiTokenWeight,
	}
}
