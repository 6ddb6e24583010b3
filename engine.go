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


package didyoumean

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/didyoumean/config"
	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/dictionary"
	"github.com/poiesic/didyoumean/secondlevel"
	"github.com/poiesic/didyoumean/session"
	"github.com/poiesic/didyoumean/storage"
	"github.com/poiesic/didyoumean/storage/badger"
	"github.com/poiesic/didyoumean/storage/memory"
	"github.com/poiesic/didyoumean/suggest"
	"github.com/poiesic/didyoumean/training"
)

var (
	// ErrSessionRequired is returned when a nil session is trained.
	ErrSessionRequired = errors.New("session is required")

	// ErrNodeRequired is returned when a nil query tree is trained.
	ErrNodeRequired = errors.New("query goal node is required")
)

// Engine wires a dictionary, a session store, the suggester, the trainer and
// the second-level corpus factory into one facade.
type Engine struct {
	config    *config.Config
	backend   *badger.Backend
	dict      *dictionary.Dictionary
	sessions  *session.Manager
	suggester *suggest.DefaultSuggester
	pool      *training.Pool
	corpus    *secondlevel.CorpusFactory
	logger    *slog.Logger
}

// Stats summarizes the state of an engine's stores.
type Stats struct {
	DictionarySize        int
	Sessions              int
	ExpiredSessions       int
	SecondLevelSuggesters int
	SecondLevelDocuments  int
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	logger   *slog.Logger
	clock    func() time.Time
	progress io.Writer
}

// WithLogger sets a custom logger for the engine and everything it creates.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithClock replaces the time source used for session expiry.
func WithClock(now func() time.Time) EngineOption {
	return func(o *engineOptions) {
		o.clock = now
	}
}

// WithTrainingProgress reports training progress to w.
func WithTrainingProgress(w io.Writer) EngineOption {
	return func(o *engineOptions) {
		o.progress = w
	}
}

// NewEngine opens the store named by cfg and wires the components. A nil
// cfg uses config.DefaultConfig().
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	e := &Engine{config: cfg, logger: logger.With("component", "engine")}

	dictRepo, sessionRepo, err := e.openStorage()
	if err != nil {
		return nil, err
	}

	e.dict, err = dictionary.New(dictRepo, dictionary.WithLogger(logger))
	if err != nil {
		e.closeBackend()
		return nil, err
	}

	e.sessions, err = session.NewManager(sessionRepo,
		session.WithExpiration(cfg.SessionExpiration()),
		session.WithClock(options.clock),
		session.WithLogger(logger))
	if err != nil {
		e.closeBackend()
		return nil, err
	}

	e.suggester, err = suggest.NewSuggester(cfg.ForSuggester(), suggest.WithLogger(logger))
	if err != nil {
		e.closeBackend()
		return nil, err
	}

	trainer := training.NewTrainer(cfg.ForTrainer(), training.WithTrainerLogger(logger))
	extractor := session.NewExtractor(cfg.ForExtractor(), nil)
	poolOpts := []training.Option{
		training.WithPoolSize(cfg.Training.Threads),
		training.WithLogger(logger),
	}
	if options.progress != nil {
		poolOpts = append(poolOpts, training.WithProgress(options.progress))
	}
	e.pool, err = training.NewPool(e.sessions, e.dict, trainer, extractor, poolOpts...)
	if err != nil {
		e.closeBackend()
		return nil, err
	}

	e.corpus, err = secondlevel.NewCorpusFactory(e.suggester, cfg.ForSecondLevel(), secondlevel.WithFactoryLogger(logger))
	if err != nil {
		e.closeBackend()
		return nil, err
	}

	e.logger.Debug("engine opened", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path)
	return e, nil
}

func (e *Engine) openStorage() (storage.DictionaryRepository, storage.SessionRepository, error) {
	if e.config.Storage.Backend == config.BackendMemory {
		return memory.NewDictionaryRepository(), memory.NewSessionRepository(), nil
	}
	backend, err := badger.OpenBackend(e.config.Storage.Path, e.config.Storage.InMemory)
	if err != nil {
		return nil, nil, err
	}
	e.backend = backend
	return badger.NewDictionaryRepository(backend), badger.NewSessionRepository(backend), nil
}

func (e *Engine) closeBackend() {
	if e.backend == nil {
		return
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
	}
}

// Close releases the stores.
func (e *Engine) Close() error {
	if err := e.sessions.Close(); err != nil {
		e.logger.Error("error closing session repository", "err", err)
		return err
	}
	if err := e.dict.Close(); err != nil {
		e.logger.Error("error closing dictionary repository", "err", err)
		return err
	}
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	return nil
}

func (e *Engine) Config() *config.Config {
	return e.config
}

func (e *Engine) Dictionary() *dictionary.Dictionary {
	return e.dict
}

func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

func (e *Engine) Suggester() *suggest.DefaultSuggester {
	return e.suggester
}

// Corpus returns the last installed second-level corpus, or nil.
func (e *Engine) Corpus() *secondlevel.Corpus {
	return e.corpus.Current()
}

// DidYouMean returns the best correction for query, or "" when there is none.
func (e *Engine) DidYouMean(ctx context.Context, query string) (string, error) {
	return e.suggester.DidYouMeanOne(ctx, e.dict, query)
}

// DidYouMeanN returns up to n corrections for query, best first.
func (e *Engine) DidYouMeanN(ctx context.Context, query string, n int) ([]core.Suggestion, error) {
	return e.suggester.DidYouMean(ctx, e.dict, query, n)
}

// DidYouMeanWithMonitor is DidYouMeanN with every suggester stage reported
// to monitor.
func (e *Engine) DidYouMeanWithMonitor(ctx context.Context, query string, n int, monitor suggest.Monitor) ([]core.Suggestion, error) {
	return e.suggester.DidYouMeanWithMonitor(ctx, e.dict, query, n, monitor)
}

// TrainSession trains the dictionary from one session. The session is not
// modified or removed.
func (e *Engine) TrainSession(ctx context.Context, s *core.QuerySession) error {
	if s == nil {
		return ErrSessionRequired
	}
	return e.pool.TrainSession(ctx, s)
}

// TrainSessionQueryTree trains the whole tree that node belongs to.
// The tree is split into goals in place.
func (e *Engine) TrainSessionQueryTree(ctx context.Context, node *core.QueryGoalNode) error {
	if node == nil {
		return ErrNodeRequired
	}
	return e.pool.TrainQueryTree(ctx, node.Root())
}

// TrainExpiredQuerySessions trains and removes every expired session. A
// non-positive maxThreads or batchSize takes the configured value.
func (e *Engine) TrainExpiredQuerySessions(ctx context.Context, maxThreads, batchSize int) (training.Stats, error) {
	if maxThreads < 1 {
		maxThreads = e.config.Training.Threads
	}
	if batchSize < 1 {
		batchSize = e.config.Training.BatchSize
	}
	return e.pool.TrainExpiredQuerySessions(ctx, maxThreads, batchSize)
}

// BuildSecondLevelSuggesters rebuilds the a-priori corpus from the
// dictionary and installs its suggesters. When system is not nil a
// multi-token suggester over it is installed too. On error the previously
// installed suggesters stay in place.
func (e *Engine) BuildSecondLevelSuggesters(ctx context.Context, system *secondlevel.Index) (*secondlevel.Corpus, error) {
	return e.corpus.Install(ctx, e.dict, system)
}

// Prune truncates every dictionary list to maxSize suggestions.
func (e *Engine) Prune(ctx context.Context, maxSize int) (int, error) {
	return e.dict.Prune(ctx, maxSize)
}

// Optimize resolves suggestion chains in the dictionary.
func (e *Engine) Optimize(ctx context.Context) (int, error) {
	return e.dict.Optimize(ctx)
}

// Stats reports store sizes.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	var err error
	if stats.DictionarySize, err = e.dict.Size(ctx); err != nil {
		return stats, err
	}
	if stats.Sessions, err = e.sessions.Count(ctx); err != nil {
		return stats, err
	}
	if stats.ExpiredSessions, err = e.sessions.CountExpired(ctx); err != nil {
		return stats, err
	}
	stats.SecondLevelSuggesters = len(e.dict.SecondLevelSuggesters())
	if corpus := e.corpus.Current(); corpus != nil {
		stats.SecondLevelDocuments = corpus.Index.Len()
	}
	return stats, nil
}
