package training

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/dictionary"
	"github.com/poiesic/didyoumean/metrics"
	"github.com/poiesic/didyoumean/session"
)

// DefaultBatchSize is the number of expired sessions loaded per batch.
const DefaultBatchSize = 10000

// Stats summarizes one TrainExpiredQuerySessions call.
type Stats struct {
	Trained int
	Failed  int
	Batches int
}

// Pool trains expired sessions on a pool of workers.
//
// Workers for different sessions run in any order and may race on the same
// dictionary key; the last write wins.
type Pool struct {
	manager    *session.Manager
	dict       *dictionary.Dictionary
	trainer    Trainer
	extractor  session.GoalTreeExtractor
	poolSize   int
	maxRetries int
	retryDelay time.Duration
	progress   io.Writer
	logger     *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool) error

// WithPoolSize sets the default number of workers.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pool) error {
		if size < 1 {
			size = 1
		}
		p.poolSize = size
		return nil
	}
}

// WithRetry sets how removal of a trained session is retried.
// Default is 3 attempts starting at 100ms.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pool) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxRetries = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithProgress reports trained session counts to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pool) error {
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPool creates a training pool.
func NewPool(
	manager *session.Manager,
	dict *dictionary.Dictionary,
	trainer Trainer,
	extractor session.GoalTreeExtractor,
	opts ...Option,
) (*Pool, error) {
	if manager == nil {
		return nil, ErrManagerRequired
	}
	if dict == nil {
		return nil, ErrDictionaryRequired
	}
	if trainer == nil {
		return nil, ErrTrainerRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	p := &Pool{
		manager:    manager,
		dict:       dict,
		trainer:    trainer,
		extractor:  extractor,
		poolSize:   poolSize,
		maxRetries: 3,
		retryDelay: 100 * time.Millisecond,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "training-pool")
	return p, nil
}

// PoolSize returns the default number of workers.
func (p *Pool) PoolSize() int {
	return p.poolSize
}

// TrainSession extracts the goal trees of s and trains each of them.
// s itself is not modified.
func (p *Pool) TrainSession(ctx context.Context, s *core.QuerySession) error {
	if s.Len() == 0 {
		return nil
	}
	return p.TrainQueryTree(ctx, s.Clone().Root())
}

// TrainQueryTree extracts the goal trees under root and trains each of them.
// The tree is split in place.
func (p *Pool) TrainQueryTree(ctx context.Context, root *core.QueryGoalNode) error {
	for _, goal := range p.extractor.ExtractGoalRoots(root) {
		if err := p.trainer.TrainGoalTree(ctx, p.dict, goal); err != nil {
			return err
		}
	}
	return nil
}

// TrainExpiredQuerySessions trains and removes expired sessions until none
// are left. Each round loads up to batchSize sessions into a shared queue
// that maxThreads workers drain. A non-positive maxThreads uses the pool
// size and a non-positive batchSize uses DefaultBatchSize.
//
// A session that fails is logged and left in the store; it is not retried
// again within this call.
func (p *Pool) TrainExpiredQuerySessions(ctx context.Context, maxThreads, batchSize int) (Stats, error) {
	if maxThreads < 1 {
		maxThreads = p.poolSize
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	workers, err := ants.NewPool(maxThreads)
	if err != nil {
		return Stats{}, err
	}
	defer workers.Release()

	var tracker *ProgressTracker
	if p.progress != nil {
		total, err := p.manager.CountExpired(ctx)
		if err != nil {
			return Stats{}, err
		}
		tracker = NewProgressTracker(p.progress, total, max(1, total/100))
		tracker.Start()
		defer tracker.Finish()
	}

	var (
		stats  Stats
		mu     sync.Mutex
		failed = make(map[string]bool)
	)
	skip := func(id string) bool {
		mu.Lock()
		defer mu.Unlock()
		return failed[id]
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		start := time.Now()
		batch, err := p.manager.Expired(ctx, batchSize, skip)
		if err != nil {
			return stats, err
		}
		if len(batch) == 0 {
			break
		}

		queue := make(chan *core.QuerySession, len(batch))
		for _, s := range batch {
			queue <- s
		}
		close(queue)

		var wg sync.WaitGroup
		var trained, failures int
		for range min(maxThreads, len(batch)) {
			wg.Add(1)
			err := workers.Submit(func() {
				defer wg.Done()
				for s := range queue {
					if err := p.trainAndRemove(ctx, s); err != nil {
						p.logger.Error("failed to train session", "session", s.ID, "err", err)
						metrics.RecordSessionTrained(metrics.StatusError)
						mu.Lock()
						failed[s.ID] = true
						failures++
						mu.Unlock()
						continue
					}
					metrics.RecordSessionTrained(metrics.StatusSuccess)
					mu.Lock()
					trained++
					mu.Unlock()
					if tracker != nil {
						tracker.Increment(1)
					}
				}
			})
			if err != nil {
				wg.Done()
				wg.Wait()
				return stats, fmt.Errorf("submit training worker: %w", err)
			}
		}
		wg.Wait()

		stats.Batches++
		stats.Trained += trained
		stats.Failed += failures
		metrics.RecordBatchDuration(time.Since(start).Seconds())
		p.logger.Info("trained batch", "batch", stats.Batches, "trained", trained, "failed", failures)
	}

	return stats, nil
}

func (p *Pool) trainAndRemove(ctx context.Context, s *core.QuerySession) error {
	if err := p.TrainSession(ctx, s); err != nil {
		return err
	}
	return RetryWithBackoff(ctx, func() error {
		return p.manager.Remove(ctx, s.ID)
	}, p.maxRetries, p.retryDelay)
}
