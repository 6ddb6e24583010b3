package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/storage"
)

// Manager owns in-flight query sessions until they expire and are trained.
type Manager struct {
	repo       storage.SessionRepository
	expiration time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager) error

// WithExpiration sets the idle time after which new sessions expire.
// Default is core.DefaultSessionExpiration.
func WithExpiration(d time.Duration) Option {
	return func(m *Manager) error {
		if d > 0 {
			m.expiration = d
		}
		return nil
	}
}

// WithClock replaces the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) error {
		if now != nil {
			m.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewManager creates a Manager backed by repo.
func NewManager(repo storage.SessionRepository, opts ...Option) (*Manager, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	m := &Manager{
		repo:       repo,
		expiration: core.DefaultSessionExpiration,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	m.logger = m.logger.With("component", "session-manager")
	return m, nil
}

// Expiration returns the expiration given to new sessions.
func (m *Manager) Expiration() time.Duration {
	return m.expiration
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.now()
}

// NewSession creates and stores an empty session. An empty id is replaced
// by a random UUID.
func (m *Manager) NewSession(ctx context.Context, id string) (*core.QuerySession, error) {
	if id == "" {
		id = uuid.NewString()
	}
	s := core.NewQuerySession(id, m.expiration)
	s.Touch(m.now())
	if err := m.Put(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Put stores a session, replacing any previous version.
func (m *Manager) Put(ctx context.Context, s *core.QuerySession) error {
	if err := m.repo.PutSession(ctx, s); err != nil {
		return fmt.Errorf("%w: %w", core.ErrSessionFailure, err)
	}
	return nil
}

// Get loads a session. A missing session is reported with storage.ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*core.QuerySession, error) {
	s, err := m.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrSessionFailure, err)
	}
	return s, nil
}

// Remove deletes a session.
func (m *Manager) Remove(ctx context.Context, id string) error {
	if err := m.repo.RemoveSession(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", core.ErrSessionFailure, err)
	}
	return nil
}

// Count returns the number of stored sessions.
func (m *Manager) Count(ctx context.Context) (int, error) {
	n, err := m.repo.CountSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrSessionFailure, err)
	}
	return n, nil
}

// Expired returns up to limit expired sessions for which skip returns false.
// A non-positive limit means no limit. skip may be nil.
func (m *Manager) Expired(ctx context.Context, limit int, skip func(id string) bool) ([]*core.QuerySession, error) {
	now := m.now()
	var expired []*core.QuerySession
	err := m.repo.ForEachSession(ctx, func(s *core.QuerySession) error {
		if !s.IsExpired(now) {
			return nil
		}
		if skip != nil && skip(s.ID) {
			return nil
		}
		expired = append(expired, s)
		if limit > 0 && len(expired) >= limit {
			return storage.ErrStopIteration
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrSessionFailure, err)
	}
	return expired, nil
}

// CountExpired returns the number of sessions that are currently expired.
func (m *Manager) CountExpired(ctx context.Context) (int, error) {
	now := m.now()
	count := 0
	err := m.repo.ForEachSession(ctx, func(s *core.QuerySession) error {
		if s.IsExpired(now) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrSessionFailure, err)
	}
	return count, nil
}

// Close releases the repository.
func (m *Manager) Close() error {
	return m.repo.Close()
}
