package badger

import (
	"context"
	"fmt"

	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/storage"
)

// SessionRepository implements storage.SessionRepository for BadgerDB.
type SessionRepository struct {
	backend *Backend
}

var _ storage.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(backend *Backend) *SessionRepository {
	return &SessionRepository{
		backend: backend,
	}
}

// Close releases resources. The backend is owned by the caller.
func (r *SessionRepository) Close() error {
	return nil
}

// GetSession retrieves a session by id.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*core.QuerySession, error) {
	var session *core.QuerySession
	found, err := r.backend.get(makeSessionKey(id), func(val []byte) error {
		var err error
		session, err = storage.UnmarshalSession(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: session %q", storage.ErrNotFound, id)
	}
	return session, nil
}

// PutSession stores a session.
func (r *SessionRepository) PutSession(ctx context.Context, session *core.QuerySession) error {
	if err := core.ValidateSession(session); err != nil {
		return err
	}
	value, err := storage.MarshalSession(session)
	if err != nil {
		return err
	}
	return r.backend.set(makeSessionKey(session.ID), value)
}

// RemoveSession deletes a session by id.
func (r *SessionRepository) RemoveSession(ctx context.Context, id string) error {
	found, err := r.backend.delete(makeSessionKey(id))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: session %q", storage.ErrNotFound, id)
	}
	return nil
}

// ForEachSession calls fn for every stored session.
func (r *SessionRepository) ForEachSession(ctx context.Context, fn func(*core.QuerySession) error) error {
	return r.backend.forEachPrefix([]byte(sessionPrefix), func(_, val []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		session, err := storage.UnmarshalSession(val)
		if err != nil {
			return err
		}
		return fn(session)
	})
}

// CountSessions returns the number of stored sessions.
func (r *SessionRepository) CountSessions(ctx context.Context) (int, error) {
	return r.backend.countPrefix([]byte(sessionPrefix))
}
