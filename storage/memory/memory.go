// Package memory provides map-backed repositories for tests and for running
// without a persistent store.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/storage"
)

// DictionaryRepository keeps suggestion lists in a map.
// Lists are cloned on the way in and out so callers never share state.
type DictionaryRepository struct {
	mu     sync.RWMutex
	lists  map[string]*core.SuggestionList
	closed bool
}

var _ storage.DictionaryRepository = (*DictionaryRepository)(nil)

// NewDictionaryRepository creates an empty DictionaryRepository.
func NewDictionaryRepository() *DictionaryRepository {
	return &DictionaryRepository{lists: make(map[string]*core.SuggestionList)}
}

// Close marks the repository closed. Later calls fail with storage.ErrStorageClosed.
func (r *DictionaryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// GetList returns a copy of the list stored under key, or nil if there is none.
func (r *DictionaryRepository) GetList(ctx context.Context, key string) (*core.SuggestionList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, storage.ErrStorageClosed
	}
	list, ok := r.lists[key]
	if !ok {
		return nil, nil
	}
	return list.Clone(), nil
}

// PutList validates list and stores a copy of it.
func (r *DictionaryRepository) PutList(ctx context.Context, list *core.SuggestionList) error {
	if err := core.ValidateSuggestionList(list); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return storage.ErrStorageClosed
	}
	r.lists[list.Key] = list.Clone()
	return nil
}

// DeleteList removes the list stored under key. Missing keys are ignored.
func (r *DictionaryRepository) DeleteList(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return storage.ErrStorageClosed
	}
	delete(r.lists, key)
	return nil
}

// Size returns the number of stored lists.
func (r *DictionaryRepository) Size(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return 0, storage.ErrStorageClosed
	}
	return len(r.lists), nil
}

// ForEachList visits lists in key order. fn runs without the lock held, so
// it may write back to the repository.
func (r *DictionaryRepository) ForEachList(ctx context.Context, fn func(*core.SuggestionList) error) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return storage.ErrStorageClosed
	}
	keys := make([]string, 0, len(r.lists))
	for k := range r.lists {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	slices.Sort(keys)

	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		list, err := r.GetList(ctx, k)
		if err != nil {
			return err
		}
		if list == nil {
			continue
		}
		if err := fn(list); err != nil {
			if err == storage.ErrStopIteration {
				return nil
			}
			return err
		}
	}
	return nil
}

// SessionRepository keeps query sessions in a map.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*core.QuerySession
	closed   bool
}

var _ storage.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates an empty SessionRepository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*core.QuerySession)}
}

// Close marks the repository closed. Later calls fail with storage.ErrStorageClosed.
func (r *SessionRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// GetSession returns a copy of the session with id.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*core.QuerySession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, storage.ErrStorageClosed
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %q", storage.ErrNotFound, id)
	}
	return s.Clone(), nil
}

// PutSession validates session and stores a copy of it.
func (r *SessionRepository) PutSession(ctx context.Context, session *core.QuerySession) error {
	if err := core.ValidateSession(session); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return storage.ErrStorageClosed
	}
	r.sessions[session.ID] = session.Clone()
	return nil
}

// RemoveSession deletes the session with id.
func (r *SessionRepository) RemoveSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return storage.ErrStorageClosed
	}
	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("%w: session %q", storage.ErrNotFound, id)
	}
	delete(r.sessions, id)
	return nil
}

// ForEachSession visits copies of every session in id order.
func (r *SessionRepository) ForEachSession(ctx context.Context, fn func(*core.QuerySession) error) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return storage.ErrStorageClosed
	}
	snapshot := make([]*core.QuerySession, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s.Clone())
	}
	r.mu.RUnlock()
	slices.SortFunc(snapshot, func(a, b *core.QuerySession) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	for _, s := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(s); err != nil {
			if err == storage.ErrStopIteration {
				return nil
			}
			return err
		}
	}
	return nil
}

// CountSessions returns the number of stored sessions.
func (r *SessionRepository) CountSessions(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return 0, storage.ErrStorageClosed
	}
	return len(r.sessions), nil
}
