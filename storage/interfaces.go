package storage

import (
	"context"

	"github.com/poiesic/didyoumean/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// DictionaryRepository stores suggestion lists by normalized query key.
// Keys are used exactly as given; normalization is the caller's job.
type DictionaryRepository interface {
	Repository

	// GetList retrieves the list stored under key.
	// Returns nil, nil when no list exists.
	GetList(ctx context.Context, key string) (*core.SuggestionList, error)

	// PutList stores the list under list.Key, replacing any previous value.
	// Storing an unchanged list is a no-op.
	PutList(ctx context.Context, list *core.SuggestionList) error

	// DeleteList removes the list stored under key.
	// Deleting a missing key is not an error.
	DeleteList(ctx context.Context, key string) error

	// Size returns the number of stored lists.
	Size(ctx context.Context) (int, error)

	// ForEachList calls fn for every stored list in key order.
	// Iteration stops at the first error; ErrStopIteration ends it cleanly.
	ForEachList(ctx context.Context, fn func(*core.SuggestionList) error) error
}

// SessionRepository stores query sessions by id.
type SessionRepository interface {
	Repository

	// GetSession retrieves a session.
	// Returns ErrNotFound if the session doesn't exist.
	GetSession(ctx context.Context, id string) (*core.QuerySession, error)

	// PutSession stores a session, replacing any previous value.
	PutSession(ctx context.Context, session *core.QuerySession) error

	// RemoveSession deletes a session.
	// Returns ErrNotFound if the session doesn't exist.
	RemoveSession(ctx context.Context, id string) error

	// ForEachSession calls fn for every stored session.
	// Iteration stops at the first error; ErrStopIteration ends it cleanly.
	ForEachSession(ctx context.Context, fn func(*core.QuerySession) error) error

	// CountSessions returns the number of stored sessions.
	CountSessions(ctx context.Context) (int, error)
}
