package badger

import (
	"bytes"
	"context"

	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/storage"
)

// DictionaryRepository implements storage.DictionaryRepository for BadgerDB.
type DictionaryRepository struct {
	backend *Backend
}

var _ storage.DictionaryRepository = (*DictionaryRepository)(nil)

// NewDictionaryRepository creates a new DictionaryRepository.
func NewDictionaryRepository(backend *Backend) *DictionaryRepository {
	return &DictionaryRepository{
		backend: backend,
	}
}

// Close releases resources. The backend is owned by the caller.
func (r *DictionaryRepository) Close() error {
	return nil
}

// GetList retrieves the list stored under key.
func (r *DictionaryRepository) GetList(ctx context.Context, key string) (*core.SuggestionList, error) {
	var list *core.SuggestionList
	_, err := r.backend.get(makeDictionaryKey(key), func(val []byte) error {
		var err error
		list, err = storage.UnmarshalSuggestionList(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// PutList stores the list. An unchanged value is not rewritten.
func (r *DictionaryRepository) PutList(ctx context.Context, list *core.SuggestionList) error {
	if err := core.ValidateSuggestionList(list); err != nil {
		return err
	}
	value, err := storage.MarshalSuggestionList(list)
	if err != nil {
		return err
	}
	key := makeDictionaryKey(list.Key)

	unchanged := false
	if _, err := r.backend.get(key, func(val []byte) error {
		unchanged = bytes.Equal(val, value)
		return nil
	}); err != nil {
		return err
	}
	if unchanged {
		return nil
	}
	return r.backend.set(key, value)
}

// DeleteList removes the list stored under key.
func (r *DictionaryRepository) DeleteList(ctx context.Context, key string) error {
	_, err := r.backend.delete(makeDictionaryKey(key))
	return err
}

// Size returns the number of stored lists.
func (r *DictionaryRepository) Size(ctx context.Context) (int, error) {
	return r.backend.countPrefix([]byte(dictionaryPrefix))
}

// ForEachList calls fn for every stored list in key order.
func (r *DictionaryRepository) ForEachList(ctx context.Context, fn func(*core.SuggestionList) error) error {
	return r.backend.forEachPrefix([]byte(dictionaryPrefix), func(_, val []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		list, err := storage.UnmarshalSuggestionList(val)
		if err != nil {
			return err
		}
		return fn(list)
	})
}
