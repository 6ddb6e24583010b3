package memory

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionaryRepository_Isolation(t *testing.T) {
	repo := NewDictionaryRepository()
	ctx := context.Background()

	list := core.NewSuggestionList("foo")
	require.NoError(t, list.AddSuggested("bar", 1.0, 3))
	require.NoError(t, repo.PutList(ctx, list))

	list.Suggestions[0].Score = 5

	got, err := repo.GetList(ctx, "foo")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.At(0).Score, 1e-9)

	got.Suggestions[0].Score = 7
	again, err := repo.GetList(ctx, "foo")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, again.At(0).Score, 1e-9)
}

func TestDictionaryRepository_ForEachWriteBack(t *testing.T) {
	repo := NewDictionaryRepository()
	ctx := context.Background()

	for _, key := range []string{"b", "a"} {
		list := core.NewSuggestionList(key)
		require.NoError(t, list.AddSuggested("x", 1.0, 1))
		require.NoError(t, repo.PutList(ctx, list))
	}

	var keys []string
	err := repo.ForEachList(ctx, func(list *core.SuggestionList) error {
		keys = append(keys, list.Key)
		list.Suggestions[0].Score = 2
		return repo.PutList(ctx, list)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	got, err := repo.GetList(ctx, "b")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got.At(0).Score, 1e-9)
}

func TestDictionaryRepository_Closed(t *testing.T) {
	repo := NewDictionaryRepository()
	require.NoError(t, repo.Close())

	_, err := repo.GetList(context.Background(), "foo")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestSessionRepository(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()
	now := time.Now()

	s := core.NewQuerySession("s1", time.Minute)
	s.Query("foo", 1, "", now)
	require.NoError(t, repo.PutSession(ctx, s))

	s.Query("bar", 2, "", now)
	got, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())

	count, err := repo.CountSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.RemoveSession(ctx, "s1"))
	_, err = repo.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, repo.RemoveSession(ctx, "s1"), storage.ErrNotFound)
}
