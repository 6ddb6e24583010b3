package badger

import (
	"testing"

	"github.com/poiesic/didyoumean/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir()
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	// Closing twice is harmless
	require.NoError(t, backend.Close())
}

func TestBackend_ClosedOperations(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	err = backend.set([]byte("k"), []byte("v"))
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = backend.get([]byte("k"), func([]byte) error { return nil })
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestBackend_PrefixScan(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.set([]byte("a:1"), []byte("one")))
	require.NoError(t, backend.set([]byte("a:2"), []byte("two")))
	require.NoError(t, backend.set([]byte("b:1"), []byte("other")))

	count, err := backend.countPrefix([]byte("a:"))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var seen []string
	err = backend.forEachPrefix([]byte("a:"), func(key, val []byte) error {
		seen = append(seen, string(key)+"="+string(val))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1=one", "a:2=two"}, seen)

	t.Run("stop iteration", func(t *testing.T) {
		calls := 0
		err := backend.forEachPrefix([]byte("a:"), func(_, _ []byte) error {
			calls++
			return storage.ErrStopIteration
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("delete", func(t *testing.T) {
		found, err := backend.delete([]byte("a:1"))
		require.NoError(t, err)
		assert.True(t, found)

		found, err = backend.delete([]byte("a:1"))
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestBackend_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NoError(t, backend.set([]byte("dict:foo"), []byte("bar")))
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(tmpDir, false)
	require.NoError(t, err)
	defer backend.Close()

	var value string
	found, err := backend.get([]byte("dict:foo"), func(val []byte) error {
		value = string(val)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "bar", value)
}
