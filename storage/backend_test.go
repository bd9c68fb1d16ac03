package storage

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backendContract runs the behaviour every Backend must share.
func backendContract(t *testing.T, newBackend func(t *testing.T) Backend) {
	t.Run("missing key", func(t *testing.T) {
		b := newBackend(t)
		v, ok, err := b.Get("nope")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)

		exists, err := b.Exists("nope")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("set get overwrite", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Set("k", []byte("one")))
		require.NoError(t, b.Set("k", []byte("two")))

		v, ok, err := b.Get("k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("two"), v)
	})

	t.Run("empty value exists", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Set("empty", []byte{}))

		exists, err := b.Exists("empty")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		b := newBackend(t)
		in := []byte("abc")
		require.NoError(t, b.Set("k", in))
		in[0] = 'x'

		v, _, err := b.Get("k")
		require.NoError(t, err)
		v[1] = 'y'

		again, _, err := b.Get("k")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})

	t.Run("delete counts existing keys", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Set("a", []byte("1")))
		require.NoError(t, b.Set("b", []byte("2")))

		n, err := b.Delete("a", "b", "c")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		exists, err := b.Exists("a")
		require.NoError(t, err)
		assert.False(t, exists)

		n, err = b.Delete("a")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("concurrent writers on distinct keys", func(t *testing.T) {
		b := newBackend(t)
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("key-%d", i)
				assert.NoError(t, b.Set(key, []byte(key)))
			}(i)
		}
		wg.Wait()

		for i := 0; i < 16; i++ {
			key := fmt.Sprintf("key-%d", i)
			v, ok, err := b.Get(key)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, key, string(v))
		}
	})
}

func newMemory(t *testing.T) Backend {
	b := NewMemoryStorage()
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func newBadger(t *testing.T) Backend {
	b, err := NewBadgerStorage(BadgerOptions{Dir: t.TempDir(), GCInterval: -1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestMemoryStorage(t *testing.T) {
	backendContract(t, newMemory)
}

func TestBadgerStorage(t *testing.T) {
	backendContract(t, newBadger)
}

func TestBadgerStorageInMemory(t *testing.T) {
	backendContract(t, func(t *testing.T) Backend {
		b, err := NewBadgerStorage(BadgerOptions{InMemory: true})
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })
		return b
	})
}

func TestMemoryStorageClosed(t *testing.T) {
	b := NewMemoryStorage()
	require.NoError(t, b.Close())

	_, _, err := b.Get("k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, b.Set("k", nil), ErrClosed)
}

func TestBadgerStoragePersists(t *testing.T) {
	dir := t.TempDir()

	b, err := NewBadgerStorage(BadgerOptions{Dir: dir, SyncWrites: true})
	require.NoError(t, err)
	require.NoError(t, b.Set("k", []byte("v")))
	require.NoError(t, b.Close())
	// A second Close is a no-op.
	require.NoError(t, b.Close())

	b, err = NewBadgerStorage(BadgerOptions{Dir: dir})
	require.NoError(t, err)
	defer b.Close()

	v, ok, err := b.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestBadgerStorageEncryptionKey(t *testing.T) {
	dir := t.TempDir()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	b, err := NewBadgerStorage(BadgerOptions{Dir: dir, EncryptionKey: key, GCInterval: -1})
	require.NoError(t, err)
	require.NoError(t, b.Set("k", []byte("v")))
	require.NoError(t, b.Close())

	wrong := make([]byte, 32)
	_, err = NewBadgerStorage(BadgerOptions{Dir: dir, EncryptionKey: wrong, GCInterval: -1})
	assert.Error(t, err)

	b, err = NewBadgerStorage(BadgerOptions{Dir: dir, EncryptionKey: key, GCInterval: -1})
	require.NoError(t, err)
	defer b.Close()

	v, ok, err := b.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}
