package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scores.json"), []byte(`{"R1": 5}`), 0o644))

	store := NewLocalStore(dir)

	t.Run("Open", func(t *testing.T) {
		b, err := store.Open(context.Background(), "scores.json")
		require.NoError(t, err)
		defer b.Close()

		assert.Equal(t, int64(9), b.Size())
		data, err := io.ReadAll(b)
		require.NoError(t, err)
		assert.Equal(t, `{"R1": 5}`, string(data))
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(context.Background(), "missing.json")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	store.Put("a", []byte("hello"))

	t.Run("Open", func(t *testing.T) {
		b, err := store.Open(context.Background(), "a")
		require.NoError(t, err)
		defer b.Close()

		assert.Equal(t, int64(5), b.Size())
		data, err := io.ReadAll(b)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(context.Background(), "b")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("OpenBlobIsImmutable", func(t *testing.T) {
		b, err := store.Open(context.Background(), "a")
		require.NoError(t, err)
		defer b.Close()

		store.Put("a", []byte("world"))
		data, err := io.ReadAll(b)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data), "Put after Open must not affect the open blob")
	})

	t.Run("Delete", func(t *testing.T) {
		store.Put("gone", []byte("x"))
		store.Delete("gone")
		_, err := store.Open(context.Background(), "gone")
		require.ErrorIs(t, err, ErrNotFound)
	})
}
