package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(&Config{DataDir: dir})
	require.NoError(t, err)

	got, err := s.Get(ctx, []byte("searchTrie"))
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Put(ctx, []byte("searchTrie"), []byte(`{"version":1}`)))
	require.NoError(t, s.Close())

	reopened, err := New(&Config{DataDir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	got, err = reopened.Get(ctx, []byte("searchTrie"))
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"version":1}`), got)

	require.NoError(t, reopened.Delete(ctx, []byte("searchTrie")))
	got, err = reopened.Get(ctx, []byte("searchTrie"))
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, reopened.RunGC(0.5))
}

func TestStoreInMemory(t *testing.T) {
	ctx := context.Background()
	s, err := New(&Config{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, []byte("k"), []byte("v")))
	got, err := s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestNewRequiresDataDir(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
}
