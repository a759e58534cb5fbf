package store

import (
	"context"
	"errors"
	"testing"

	"github.com/bastiangx/topicserve/pkg/index"
	"github.com/bastiangx/topicserve/pkg/store/memory"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func sample(t testing.TB) *index.Index {
	t.Helper()
	idx := index.New()
	require.NoError(t, idx.Insert("Arrays", &index.TopicRecord{Topic: "Arrays", Language: "python", Color: "#fff"}))
	require.NoError(t, idx.Insert("Sorting", &index.TopicRecord{Topic: "Sorting", Language: "python", Color: "#fff", ParentTopic: "Arrays"}))
	return idx
}

func TestSnapshotsSaveLoad(t *testing.T) {
	ctx := context.Background()
	snaps := NewSnapshots(memory.New(), "")
	assert.Equal(t, DefaultKey, snaps.Key())

	_, err := snaps.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, snaps.Save(ctx, sample(t)))
	idx, err := snaps.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arrays", "Sorting"}, idx.AllTopics())
	require.Len(t, idx.SearchPrefix("sor"), 1)
	assert.Equal(t, "Arrays", idx.SearchPrefix("sor")[0].ParentTopic)

	require.NoError(t, snaps.Clear(ctx))
	_, err = snaps.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotsLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Put(ctx, []byte(DefaultKey), []byte(`{"version":1,"root":`)))

	_, err := NewSnapshots(kv, DefaultKey).Load(ctx)
	assert.ErrorIs(t, err, index.ErrCorruptSnapshot)
}

func TestLoadOrBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("Builds and saves when empty", func(t *testing.T) {
		kv := memory.New()
		snaps := NewSnapshots(kv, "topics")
		calls := 0
		idx, restored, err := snaps.LoadOrBuild(ctx, func() (*index.Index, error) {
			calls++
			return sample(t), nil
		})
		require.NoError(t, err)
		assert.False(t, restored)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 2, idx.Len())

		stored, err := kv.Get(ctx, []byte("topics"))
		require.NoError(t, err)
		assert.NotEmpty(t, stored)
	})

	t.Run("Restores without building", func(t *testing.T) {
		snaps := NewSnapshots(memory.New(), "")
		require.NoError(t, snaps.Save(ctx, sample(t)))

		idx, restored, err := snaps.LoadOrBuild(ctx, func() (*index.Index, error) {
			t.Fatal("build should not be called")
			return nil, nil
		})
		require.NoError(t, err)
		assert.True(t, restored)
		assert.Equal(t, 2, idx.Len())
	})

	t.Run("Discards corrupt snapshot and rebuilds", func(t *testing.T) {
		kv := memory.New()
		require.NoError(t, kv.Put(ctx, []byte(DefaultKey), []byte("not json")))
		snaps := NewSnapshots(kv, "")

		idx, restored, err := snaps.LoadOrBuild(ctx, func() (*index.Index, error) {
			return sample(t), nil
		})
		require.NoError(t, err)
		assert.False(t, restored)
		assert.Equal(t, 2, idx.Len())

		again, err := snaps.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, idx.AllTopics(), again.AllTopics())
	})

	t.Run("Build error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		_, _, err := NewSnapshots(memory.New(), "").LoadOrBuild(ctx, func() (*index.Index, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	})
}
