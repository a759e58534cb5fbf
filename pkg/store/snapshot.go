package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bastiangx/topicserve/pkg/index"
	"github.com/charmbracelet/log"
)

// ErrNoSnapshot is returned by Load when nothing is stored under the key.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Snapshots saves and restores a serialized index under a single key.
type Snapshots struct {
	kv   KVStore
	key  []byte
	opts []index.Option
}

// NewSnapshots binds a KVStore to a storage key. An empty key uses DefaultKey.
// opts are applied to every index restored by Load.
func NewSnapshots(kv KVStore, key string, opts ...index.Option) *Snapshots {
	if key == "" {
		key = DefaultKey
	}
	return &Snapshots{kv: kv, key: []byte(key), opts: opts}
}

// Key returns the storage key.
func (s *Snapshots) Key() string {
	return string(s.key)
}

// Save serializes idx and writes it, replacing any previous snapshot.
func (s *Snapshots) Save(ctx context.Context, idx *index.Index) error {
	text, err := index.Serialize(idx)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, s.key, []byte(text)); err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", s.key, err)
	}
	log.Debugf("Saved snapshot %q (%d bytes, %d keys)", s.key, len(text), idx.Keys())
	return nil
}

// Load restores the stored index.
// Returns ErrNoSnapshot when absent and index.ErrCorruptSnapshot when the stored text is unusable.
func (s *Snapshots) Load(ctx context.Context) (*index.Index, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %q: %w", s.key, err)
	}
	if data == nil {
		return nil, ErrNoSnapshot
	}
	return index.Deserialize(string(data), s.opts...)
}

// Clear deletes the stored snapshot.
func (s *Snapshots) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key)
}

// LoadOrBuild restores the stored index, or calls build and saves its result
// when no usable snapshot exists. A corrupt snapshot is discarded first.
// The returned bool reports whether the index came from the store.
func (s *Snapshots) LoadOrBuild(ctx context.Context, build func() (*index.Index, error)) (*index.Index, bool, error) {
	start := time.Now()
	idx, err := s.Load(ctx)
	switch {
	case err == nil:
		log.Debugf("Restored snapshot %q in %v", s.key, time.Since(start))
		return idx, true, nil
	case errors.Is(err, index.ErrCorruptSnapshot):
		log.Warnf("Discarding unusable snapshot %q: %v", s.key, err)
		if err := s.Clear(ctx); err != nil {
			return nil, false, fmt.Errorf("failed to clear snapshot %q: %w", s.key, err)
		}
	case errors.Is(err, ErrNoSnapshot):
		log.Debugf("No snapshot under %q, building", s.key)
	default:
		return nil, false, err
	}

	idx, err = build()
	if err != nil {
		return nil, false, err
	}
	if err := s.Save(ctx, idx); err != nil {
		// the built index is still usable even if persisting fails
		log.Warnf("Failed to persist rebuilt index: %v", err)
	}
	return idx, false, nil
}
