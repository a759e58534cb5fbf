package memory

import (
	"context"
	"slices"
	"sync"
)

// Store is an in-memory implementation of store.KVStore.
// Snapshots kept here live as long as the process.
type Store struct {
	data sync.Map // map[string][]byte
}

// New creates a new in-memory KVStore
func New() *Store {
	return &Store{}
}

// Put stores a copy of value under key
func (s *Store) Put(ctx context.Context, key []byte, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data.Store(string(key), slices.Clone(value))
	return nil
}

// Get retrieves a copy of the value stored under key
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	val, ok := s.data.Load(string(key))
	if !ok {
		return nil, nil
	}
	return slices.Clone(val.([]byte)), nil
}

// Delete removes a key-value pair
func (s *Store) Delete(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data.Delete(string(key))
	return nil
}

// Close releases any resources
func (s *Store) Close() error {
	return nil
}
