// Package store persists serialized index snapshots in a key-value store.
package store

import (
	"context"
)

// DefaultKey is the storage key the snapshot is written under.
const DefaultKey = "searchTrie"

// KVStore defines a generic key-value store interface
type KVStore interface {
	// Put stores a key-value pair
	Put(ctx context.Context, key []byte, value []byte) error

	// Get retrieves a value by key
	// Returns nil if key doesn't exist
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Delete removes a key-value pair
	Delete(ctx context.Context, key []byte) error

	// Close releases any resources
	Close() error
}
