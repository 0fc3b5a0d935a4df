package port

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KeyValueStore.Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is a namespaced string-keyed byte store standing in for browser storage.
// Implementations must be safe for concurrent use; writes are last-write-wins per key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys starting with prefix ("" lists everything).
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Clear removes every key in the namespace.
	Clear(ctx context.Context) error
}
