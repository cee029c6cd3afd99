// Package blob stores opaque receipt payloads keyed by storage ID.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned (possibly wrapped) when no blob exists for a key.
var ErrNotFound = errors.New("blob not found")

// Store persists binary objects.
// Keys are produced by the caller and are opaque to the store.
type Store interface {
	// Put writes data under key, replacing any existing blob.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the blob stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the blob under key. Returns ErrNotFound if it is absent.
	Delete(ctx context.Context, key string) error
}
