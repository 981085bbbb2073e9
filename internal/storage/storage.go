package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrBlobNotFound is returned by Get when no payload exists under a key.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrBlobExists is returned by Put when a payload already occupies the
	// key. Physical keys are never reused, so this is always a collision.
	ErrBlobExists = errors.New("blob already exists")
)

// Backend stores file payloads under opaque physical keys in a single flat
// keyspace. It knows nothing about folders or metadata; the file catalog
// keeps the two sides consistent.
type Backend interface {
	// Put writes the payload under key, or returns ErrBlobExists when the
	// key is already occupied. There is no silent overwrite.
	Put(ctx context.Context, key string, content io.Reader) error

	// Get returns the payload for key, or ErrBlobNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the payload for key. Deleting an absent key is not an
	// error, which makes file deletion idempotent on the storage side.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a payload is present under key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PublicURL is the stable serving path for a physical key.
func PublicURL(key string) string {
	return "/uploads/" + key
}
