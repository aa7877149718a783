// Package backends holds the object stores the embedded engine keeps file
// contents in. Objects are whole files addressed by an opaque key.
package backends

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned for keys that were never written or were deleted.
var ErrNotFound = errors.New("object not found")

// Storage defines the interface for backend storage operations
type Storage interface {
	// Open opens an object for reading
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Update replaces the object with size bytes read from reader,
	// creating it if needed
	Update(ctx context.Context, key string, reader io.Reader, size int64) error

	// Delete removes an object
	Delete(ctx context.Context, key string) error

	// Size returns the stored length of an object
	Size(ctx context.Context, key string) (int64, error)

	// Close closes any resources used by the storage backend
	Close() error
}

// ReadAll loads a whole object, treating a missing key as empty.
func ReadAll(ctx context.Context, s Storage, key string) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
