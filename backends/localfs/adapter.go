package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ebogdum/jfsio/backends"
	"github.com/ebogdum/jfsio/internal/pathutil"
)

// LocalFSAdapter implements the backends.Storage interface for local filesystem
type LocalFSAdapter struct {
	rootPath string
}

// NewLocalFSAdapter creates a new local filesystem adapter
func NewLocalFSAdapter(rootPath string) (*LocalFSAdapter, error) {
	// Ensure root path exists
	if err := os.MkdirAll(rootPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root path %s: %w", rootPath, err)
	}

	// Verify path is accessible
	if _, err := os.Stat(rootPath); err != nil {
		return nil, fmt.Errorf("root path %s is not accessible: %w", rootPath, err)
	}

	return &LocalFSAdapter{
		rootPath: rootPath,
	}, nil
}

func (a *LocalFSAdapter) resolve(key string) (string, error) {
	fullPath, err := pathutil.SafeJoin(a.rootPath, key)
	if err != nil {
		return "", fmt.Errorf("invalid object key %q: %w", key, err)
	}
	return fullPath, nil
}

// Open opens an object for reading
func (a *LocalFSAdapter) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := a.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, backends.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open object %s: %w", key, err)
	}
	return file, nil
}

// Update writes the object to a temporary file and renames it into place,
// so readers never observe a partial object.
func (a *LocalFSAdapter) Update(ctx context.Context, key string, reader io.Reader, size int64) error {
	fullPath, err := a.resolve(key)
	if err != nil {
		return err
	}

	// Ensure parent directory exists
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary object: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, reader)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write object content: %w", err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("short object write for %s: %d of %d bytes", key, written, size)
	}

	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return fmt.Errorf("failed to commit object %s: %w", key, err)
	}
	return nil
}

// Delete removes an object
func (a *LocalFSAdapter) Delete(ctx context.Context, key string) error {
	fullPath, err := a.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return backends.ErrNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Size returns the stored length of an object
func (a *LocalFSAdapter) Size(ctx context.Context, key string) (int64, error) {
	fullPath, err := a.resolve(key)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, backends.ErrNotFound
		}
		return 0, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return info.Size(), nil
}

// Close closes any resources used by the storage backend
func (a *LocalFSAdapter) Close() error {
	// No resources to close for local filesystem
	return nil
}
