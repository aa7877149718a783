// Package metadata defines the inode metadata store used by the embedded
// engine and the errors its implementations share.
package metadata

import (
	"context"
	"errors"
	"path"
	"time"
)

// Common metadata errors
var (
	ErrNotFound      = errors.New("metadata not found")
	ErrAlreadyExists = errors.New("metadata already exists")
)

// Inode types
const (
	TypeFile      = "file"
	TypeDirectory = "directory"
	TypeSymlink   = "symlink"
)

// Metadata represents one inode. Path is absolute and clean; the root is "/".
type Metadata struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	Type          string    `json:"type"`
	Size          int64     `json:"size"`
	Mode          uint32    `json:"mode"` // permission, setuid, setgid and sticky bits
	Owner         string    `json:"owner"`
	Group         string    `json:"group"`
	ATime         time.Time `json:"atime"`
	MTime         time.Time `json:"mtime"`
	CTime         time.Time `json:"ctime"`
	SymlinkTarget *string   `json:"symlink_target,omitempty"`
}

func (md *Metadata) IsDir() bool     { return md.Type == TypeDirectory }
func (md *Metadata) IsSymlink() bool { return md.Type == TypeSymlink }

// Clone returns a deep copy so callers can mutate without touching a cached
// or shared value.
func (md *Metadata) Clone() *Metadata {
	c := *md
	if md.SymlinkTarget != nil {
		target := *md.SymlinkTarget
		c.SymlinkTarget = &target
	}
	return &c
}

// Usage is the aggregate size of a store.
type Usage struct {
	Bytes  int64
	Inodes int64
}

// Store defines the interface for metadata storage operations
type Store interface {
	// Get retrieves metadata for a file or directory by path
	Get(ctx context.Context, path string) (*Metadata, error)

	// Create creates a new inode entry and assigns its ID
	Create(ctx context.Context, md *Metadata) error

	// Update updates an existing inode entry, matched by path
	Update(ctx context.Context, md *Metadata) error

	// Delete removes an inode entry and its extended attributes
	Delete(ctx context.Context, path string) error

	// ListChildren returns the direct children of a directory ordered by name
	ListChildren(ctx context.Context, parentPath string) ([]*Metadata, error)

	// Rename moves an inode and, for directories, every descendant
	Rename(ctx context.Context, oldPath, newPath string) error

	// GetXattr returns ErrNotFound when the attribute is absent
	GetXattr(ctx context.Context, id int64, name string) ([]byte, error)
	SetXattr(ctx context.Context, id int64, name string, value []byte) error
	RemoveXattr(ctx context.Context, id int64, name string) error
	// ListXattrs returns attribute names ordered by name
	ListXattrs(ctx context.Context, id int64) ([]string, error)

	// Usage reports the total file bytes and inode count
	Usage(ctx context.Context) (Usage, error)

	// Close closes the metadata store connection
	Close() error
}

// ParentPath returns the directory containing p. The root is its own parent.
func ParentPath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	return path.Dir(p)
}

// Rebase rewrites p, which lies at or under oldPrefix, to lie under
// newPrefix instead.
func Rebase(p, oldPrefix, newPrefix string) string {
	if p == oldPrefix {
		return newPrefix
	}
	return path.Join(newPrefix, p[len(oldPrefix):])
}
