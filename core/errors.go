package core

import (
	"errors"
	"io/fs"
	"syscall"
)

var (
	// ErrStaleDescriptor marks a descriptor that was valid once and has
	// since been closed. Such errors also match syscall.EBADF.
	ErrStaleDescriptor = errors.New("stale file descriptor")

	// ErrInvalidWhence is returned by Lseek for an unknown origin.
	ErrInvalidWhence = errors.New("invalid whence")
)

func pathError(op, path string, errno syscall.Errno) error {
	return &fs.PathError{Op: op, Path: path, Err: errno}
}
