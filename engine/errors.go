package engine

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
)

// ErrInitFailed is returned when the engine refuses to create a session.
var ErrInitFailed = errors.New("engine: initialization failed")

// Arity is the number of leading path arguments a call site declares. It
// controls how a negative status is reported.
type Arity int

const (
	// Raw returns the status untouched, even when negative.
	Raw Arity = -1
	// NoPath reports failures as *os.SyscallError.
	NoPath Arity = 0
	// OnePath reports failures as *fs.PathError.
	OnePath Arity = 1
	// TwoPaths reports failures as *os.LinkError.
	TwoPaths Arity = 2
)

// StatusError converts a negative engine status into an error carrying the
// errno and up to two paths. A non-negative status, or the Raw arity,
// yields nil.
func StatusError(op string, code int64, arity Arity, paths ...string) error {
	if code >= 0 || arity == Raw {
		return nil
	}
	errno := syscall.Errno(-code)
	switch {
	case arity >= TwoPaths && len(paths) >= 2:
		return &os.LinkError{Op: op, Old: paths[0], New: paths[1], Err: errno}
	case arity >= OnePath && len(paths) >= 1:
		return &fs.PathError{Op: op, Path: paths[0], Err: errno}
	default:
		return os.NewSyscallError(op, errno)
	}
}

// Errno extracts the errno from an error produced by the gateway.
func Errno(err error) (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno, true
	}
	return 0, false
}
