package engine

import "golang.org/x/sys/unix"

// threadID must be called with the goroutine locked to its OS thread.
func threadID() int64 { return int64(unix.Gettid()) }
