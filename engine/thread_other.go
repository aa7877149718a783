//go:build !linux

package engine

import "os"

// Without a portable thread id every call is attributed to the process.
func threadID() int64 { return int64(os.Getpid()) }
