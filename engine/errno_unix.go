//go:build unix

package engine

import (
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

func errnoLabel(errno syscall.Errno) string {
	if name := unix.ErrnoName(errno); name != "" {
		return name
	}
	return "errno_" + strconv.Itoa(int(errno))
}
