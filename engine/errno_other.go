//go:build !unix

package engine

import (
	"strconv"
	"syscall"
)

func errnoLabel(errno syscall.Errno) string {
	return "errno_" + strconv.Itoa(int(errno))
}
