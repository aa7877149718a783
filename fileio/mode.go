package fileio

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrInvalidMode is returned by Open for a malformed mode string.
	ErrInvalidMode = errors.New("invalid mode")

	ErrNotReadable = fmt.Errorf("file not open for reading: %w", errors.ErrUnsupported)
	ErrNotWritable = fmt.Errorf("file not open for writing: %w", errors.ErrUnsupported)
)

const modeChars = "axrwb+tU"

// openMode is a parsed mode string.
type openMode struct {
	creating  bool
	reading   bool
	writing   bool
	appending bool
	updating  bool
	text      bool
	binary    bool
	universal bool
}

func invalidMode(mode, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidMode, mode, reason)
}

// parseMode validates mode the way Python's open() does.
func parseMode(mode string) (openMode, error) {
	var m openMode
	seen := make(map[rune]bool, len(mode))
	for _, c := range mode {
		if !strings.ContainsRune(modeChars, c) || seen[c] {
			return m, invalidMode(mode, "unknown or repeated character")
		}
		seen[c] = true
	}
	m = openMode{
		creating:  seen['x'],
		reading:   seen['r'],
		writing:   seen['w'],
		appending: seen['a'],
		updating:  seen['+'],
		text:      seen['t'],
		binary:    seen['b'],
		universal: seen['U'],
	}

	if m.universal {
		if m.creating || m.writing || m.appending || m.updating {
			return m, invalidMode(mode, "U cannot be combined with x, w, a or +")
		}
		m.reading = true
	}
	if m.text && m.binary {
		return m, invalidMode(mode, "cannot be both text and binary")
	}
	kinds := 0
	for _, set := range []bool{m.creating, m.reading, m.writing, m.appending} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return m, invalidMode(mode, "must have exactly one of create, read, write or append")
	}
	return m, nil
}

func (m openMode) readable() bool { return m.reading || m.updating }

func (m openMode) writable() bool { return m.creating || m.writing || m.appending || m.updating }

// flags converts the mode to os.O_* open flags.
func (m openMode) flags() int {
	var flag int
	switch {
	case m.creating:
		flag = os.O_CREATE | os.O_EXCL
	case m.writing:
		flag = os.O_CREATE | os.O_TRUNC
	case m.appending:
		flag = os.O_CREATE | os.O_APPEND
	}
	switch {
	case m.updating:
		flag |= os.O_RDWR
	case m.reading:
		flag |= os.O_RDONLY
	default:
		flag |= os.O_WRONLY
	}
	return flag
}

// String is the binary mode string a raw file reports, derived from
// whether it was created exclusively, appends, reads and writes.
func (m openMode) String() string {
	switch {
	case m.creating:
		if m.readable() {
			return "xb+"
		}
		return "xb"
	case m.appending:
		if m.readable() {
			return "ab+"
		}
		return "ab"
	case m.readable():
		if m.writable() {
			return "rb+"
		}
		return "rb"
	default:
		return "wb"
	}
}
