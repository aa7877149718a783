// Package wire decodes and encodes the fixed little-endian buffers exchanged
// with the storage engine: stat records, statvfs, directory summaries, xattr
// name lists and paginated directory listings.
package wire

import (
	"fmt"

	"github.com/ebogdum/jfsio/metrics"
)

// FormatError reports a buffer whose layout does not match what the decoder
// understands. It is never recovered from: it means the engine speaks a
// different format version.
type FormatError struct {
	Format string
	Offset int
	Length int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("wire: unknown %s format at offset %d of %d bytes: %s", e.Format, e.Offset, e.Length, e.Reason)
}

func formatError(format string, offset, length int, reason string) error {
	metrics.WireDecodeErrorsTotal.WithLabelValues(format).Inc()
	return &FormatError{Format: format, Offset: offset, Length: length, Reason: reason}
}

// Used returns the first n bytes of buf, n being the length the engine
// reported for it.
func Used(format string, buf []byte, n int) ([]byte, error) {
	if n < 0 || n > len(buf) {
		return nil, formatError(format, 0, len(buf), fmt.Sprintf("reported length %d out of range", n))
	}
	return buf[:n], nil
}

// readCString returns the NUL-terminated string starting at off and the
// offset just past its terminator.
func readCString(buf []byte, off int) (string, int, bool) {
	for i := off; i < len(buf); i++ {
		if buf[i] == 0 {
			return string(buf[off:i]), i + 1, true
		}
	}
	return "", off, false
}
