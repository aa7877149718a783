package wire

import (
	"encoding/binary"
	"fmt"
)

const SummaryLen = 24

// Summary aggregates a directory tree.
type Summary struct {
	Size  uint64
	Files uint64
	Dirs  uint64
}

func (s Summary) String() string {
	return fmt.Sprintf("<Summary size=%d files=%d dirs=%d>", s.Size, s.Files, s.Dirs)
}

func DecodeSummary(buf []byte) (Summary, error) {
	if len(buf) != SummaryLen {
		return Summary{}, formatError("summary", 0, len(buf), "want 24 bytes")
	}
	return Summary{
		Size:  binary.LittleEndian.Uint64(buf[0:8]),
		Files: binary.LittleEndian.Uint64(buf[8:16]),
		Dirs:  binary.LittleEndian.Uint64(buf[16:24]),
	}, nil
}
