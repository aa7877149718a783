package wire

import (
	"encoding/binary"
	"errors"
)

// ErrRecordTooLarge is returned by AppendDirRecord when a name or stat record
// does not fit its one-byte length prefix.
var ErrRecordTooLarge = errors.New("wire: directory record field exceeds 255 bytes")

// EncodeStat produces the engine representation of st.
func EncodeStat(st Stat) []byte {
	buf := make([]byte, statFixedLen, statFixedLen+len(st.Owner)+len(st.Group)+2)
	binary.LittleEndian.PutUint32(buf[0:4], FormatMode(st.Mode))
	binary.LittleEndian.PutUint64(buf[4:12], st.Size)
	binary.LittleEndian.PutUint64(buf[12:20], st.Mtime)
	binary.LittleEndian.PutUint64(buf[20:28], st.Atime)
	buf = append(buf, st.Owner...)
	buf = append(buf, 0)
	buf = append(buf, st.Group...)
	return append(buf, 0)
}

func EncodeStatVfs(blocks, avail uint64) []byte {
	buf := make([]byte, StatVfsLen)
	binary.LittleEndian.PutUint64(buf[0:8], blocks)
	binary.LittleEndian.PutUint64(buf[8:16], avail)
	return buf
}

func EncodeSummary(s Summary) []byte {
	buf := make([]byte, SummaryLen)
	binary.LittleEndian.PutUint64(buf[0:8], s.Size)
	binary.LittleEndian.PutUint64(buf[8:16], s.Files)
	binary.LittleEndian.PutUint64(buf[16:24], s.Dirs)
	return buf
}

func EncodeXattrNames(names []string) []byte {
	var buf []byte
	for _, name := range names {
		buf = append(buf, name...)
		buf = append(buf, 0)
	}
	return buf
}

// DirRecordLen is the encoded size of one listing record.
func DirRecordLen(name string, stat []byte) int {
	return 2 + len(name) + len(stat)
}

// AppendDirRecord appends one listing record to buf.
func AppendDirRecord(buf []byte, name string, stat []byte) ([]byte, error) {
	if len(name) > 255 || len(stat) > 255 {
		return buf, ErrRecordTooLarge
	}
	buf = append(buf, byte(len(name)))
	buf = append(buf, name...)
	buf = append(buf, byte(len(stat)))
	return append(buf, stat...), nil
}

// DirTrailerLen is the trailer size for a page with the given remaining count.
func DirTrailerLen(remaining uint32) int {
	if remaining == 0 {
		return 4
	}
	return 8
}

// AppendDirTrailer appends the page trailer.
func AppendDirTrailer(buf []byte, remaining, cursor uint32) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, remaining)
	if remaining == 0 {
		return buf
	}
	return binary.LittleEndian.AppendUint32(buf, cursor)
}
