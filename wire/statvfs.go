package wire

import "encoding/binary"

const StatVfsLen = 16

// MaxNameLength is reported as f_namemax for every filesystem.
const MaxNameLength = 255

// StatVfs mirrors the POSIX statvfs structure. The engine only exposes block
// totals, in bytes, so Bsize is 1 and Namemax is fixed; the rest stay zero.
type StatVfs struct {
	Bsize   uint64
	Frsize  uint64
	Blocks  uint64
	Bfree   uint64
	Bavail  uint64
	Files   uint64
	Ffree   uint64
	Favail  uint64
	Flag    uint64
	Namemax uint64
}

func DecodeStatVfs(buf []byte) (StatVfs, error) {
	if len(buf) != StatVfsLen {
		return StatVfs{}, formatError("statvfs", 0, len(buf), "want 16 bytes")
	}
	blocks := binary.LittleEndian.Uint64(buf[0:8])
	avail := binary.LittleEndian.Uint64(buf[8:16])
	return StatVfs{
		Bsize:   1,
		Blocks:  blocks,
		Bfree:   blocks - avail,
		Bavail:  avail,
		Namemax: MaxNameLength,
	}, nil
}
