package wire

import (
	"encoding/binary"
	"io/fs"
	"time"
)

// POSIX file type and permission bits as they appear in decoded stat records.
const (
	S_IFMT   uint32 = 0o170000
	S_IFDIR  uint32 = 0o040000
	S_IFREG  uint32 = 0o100000
	S_IFLNK  uint32 = 0o120000
	S_ISUID  uint32 = 0o4000
	S_ISGID  uint32 = 0o2000
	S_ISVTX  uint32 = 0o1000
	PermMask uint32 = 0o777
)

// Engine mode bits. The engine reports modes in its own bit layout.
const (
	engineModeDir     uint32 = 1 << 31
	engineModeSymlink uint32 = 1 << 27
	engineModeSetuid  uint32 = 1 << 23
	engineModeSetgid  uint32 = 1 << 22
	engineModeSticky  uint32 = 1 << 20
)

// statFixedLen is mode(4) + size(8) + mtime(8) + atime(8).
const statFixedLen = 28

// Stat is an immutable snapshot of one inode's attributes.
type Stat struct {
	Mode  uint32 // POSIX type and permission bits
	Size  uint64
	Mtime uint64 // milliseconds since the epoch
	Atime uint64 // milliseconds since the epoch
	Owner string
	Group string
}

func (s Stat) IsDir() bool     { return s.Mode&S_IFMT == S_IFDIR }
func (s Stat) IsRegular() bool { return s.Mode&S_IFMT == S_IFREG }
func (s Stat) IsSymlink() bool { return s.Mode&S_IFMT == S_IFLNK }

// Perm returns the nine permission bits.
func (s Stat) Perm() fs.FileMode { return fs.FileMode(s.Mode & PermMask) }

// FileMode converts the POSIX mode into an fs.FileMode.
func (s Stat) FileMode() fs.FileMode {
	m := s.Perm()
	switch s.Mode & S_IFMT {
	case S_IFDIR:
		m |= fs.ModeDir
	case S_IFLNK:
		m |= fs.ModeSymlink
	}
	if s.Mode&S_ISUID != 0 {
		m |= fs.ModeSetuid
	}
	if s.Mode&S_ISGID != 0 {
		m |= fs.ModeSetgid
	}
	if s.Mode&S_ISVTX != 0 {
		m |= fs.ModeSticky
	}
	return m
}

func (s Stat) ModTime() time.Time    { return time.UnixMilli(int64(s.Mtime)) }
func (s Stat) AccessTime() time.Time { return time.UnixMilli(int64(s.Atime)) }

// ParseMode maps an engine mode word to POSIX mode bits. Directory wins over
// symlink; anything that is neither is a regular file.
func ParseMode(raw uint32) uint32 {
	mode := raw & PermMask
	switch {
	case raw&engineModeDir != 0:
		mode |= S_IFDIR
	case raw&engineModeSymlink != 0:
		mode |= S_IFLNK
	default:
		mode |= S_IFREG
	}
	if raw&engineModeSetuid != 0 {
		mode |= S_ISUID
	}
	if raw&engineModeSetgid != 0 {
		mode |= S_ISGID
	}
	if raw&engineModeSticky != 0 {
		mode |= S_ISVTX
	}
	return mode
}

// FormatMode is the inverse of ParseMode.
func FormatMode(mode uint32) uint32 {
	raw := mode & PermMask
	switch mode & S_IFMT {
	case S_IFDIR:
		raw |= engineModeDir
	case S_IFLNK:
		raw |= engineModeSymlink
	}
	if mode&S_ISUID != 0 {
		raw |= engineModeSetuid
	}
	if mode&S_ISGID != 0 {
		raw |= engineModeSetgid
	}
	if mode&S_ISVTX != 0 {
		raw |= engineModeSticky
	}
	return raw
}

// DecodeStat parses exactly one stat record. buf must hold the bytes the
// engine reported as used; trailing bytes after the group string are a
// format error.
func DecodeStat(buf []byte) (Stat, error) {
	if len(buf) < statFixedLen {
		return Stat{}, formatError("stat", 0, len(buf), "short fixed header")
	}
	st := Stat{
		Mode:  ParseMode(binary.LittleEndian.Uint32(buf[0:4])),
		Size:  binary.LittleEndian.Uint64(buf[4:12]),
		Mtime: binary.LittleEndian.Uint64(buf[12:20]),
		Atime: binary.LittleEndian.Uint64(buf[20:28]),
	}
	var ok bool
	off := statFixedLen
	if st.Owner, off, ok = readCString(buf, off); !ok {
		return Stat{}, formatError("stat", off, len(buf), "unterminated owner")
	}
	if st.Group, off, ok = readCString(buf, off); !ok {
		return Stat{}, formatError("stat", off, len(buf), "unterminated group")
	}
	if off != len(buf) {
		return Stat{}, formatError("stat", off, len(buf), "trailing bytes")
	}
	return st, nil
}
