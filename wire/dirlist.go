package wire

import (
	"encoding/binary"
	"io/fs"
	"path"
)

// DirEntry is one child of a listed directory. Its full path is derived from
// Parent and Name on demand.
type DirEntry struct {
	Name   string
	Parent string
	Stat   Stat
}

func (e DirEntry) Path() string { return path.Join(e.Parent, e.Name) }

func (e DirEntry) IsDir() bool       { return e.Stat.IsDir() }
func (e DirEntry) IsRegular() bool   { return e.Stat.IsRegular() }
func (e DirEntry) IsSymlink() bool   { return e.Stat.IsSymlink() }
func (e DirEntry) Type() fs.FileMode { return e.Stat.FileMode().Type() }

// Info lets DirEntry satisfy fs.DirEntry.
func (e DirEntry) Info() (fs.FileInfo, error) { return FileInfo{name: e.Name, st: e.Stat}, nil }

func (e DirEntry) String() string { return "<DirEntry " + e.Name + ">" }

// DirPage is one decoded listing buffer. When Remaining is zero the listing is
// complete and Cursor is meaningless.
type DirPage struct {
	Entries   []DirEntry
	Remaining uint32
	Cursor    uint32
}

func (p DirPage) Done() bool { return p.Remaining == 0 }

// DecodeDirPage decodes the records packed in buf[:used] followed by the page
// trailer, which the engine places right after the used bytes.
//
// Record layout: u8 nameLen | name | u8 statLen | stat.
// Trailer: u32 remaining, and u32 cursor when remaining is non-zero.
func DecodeDirPage(parent string, buf []byte, used int) (DirPage, error) {
	if used < 0 || used > len(buf) {
		return DirPage{}, formatError("dirlist", 0, len(buf), "reported length out of range")
	}
	var page DirPage
	off := 0
	for off < used {
		nameLen := int(buf[off])
		off++
		if off+nameLen+1 > used {
			return DirPage{}, formatError("dirlist", off, used, "record name overruns page")
		}
		name := string(buf[off : off+nameLen])
		off += nameLen
		statLen := int(buf[off])
		off++
		if off+statLen > used {
			return DirPage{}, formatError("dirlist", off, used, "record stat overruns page")
		}
		st, err := DecodeStat(buf[off : off+statLen])
		if err != nil {
			return DirPage{}, err
		}
		off += statLen
		page.Entries = append(page.Entries, DirEntry{Name: name, Parent: parent, Stat: st})
	}
	if off+4 > len(buf) {
		return DirPage{}, formatError("dirlist", off, len(buf), "missing trailer")
	}
	page.Remaining = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	if page.Remaining == 0 {
		return page, nil
	}
	if off+4 > len(buf) {
		return DirPage{}, formatError("dirlist", off, len(buf), "missing cursor")
	}
	page.Cursor = binary.LittleEndian.Uint32(buf[off : off+4])
	return page, nil
}
