package wire

import (
	"io/fs"
	"time"
)

// FileInfo adapts a Stat to fs.FileInfo.
type FileInfo struct {
	name string
	st   Stat
}

func NewFileInfo(name string, st Stat) FileInfo { return FileInfo{name: name, st: st} }

func (fi FileInfo) Name() string       { return fi.name }
func (fi FileInfo) Size() int64        { return int64(fi.st.Size) }
func (fi FileInfo) Mode() fs.FileMode  { return fi.st.FileMode() }
func (fi FileInfo) ModTime() time.Time { return fi.st.ModTime() }
func (fi FileInfo) IsDir() bool        { return fi.st.IsDir() }
func (fi FileInfo) Sys() any           { return fi.st }
