package handlers

import (
	"fmt"
	"time"

	"github.com/ebogdum/jfsio/wire"
)

// FileInfo is the JSON form of one inode.
type FileInfo struct {
	Path   string    `json:"path"`
	Name   string    `json:"name"`
	Type   string    `json:"type"` // "file", "directory" or "symlink"
	Size   uint64    `json:"size"`
	Mode   string    `json:"mode"`
	MTime  time.Time `json:"mtime"`
	ATime  time.Time `json:"atime"`
	Owner  string    `json:"owner"`
	Group  string    `json:"group"`
	Target string    `json:"target,omitempty"`
}

func newFileInfo(p, name string, st wire.Stat) FileInfo {
	kind := "file"
	switch {
	case st.IsDir():
		kind = "directory"
	case st.IsSymlink():
		kind = "symlink"
	}
	return FileInfo{
		Path:  p,
		Name:  name,
		Type:  kind,
		Size:  st.Size,
		Mode:  fmt.Sprintf("%04o", uint32(st.Perm())|st.Mode&0o7000),
		MTime: st.ModTime().UTC(),
		ATime: st.AccessTime().UTC(),
		Owner: st.Owner,
		Group: st.Group,
	}
}
