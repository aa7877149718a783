//go:build darwin || linux

// Package native loads the engine shared library (libjfs) at run time and
// exposes it as an engine.Lib.
package native

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/ebogdum/jfsio/engine"
)

// Library is a loaded libjfs. Buffers are passed as pointer plus length.
type Library struct {
	handle uintptr

	jfsInit        func(name, conf, user, group, superuser, supergroup string) int64
	jfsTerm        func(tid, h int64) int32
	jfsOpen        func(tid, h int64, path string, flags int32) int32
	jfsCreate      func(tid, h int64, path string, mode uint16) int32
	jfsRead        func(tid int64, fd int32, buf unsafe.Pointer, size int32) int32
	jfsPread       func(tid int64, fd int32, buf unsafe.Pointer, size int32, offset int64) int32
	jfsWrite       func(tid int64, fd int32, buf unsafe.Pointer, size int32) int32
	jfsLseek       func(tid int64, fd int32, offset int64, whence int32) int64
	jfsFlush       func(tid int64, fd int32) int32
	jfsFsync       func(tid int64, fd int32) int32
	jfsClose       func(tid int64, fd int32) int32
	jfsStat1       func(tid, h int64, path string, buf unsafe.Pointer) int32
	jfsLstat1      func(tid, h int64, path string, buf unsafe.Pointer) int32
	jfsMkdir       func(tid, h int64, path string, mode uint16) int32
	jfsDelete      func(tid, h int64, path string) int32
	jfsRmr         func(tid, h int64, path string) int32
	jfsRename      func(tid, h int64, oldpath, newpath string) int32
	jfsSymlink     func(tid, h int64, target, link string) int32
	jfsReadlink    func(tid, h int64, path string, buf unsafe.Pointer, size int32) int32
	jfsTruncate    func(tid, h int64, path string, length int64) int32
	jfsConcat      func(tid, h int64, path string, buf unsafe.Pointer, size int32) int32
	jfsChmod       func(tid, h int64, path string, mode uint16) int32
	jfsSetOwner    func(tid, h int64, path, user, group string) int32
	jfsUtime       func(tid, h int64, path string, mtime, atime int64) int32
	jfsGetXattr    func(tid, h int64, path, name string, buf unsafe.Pointer, size int32) int32
	jfsSetXattr    func(tid, h int64, path, name string, value unsafe.Pointer, size, flags int32) int32
	jfsRemoveXattr func(tid, h int64, path, name string) int32
	jfsListXattr   func(tid, h int64, path string, buf unsafe.Pointer, size int32) int32
	jfsListdir     func(tid, h int64, path string, offset int32, buf unsafe.Pointer, size int32) int32
	jfsAccess      func(tid, h int64, path string, mode int32) int32
	jfsStatvfs     func(tid, h int64, buf unsafe.Pointer) int32
	jfsSummary     func(tid, h int64, path string, buf unsafe.Pointer) int32
}

var _ engine.Lib = (*Library)(nil)

// Load opens the shared library at path and resolves every jfs_* symbol.
func Load(path string) (*Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("failed to load engine library %s: %w", path, err)
	}

	l := &Library{handle: handle}
	symbols := []struct {
		name string
		fn   any
	}{
		{"jfs_init", &l.jfsInit},
		{"jfs_term", &l.jfsTerm},
		{"jfs_open", &l.jfsOpen},
		{"jfs_create", &l.jfsCreate},
		{"jfs_read", &l.jfsRead},
		{"jfs_pread", &l.jfsPread},
		{"jfs_write", &l.jfsWrite},
		{"jfs_lseek", &l.jfsLseek},
		{"jfs_flush", &l.jfsFlush},
		{"jfs_fsync", &l.jfsFsync},
		{"jfs_close", &l.jfsClose},
		{"jfs_stat1", &l.jfsStat1},
		{"jfs_lstat1", &l.jfsLstat1},
		{"jfs_mkdir", &l.jfsMkdir},
		{"jfs_delete", &l.jfsDelete},
		{"jfs_rmr", &l.jfsRmr},
		{"jfs_rename", &l.jfsRename},
		{"jfs_symlink", &l.jfsSymlink},
		{"jfs_readlink", &l.jfsReadlink},
		{"jfs_truncate", &l.jfsTruncate},
		{"jfs_concat", &l.jfsConcat},
		{"jfs_chmod", &l.jfsChmod},
		{"jfs_setOwner", &l.jfsSetOwner},
		{"jfs_utime", &l.jfsUtime},
		{"jfs_getXattr", &l.jfsGetXattr},
		{"jfs_setXattr", &l.jfsSetXattr},
		{"jfs_removeXattr", &l.jfsRemoveXattr},
		{"jfs_listXattr", &l.jfsListXattr},
		{"jfs_listdir", &l.jfsListdir},
		{"jfs_access", &l.jfsAccess},
		{"jfs_statvfs", &l.jfsStatvfs},
		{"jfs_summary", &l.jfsSummary},
	}
	for _, s := range symbols {
		sym, err := purego.Dlsym(handle, s.name)
		if err != nil {
			_ = purego.Dlclose(handle)
			return nil, fmt.Errorf("engine library %s lacks %s: %w", path, s.name, err)
		}
		purego.RegisterFunc(s.fn, sym)
	}
	return l, nil
}

// Unload closes the library. No session may be active.
func (l *Library) Unload() error {
	return purego.Dlclose(l.handle)
}

// ptr returns the address of the first byte of buf, or nil for an empty
// buffer. The slice must stay reachable for the duration of the call, which
// every method guarantees by holding it as a parameter.
func ptr(buf []byte) unsafe.Pointer {
	if len(buf) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(buf))
}

func (l *Library) Init(name, jsonConf, user, group, superuser, supergroup string) int64 {
	return l.jfsInit(name, jsonConf, user, group, superuser, supergroup)
}

func (l *Library) Term(tid, h int64) int32 { return l.jfsTerm(tid, h) }

func (l *Library) Open(tid, h int64, path string, access int32) int32 {
	return l.jfsOpen(tid, h, path, access)
}

func (l *Library) Create(tid, h int64, path string, mode uint16) int32 {
	return l.jfsCreate(tid, h, path, mode)
}

func (l *Library) Read(tid int64, fd int32, buf []byte) int32 {
	return l.jfsRead(tid, fd, ptr(buf), int32(len(buf)))
}

func (l *Library) Pread(tid int64, fd int32, buf []byte, offset int64) int32 {
	return l.jfsPread(tid, fd, ptr(buf), int32(len(buf)), offset)
}

func (l *Library) Write(tid int64, fd int32, buf []byte) int32 {
	return l.jfsWrite(tid, fd, ptr(buf), int32(len(buf)))
}

func (l *Library) Lseek(tid int64, fd int32, offset int64, whence int32) int64 {
	return l.jfsLseek(tid, fd, offset, whence)
}

func (l *Library) Flush(tid int64, fd int32) int32 { return l.jfsFlush(tid, fd) }
func (l *Library) Fsync(tid int64, fd int32) int32 { return l.jfsFsync(tid, fd) }
func (l *Library) Close(tid int64, fd int32) int32 { return l.jfsClose(tid, fd) }

func (l *Library) Stat1(tid, h int64, path string, buf []byte) int32 {
	return l.jfsStat1(tid, h, path, ptr(buf))
}

func (l *Library) Lstat1(tid, h int64, path string, buf []byte) int32 {
	return l.jfsLstat1(tid, h, path, ptr(buf))
}

func (l *Library) Mkdir(tid, h int64, path string, mode uint16) int32 {
	return l.jfsMkdir(tid, h, path, mode)
}

func (l *Library) Delete(tid, h int64, path string) int32 { return l.jfsDelete(tid, h, path) }
func (l *Library) Rmr(tid, h int64, path string) int32    { return l.jfsRmr(tid, h, path) }

func (l *Library) Rename(tid, h int64, oldpath, newpath string) int32 {
	return l.jfsRename(tid, h, oldpath, newpath)
}

func (l *Library) Symlink(tid, h int64, target, link string) int32 {
	return l.jfsSymlink(tid, h, target, link)
}

func (l *Library) Readlink(tid, h int64, path string, buf []byte) int32 {
	return l.jfsReadlink(tid, h, path, ptr(buf), int32(len(buf)))
}

func (l *Library) Truncate(tid, h int64, path string, length int64) int32 {
	return l.jfsTruncate(tid, h, path, length)
}

func (l *Library) Concat(tid, h int64, path string, others []byte) int32 {
	return l.jfsConcat(tid, h, path, ptr(others), int32(len(others)))
}

func (l *Library) Chmod(tid, h int64, path string, mode uint16) int32 {
	return l.jfsChmod(tid, h, path, mode)
}

func (l *Library) SetOwner(tid, h int64, path, user, group string) int32 {
	return l.jfsSetOwner(tid, h, path, user, group)
}

func (l *Library) Utime(tid, h int64, path string, mtime, atime int64) int32 {
	return l.jfsUtime(tid, h, path, mtime, atime)
}

func (l *Library) GetXattr(tid, h int64, path, name string, buf []byte) int32 {
	return l.jfsGetXattr(tid, h, path, name, ptr(buf), int32(len(buf)))
}

func (l *Library) SetXattr(tid, h int64, path, name string, value []byte, flags int32) int32 {
	return l.jfsSetXattr(tid, h, path, name, ptr(value), int32(len(value)), flags)
}

func (l *Library) RemoveXattr(tid, h int64, path, name string) int32 {
	return l.jfsRemoveXattr(tid, h, path, name)
}

func (l *Library) ListXattr(tid, h int64, path string, buf []byte) int32 {
	return l.jfsListXattr(tid, h, path, ptr(buf), int32(len(buf)))
}

func (l *Library) Listdir(tid, h int64, path string, offset int32, buf []byte) int32 {
	return l.jfsListdir(tid, h, path, offset, ptr(buf), int32(len(buf)))
}

func (l *Library) Access(tid, h int64, path string, mode int32) int32 {
	return l.jfsAccess(tid, h, path, mode)
}

func (l *Library) Statvfs(tid, h int64, buf []byte) int32 {
	return l.jfsStatvfs(tid, h, ptr(buf))
}

func (l *Library) Summary(tid, h int64, path string, buf []byte) int32 {
	return l.jfsSummary(tid, h, path, ptr(buf))
}
