// Package engine is the call gateway to the storage engine. Lib mirrors the
// engine's fixed function-call ABI; Gateway adds thread identity, the session
// handle and errno translation on top of it.
package engine

// Lib is the engine ABI. Every call returns a signed status: negative values
// are -errno, non-negative values are call specific (a handle, a descriptor,
// a byte count or zero).
//
// Descriptor calls take the engine descriptor where the session handle would
// otherwise go.
type Lib interface {
	Init(name, jsonConf, user, group, superuser, supergroup string) int64
	Term(tid, h int64) int32

	Open(tid, h int64, path string, access int32) int32
	Create(tid, h int64, path string, mode uint16) int32
	Read(tid int64, fd int32, buf []byte) int32
	Pread(tid int64, fd int32, buf []byte, offset int64) int32
	Write(tid int64, fd int32, buf []byte) int32
	Lseek(tid int64, fd int32, offset int64, whence int32) int64
	Flush(tid int64, fd int32) int32
	Fsync(tid int64, fd int32) int32
	Close(tid int64, fd int32) int32

	Stat1(tid, h int64, path string, buf []byte) int32
	Lstat1(tid, h int64, path string, buf []byte) int32
	Mkdir(tid, h int64, path string, mode uint16) int32
	Delete(tid, h int64, path string) int32
	Rmr(tid, h int64, path string) int32
	Rename(tid, h int64, oldpath, newpath string) int32
	Symlink(tid, h int64, target, link string) int32
	Readlink(tid, h int64, path string, buf []byte) int32
	Truncate(tid, h int64, path string, length int64) int32
	Concat(tid, h int64, path string, others []byte) int32
	Chmod(tid, h int64, path string, mode uint16) int32
	SetOwner(tid, h int64, path, user, group string) int32
	Utime(tid, h int64, path string, mtime, atime int64) int32

	GetXattr(tid, h int64, path, name string, buf []byte) int32
	SetXattr(tid, h int64, path, name string, value []byte, flags int32) int32
	RemoveXattr(tid, h int64, path, name string) int32
	ListXattr(tid, h int64, path string, buf []byte) int32

	Listdir(tid, h int64, path string, offset int32, buf []byte) int32
	Access(tid, h int64, path string, mode int32) int32
	Statvfs(tid, h int64, buf []byte) int32
	Summary(tid, h int64, path string, buf []byte) int32
}

// Access rights understood by Open and Access.
const (
	F_OK int32 = 0
	X_OK int32 = 1
	W_OK int32 = 2
	R_OK int32 = 4
)

// Extended attribute flags for SetXattr.
const (
	XATTR_CREATE  int32 = 1
	XATTR_REPLACE int32 = 2
)

// Seek origins accepted by Lseek. The engine implements only SeekSet and
// SeekCur.
const (
	SeekSet int32 = 0
	SeekCur int32 = 1
	SeekEnd int32 = 2
)
