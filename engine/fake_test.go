package engine

import "sync"

type recordedCall struct {
	op   string
	tid  int64
	h    int64
	args []any
}

// recordingLib returns the status configured for an op (zero by default)
// and remembers every call.
type recordingLib struct {
	mu     sync.Mutex
	handle int64
	codes  map[string]int64
	calls  []recordedCall
}

func newRecordingLib() *recordingLib {
	return &recordingLib{handle: 7, codes: map[string]int64{}}
}

func (l *recordingLib) record(op string, tid, h int64, args ...any) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, recordedCall{op: op, tid: tid, h: h, args: args})
	return l.codes[op]
}

func (l *recordingLib) last() recordedCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[len(l.calls)-1]
}

func (l *recordingLib) Init(name, jsonConf, user, group, superuser, supergroup string) int64 {
	l.record("init", 0, 0, name, jsonConf, user, group, superuser, supergroup)
	return l.handle
}
func (l *recordingLib) Term(tid, h int64) int32 { return int32(l.record("term", tid, h)) }
func (l *recordingLib) Open(tid, h int64, path string, access int32) int32 {
	return int32(l.record("open", tid, h, path, access))
}
func (l *recordingLib) Create(tid, h int64, path string, mode uint16) int32 {
	return int32(l.record("create", tid, h, path, mode))
}
func (l *recordingLib) Read(tid int64, fd int32, buf []byte) int32 {
	return int32(l.record("read", tid, int64(fd), len(buf)))
}
func (l *recordingLib) Pread(tid int64, fd int32, buf []byte, offset int64) int32 {
	return int32(l.record("pread", tid, int64(fd), len(buf), offset))
}
func (l *recordingLib) Write(tid int64, fd int32, buf []byte) int32 {
	return int32(l.record("write", tid, int64(fd), string(buf)))
}
func (l *recordingLib) Lseek(tid int64, fd int32, offset int64, whence int32) int64 {
	return l.record("lseek", tid, int64(fd), offset, whence)
}
func (l *recordingLib) Flush(tid int64, fd int32) int32 {
	return int32(l.record("flush", tid, int64(fd)))
}
func (l *recordingLib) Fsync(tid int64, fd int32) int32 {
	return int32(l.record("fsync", tid, int64(fd)))
}
func (l *recordingLib) Close(tid int64, fd int32) int32 {
	return int32(l.record("close", tid, int64(fd)))
}
func (l *recordingLib) Stat1(tid, h int64, path string, buf []byte) int32 {
	return int32(l.record("stat1", tid, h, path))
}
func (l *recordingLib) Lstat1(tid, h int64, path string, buf []byte) int32 {
	return int32(l.record("lstat1", tid, h, path))
}
func (l *recordingLib) Mkdir(tid, h int64, path string, mode uint16) int32 {
	return int32(l.record("mkdir", tid, h, path, mode))
}
func (l *recordingLib) Delete(tid, h int64, path string) int32 {
	return int32(l.record("delete", tid, h, path))
}
func (l *recordingLib) Rmr(tid, h int64, path string) int32 {
	return int32(l.record("rmr", tid, h, path))
}
func (l *recordingLib) Rename(tid, h int64, oldpath, newpath string) int32 {
	return int32(l.record("rename", tid, h, oldpath, newpath))
}
func (l *recordingLib) Symlink(tid, h int64, target, link string) int32 {
	return int32(l.record("symlink", tid, h, target, link))
}
func (l *recordingLib) Readlink(tid, h int64, path string, buf []byte) int32 {
	return int32(l.record("readlink", tid, h, path))
}
func (l *recordingLib) Truncate(tid, h int64, path string, length int64) int32 {
	return int32(l.record("truncate", tid, h, path, length))
}
func (l *recordingLib) Concat(tid, h int64, path string, others []byte) int32 {
	return int32(l.record("concat", tid, h, path, string(others)))
}
func (l *recordingLib) Chmod(tid, h int64, path string, mode uint16) int32 {
	return int32(l.record("chmod", tid, h, path, mode))
}
func (l *recordingLib) SetOwner(tid, h int64, path, user, group string) int32 {
	return int32(l.record("setOwner", tid, h, path, user, group))
}
func (l *recordingLib) Utime(tid, h int64, path string, mtime, atime int64) int32 {
	return int32(l.record("utime", tid, h, path, mtime, atime))
}
func (l *recordingLib) GetXattr(tid, h int64, path, name string, buf []byte) int32 {
	return int32(l.record("getXattr", tid, h, path, name))
}
func (l *recordingLib) SetXattr(tid, h int64, path, name string, value []byte, flags int32) int32 {
	return int32(l.record("setXattr", tid, h, path, name, string(value), flags))
}
func (l *recordingLib) RemoveXattr(tid, h int64, path, name string) int32 {
	return int32(l.record("removeXattr", tid, h, path, name))
}
func (l *recordingLib) ListXattr(tid, h int64, path string, buf []byte) int32 {
	return int32(l.record("listXattr", tid, h, path))
}
func (l *recordingLib) Listdir(tid, h int64, path string, offset int32, buf []byte) int32 {
	return int32(l.record("listdir", tid, h, path, offset))
}
func (l *recordingLib) Access(tid, h int64, path string, mode int32) int32 {
	return int32(l.record("access", tid, h, path, mode))
}
func (l *recordingLib) Statvfs(tid, h int64, buf []byte) int32 {
	return int32(l.record("statvfs", tid, h))
}
func (l *recordingLib) Summary(tid, h int64, path string, buf []byte) int32 {
	return int32(l.record("summary", tid, h, path))
}
