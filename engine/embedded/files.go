package embedded

import (
	"math"
	"syscall"
	"time"

	"github.com/ebogdum/jfsio/engine"
	"github.com/ebogdum/jfsio/metadata"
)

// Open opens an existing file or directory and returns an engine
// descriptor.
func (e *Engine) Open(tid, h int64, p string, access int32) int32 {
	var f *openFile
	code := e.withSession(h, "open", p, func(s *session, v *volume) int32 {
		md, code := v.lookup(s, p, true)
		if code < 0 {
			return code
		}
		writable := access&engine.W_OK != 0
		if writable && md.IsDir() {
			return neg(syscall.EISDIR)
		}
		if writable && v.opts.ReadOnly {
			return neg(syscall.EROFS)
		}
		if !s.allowed(md, uint32(access&(engine.R_OK|engine.W_OK))) {
			return neg(syscall.EACCES)
		}
		f = &openFile{sess: s, access: access, dir: md.IsDir()}
		if !md.IsDir() {
			ino, code := v.acquire(md)
			if code < 0 {
				return code
			}
			f.ino = ino
		}
		return 0
	})
	if code < 0 {
		return code
	}
	return e.register(f)
}

func (e *Engine) register(f *openFile) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	for {
		if e.nextFd == math.MaxInt32 {
			e.nextFd = 0
		}
		e.nextFd++
		if _, used := e.files[e.nextFd]; !used {
			e.files[e.nextFd] = f
			return e.nextFd
		}
	}
}

// Create makes an empty regular file. It does not open it.
func (e *Engine) Create(tid, h int64, p string, mode uint16) int32 {
	return e.withSession(h, "create", p, func(s *session, v *volume) int32 {
		return v.mknod(s, p, metadata.TypeFile, uint32(mode), nil)
	})
}

func (e *Engine) Read(tid int64, fd int32, buf []byte) int32 {
	return e.withFile(fd, "read", func(f *openFile, v *volume) int32 {
		n, code := f.readAt(buf, f.pos)
		if code < 0 {
			return code
		}
		f.pos += int64(n)
		return int32(n)
	})
}

func (e *Engine) Pread(tid int64, fd int32, buf []byte, offset int64) int32 {
	return e.withFile(fd, "pread", func(f *openFile, v *volume) int32 {
		if offset < 0 {
			return neg(syscall.EINVAL)
		}
		n, code := f.readAt(buf, offset)
		if code < 0 {
			return code
		}
		return int32(n)
	})
}

func (f *openFile) readAt(buf []byte, off int64) (int, int32) {
	if f.dir {
		return 0, neg(syscall.EISDIR)
	}
	if f.access&engine.R_OK == 0 {
		return 0, neg(syscall.EBADF)
	}
	if off >= int64(len(f.ino.data)) {
		return 0, 0
	}
	return copy(buf, f.ino.data[off:]), 0
}

// Write stores buf at the descriptor position, extending the file with
// zeros when the position lies beyond the end.
func (e *Engine) Write(tid int64, fd int32, buf []byte) int32 {
	return e.withFile(fd, "write", func(f *openFile, v *volume) int32 {
		if f.access&engine.W_OK == 0 || f.dir {
			return neg(syscall.EBADF)
		}
		ino := f.ino
		end := f.pos + int64(len(buf))
		if end > int64(len(ino.data)) {
			ino.data = resize(ino.data, end)
		}
		copy(ino.data[f.pos:end], buf)
		f.pos = end
		ino.dirty = true
		ino.mtime = time.Now().UTC()
		return int32(len(buf))
	})
}

// Lseek moves the descriptor position. Only SeekSet and SeekCur are
// implemented.
func (e *Engine) Lseek(tid int64, fd int32, offset int64, whence int32) int64 {
	var pos int64
	code := e.withFile(fd, "lseek", func(f *openFile, v *volume) int32 {
		switch whence {
		case engine.SeekSet:
			pos = offset
		case engine.SeekCur:
			pos = f.pos + offset
		default:
			return neg(syscall.EINVAL)
		}
		if pos < 0 {
			return neg(syscall.EINVAL)
		}
		f.pos = pos
		return 0
	})
	if code < 0 {
		return int64(code)
	}
	return pos
}

func (e *Engine) Flush(tid int64, fd int32) int32 {
	return e.withFile(fd, "flush", func(f *openFile, v *volume) int32 {
		if f.ino == nil {
			return 0
		}
		return v.persist(f.ino, "flush")
	})
}

func (e *Engine) Fsync(tid int64, fd int32) int32 {
	return e.withFile(fd, "fsync", func(f *openFile, v *volume) int32 {
		if f.ino == nil {
			return 0
		}
		return v.persist(f.ino, "flush")
	})
}

// Close releases the descriptor. The content is persisted when this was the
// last descriptor of the inode.
func (e *Engine) Close(tid int64, fd int32) int32 {
	e.mu.Lock()
	f, ok := e.files[fd]
	if ok {
		delete(e.files, fd)
	}
	e.mu.Unlock()
	if !ok {
		return neg(syscall.EBADF)
	}
	start := time.Now()
	v := f.sess.vol
	v.mu.Lock()
	var code int32
	p := ""
	if f.ino != nil {
		p = f.ino.path
		code = v.release(f.ino, "close")
	}
	v.mu.Unlock()
	v.logAccess(f.sess, "close", p, code, start)
	return code
}

// resize sets the length of data to n, zeroing any newly exposed bytes.
func resize(data []byte, n int64) []byte {
	if n <= int64(len(data)) {
		return data[:n]
	}
	if n <= int64(cap(data)) {
		old := len(data)
		data = data[:n]
		clear(data[old:])
		return data
	}
	grown := make([]byte, n, max(n, int64(cap(data))*2))
	copy(grown, data)
	return grown
}
