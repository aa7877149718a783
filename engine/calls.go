package engine

// Each method forwards one ABI call. The arity argument is the call site's
// declaration of how many path arguments to attach to a failure; pass Raw to
// interpret the status yourself.

func (g *Gateway) Open(a Arity, path string, access int32) (int32, error) {
	code, err := g.call("open", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Open(tid, g.handle, path, access))
	})
	return int32(code), err
}

func (g *Gateway) Create(a Arity, path string, mode uint16) (int, error) {
	code, err := g.call("create", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Create(tid, g.handle, path, mode))
	})
	return int(code), err
}

func (g *Gateway) Read(a Arity, fd int32, buf []byte) (int, error) {
	code, err := g.call("read", a, nil, func(tid int64) int64 {
		return int64(g.lib.Read(tid, fd, buf))
	})
	return int(code), err
}

func (g *Gateway) Pread(a Arity, fd int32, buf []byte, offset int64) (int, error) {
	code, err := g.call("pread", a, nil, func(tid int64) int64 {
		return int64(g.lib.Pread(tid, fd, buf, offset))
	})
	return int(code), err
}

func (g *Gateway) Write(a Arity, fd int32, buf []byte) (int, error) {
	code, err := g.call("write", a, nil, func(tid int64) int64 {
		return int64(g.lib.Write(tid, fd, buf))
	})
	return int(code), err
}

func (g *Gateway) Lseek(a Arity, fd int32, offset int64, whence int32) (int64, error) {
	return g.call("lseek", a, nil, func(tid int64) int64 {
		return g.lib.Lseek(tid, fd, offset, whence)
	})
}

func (g *Gateway) Flush(a Arity, fd int32) (int, error) {
	code, err := g.call("flush", a, nil, func(tid int64) int64 {
		return int64(g.lib.Flush(tid, fd))
	})
	return int(code), err
}

func (g *Gateway) Fsync(a Arity, fd int32) (int, error) {
	code, err := g.call("fsync", a, nil, func(tid int64) int64 {
		return int64(g.lib.Fsync(tid, fd))
	})
	return int(code), err
}

// CloseFd releases an engine descriptor.
func (g *Gateway) CloseFd(a Arity, fd int32) (int, error) {
	code, err := g.call("close", a, nil, func(tid int64) int64 {
		return int64(g.lib.Close(tid, fd))
	})
	return int(code), err
}

func (g *Gateway) Stat(a Arity, path string, buf []byte) (int, error) {
	code, err := g.call("stat1", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Stat1(tid, g.handle, path, buf))
	})
	return int(code), err
}

func (g *Gateway) Lstat(a Arity, path string, buf []byte) (int, error) {
	code, err := g.call("lstat1", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Lstat1(tid, g.handle, path, buf))
	})
	return int(code), err
}

func (g *Gateway) Mkdir(a Arity, path string, mode uint16) (int, error) {
	code, err := g.call("mkdir", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Mkdir(tid, g.handle, path, mode))
	})
	return int(code), err
}

func (g *Gateway) Delete(a Arity, path string) (int, error) {
	code, err := g.call("delete", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Delete(tid, g.handle, path))
	})
	return int(code), err
}

func (g *Gateway) Rmr(a Arity, path string) (int, error) {
	code, err := g.call("rmr", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Rmr(tid, g.handle, path))
	})
	return int(code), err
}

func (g *Gateway) Rename(a Arity, oldpath, newpath string) (int, error) {
	code, err := g.call("rename", a, []string{oldpath, newpath}, func(tid int64) int64 {
		return int64(g.lib.Rename(tid, g.handle, oldpath, newpath))
	})
	return int(code), err
}

func (g *Gateway) Symlink(a Arity, target, link string) (int, error) {
	code, err := g.call("symlink", a, []string{target, link}, func(tid int64) int64 {
		return int64(g.lib.Symlink(tid, g.handle, target, link))
	})
	return int(code), err
}

func (g *Gateway) Readlink(a Arity, path string, buf []byte) (int, error) {
	code, err := g.call("readlink", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Readlink(tid, g.handle, path, buf))
	})
	return int(code), err
}

func (g *Gateway) Truncate(a Arity, path string, length int64) (int, error) {
	code, err := g.call("truncate", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Truncate(tid, g.handle, path, length))
	})
	return int(code), err
}

// Concat appends the files named in others, a NUL separated list, to path.
func (g *Gateway) Concat(a Arity, path string, others []byte) (int, error) {
	code, err := g.call("concat", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Concat(tid, g.handle, path, others))
	})
	return int(code), err
}

func (g *Gateway) Chmod(a Arity, path string, mode uint16) (int, error) {
	code, err := g.call("chmod", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Chmod(tid, g.handle, path, mode))
	})
	return int(code), err
}

func (g *Gateway) SetOwner(a Arity, path, user, group string) (int, error) {
	code, err := g.call("setOwner", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.SetOwner(tid, g.handle, path, user, group))
	})
	return int(code), err
}

// Utime sets modification and access times, both in milliseconds.
func (g *Gateway) Utime(a Arity, path string, mtime, atime int64) (int, error) {
	code, err := g.call("utime", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Utime(tid, g.handle, path, mtime, atime))
	})
	return int(code), err
}

func (g *Gateway) GetXattr(a Arity, path, name string, buf []byte) (int, error) {
	code, err := g.call("getXattr", a, []string{path, name}, func(tid int64) int64 {
		return int64(g.lib.GetXattr(tid, g.handle, path, name, buf))
	})
	return int(code), err
}

func (g *Gateway) SetXattr(a Arity, path, name string, value []byte, flags int32) (int, error) {
	code, err := g.call("setXattr", a, []string{path, name}, func(tid int64) int64 {
		return int64(g.lib.SetXattr(tid, g.handle, path, name, value, flags))
	})
	return int(code), err
}

func (g *Gateway) RemoveXattr(a Arity, path, name string) (int, error) {
	code, err := g.call("removeXattr", a, []string{path, name}, func(tid int64) int64 {
		return int64(g.lib.RemoveXattr(tid, g.handle, path, name))
	})
	return int(code), err
}

func (g *Gateway) ListXattr(a Arity, path string, buf []byte) (int, error) {
	code, err := g.call("listXattr", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.ListXattr(tid, g.handle, path, buf))
	})
	return int(code), err
}

// Listdir fills buf with one page of the listing of path starting at the
// continuation cursor offset.
func (g *Gateway) Listdir(a Arity, path string, offset int32, buf []byte) (int, error) {
	code, err := g.call("listdir", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Listdir(tid, g.handle, path, offset, buf))
	})
	return int(code), err
}

func (g *Gateway) Access(a Arity, path string, mode int32) (int, error) {
	code, err := g.call("access", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Access(tid, g.handle, path, mode))
	})
	return int(code), err
}

func (g *Gateway) Statvfs(a Arity, buf []byte) (int, error) {
	code, err := g.call("statvfs", a, nil, func(tid int64) int64 {
		return int64(g.lib.Statvfs(tid, g.handle, buf))
	})
	return int(code), err
}

func (g *Gateway) Summary(a Arity, path string, buf []byte) (int, error) {
	code, err := g.call("summary", a, []string{path}, func(tid int64) int64 {
		return int64(g.lib.Summary(tid, g.handle, path, buf))
	})
	return int(code), err
}
