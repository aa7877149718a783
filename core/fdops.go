package core

import (
	"errors"
	"io/fs"
	"os"
	"syscall"

	"go.uber.org/zap"

	jfslog "github.com/ebogdum/jfsio/core/log"
	"github.com/ebogdum/jfsio/engine"
	"github.com/ebogdum/jfsio/metrics"
	"github.com/ebogdum/jfsio/wire"
)

// Open opens path with os.O_* flags. The engine has no combined
// create-exclusive primitive, so existence is checked with a stat first:
// an existing directory fails with EISDIR, O_EXCL with EEXIST, and O_TRUNC
// truncates to zero. A missing path is created when O_CREAT is set.
func (s *Session) Open(path string, flag int, perm fs.FileMode) (Fd, error) {
	st, err := s.Stat(path)
	switch {
	case err == nil:
		if st.IsDir() {
			return 0, pathError("open", path, syscall.EISDIR)
		}
		if flag&os.O_EXCL != 0 {
			return 0, pathError("open", path, syscall.EEXIST)
		}
		if flag&os.O_TRUNC != 0 {
			if err := s.Truncate(path, 0); err != nil {
				return 0, err
			}
		}
	case errors.Is(err, syscall.ENOENT):
		if flag&os.O_CREATE == 0 {
			return 0, err
		}
		if err := s.Create(path, perm); err != nil {
			return 0, err
		}
	default:
		return 0, err
	}

	access := AccessRead
	switch {
	case flag&os.O_WRONLY != 0:
		access = AccessWrite
	case flag&os.O_RDWR != 0:
		access = AccessReadWrite
	}

	efd, err := s.gw.Open(engine.OnePath, path, int32(access))
	if err != nil {
		return 0, err
	}
	size, err := s.GetSize(path)
	if err != nil {
		_, _ = s.gw.CloseFd(engine.Raw, efd)
		return 0, err
	}

	fd, err := s.fds.Insert(&FileHandle{
		engineFd: efd,
		path:     path,
		flags:    flag,
		access:   access,
		length:   size,
	})
	if err != nil {
		_, _ = s.gw.CloseFd(engine.Raw, efd)
		return 0, err
	}
	s.logger.Debug("Opened file",
		zap.String("path", jfslog.SanitizePath(path)),
		zap.Int32("fd", int32(fd)),
		zap.Stringer("access", access))
	return fd, nil
}

// OpenFile is Open under the name used by package os.
func (s *Session) OpenFile(path string, flag int, perm fs.FileMode) (Fd, error) {
	return s.Open(path, flag, perm)
}

// CloseFd closes fd. Closing an unknown or already closed descriptor fails
// with EBADF.
func (s *Session) CloseFd(fd Fd) error {
	h, err := s.fds.Remove("close", fd)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	_, err = s.gw.CloseFd(engine.NoPath, h.engineFd)
	return err
}

// acquire locks the handle of fd. The caller unlocks it.
func (s *Session) acquire(op string, fd Fd) (*FileHandle, error) {
	h, err := s.fds.Get(op, fd)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, errors.Join(ErrStaleDescriptor, os.NewSyscallError(op, syscall.EBADF))
	}
	return h, nil
}

// Read issues exactly one engine read into p. It returns 0 at end of file.
func (s *Session) Read(fd Fd, p []byte) (int, error) {
	h, err := s.acquire("read", fd)
	if err != nil {
		return 0, err
	}
	defer h.mu.Unlock()
	n, err := s.gw.Read(engine.NoPath, h.engineFd, p)
	if err != nil {
		return 0, err
	}
	metrics.BytesReadTotal.Add(float64(n))
	return n, nil
}

// Pread reads at offset without moving the descriptor position.
func (s *Session) Pread(fd Fd, p []byte, offset int64) (int, error) {
	h, err := s.acquire("pread", fd)
	if err != nil {
		return 0, err
	}
	defer h.mu.Unlock()
	n, err := s.gw.Pread(engine.NoPath, h.engineFd, p, offset)
	if err != nil {
		return 0, err
	}
	metrics.BytesReadTotal.Add(float64(n))
	return n, nil
}

// Write issues exactly one engine write and extends the tracked length to
// cover the bytes written.
func (s *Session) Write(fd Fd, p []byte) (int, error) {
	h, err := s.acquire("write", fd)
	if err != nil {
		return 0, err
	}
	defer h.mu.Unlock()
	pos, err := s.gw.Lseek(engine.NoPath, h.engineFd, 0, engine.SeekCur)
	if err != nil {
		return 0, err
	}
	n, err := s.gw.Write(engine.NoPath, h.engineFd, p)
	if err != nil {
		return 0, err
	}
	h.length = max(h.length, pos+int64(n))
	metrics.BytesWrittenTotal.Add(float64(n))
	return n, nil
}

// Lseek repositions fd. SEEK_END is resolved against the tracked length
// because the engine only understands SEEK_SET and SEEK_CUR.
func (s *Session) Lseek(fd Fd, offset int64, whence int) (int64, error) {
	if whence < 0 || whence > 2 {
		return 0, ErrInvalidWhence
	}
	h, err := s.acquire("lseek", fd)
	if err != nil {
		return 0, err
	}
	defer h.mu.Unlock()
	w := int32(whence)
	if w == engine.SeekEnd {
		w = engine.SeekSet
		offset += h.length
	}
	pos, err := s.gw.Lseek(engine.NoPath, h.engineFd, offset, w)
	if err != nil {
		return 0, err
	}
	return pos, nil
}

// Flush asks the engine to push buffered data for fd.
func (s *Session) Flush(fd Fd) error {
	h, err := s.acquire("flush", fd)
	if err != nil {
		return err
	}
	defer h.mu.Unlock()
	_, err = s.gw.Flush(engine.NoPath, h.engineFd)
	return err
}

func (s *Session) Fsync(fd Fd) error {
	h, err := s.acquire("fsync", fd)
	if err != nil {
		return err
	}
	defer h.mu.Unlock()
	_, err = s.gw.Fsync(engine.NoPath, h.engineFd)
	return err
}

// Fstat stats the path fd was opened with.
func (s *Session) Fstat(fd Fd) (wire.Stat, error) {
	d, err := s.Describe(fd)
	if err != nil {
		return wire.Stat{}, err
	}
	return s.Stat(d.Path)
}

// Ftruncate truncates the file behind fd and sets its tracked length.
func (s *Session) Ftruncate(fd Fd, size int64) error {
	h, err := s.acquire("ftruncate", fd)
	if err != nil {
		return err
	}
	defer h.mu.Unlock()
	if err := s.Truncate(h.path, size); err != nil {
		return err
	}
	// Assigned, not max'd: a shrink must shorten SEEK_END and a grow
	// must extend it.
	h.length = size
	return nil
}

// Describe returns the record of fd.
func (s *Session) Describe(fd Fd) (Descriptor, error) {
	h, err := s.acquire("fstat", fd)
	if err != nil {
		return Descriptor{}, err
	}
	defer h.mu.Unlock()
	return Descriptor{Path: h.path, Flags: h.flags, Access: h.access, Length: h.length}, nil
}
