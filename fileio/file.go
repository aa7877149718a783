// Package fileio provides file objects over a core.Session: an unbuffered
// File that maps each call onto one engine call, and buffered readers and
// writers layered on top of it.
package fileio

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"runtime"
	"slices"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/core"
	jfslog "github.com/ebogdum/jfsio/core/log"
	"github.com/ebogdum/jfsio/metrics"
	"github.com/ebogdum/jfsio/wire"
)

// DefaultBufferSize is the buffer size used when buffering is negative.
const DefaultBufferSize = 8 << 10

// fileState is the part of a File a leak cleanup may touch. It must not
// point back at the File.
type fileState struct {
	sess   *core.Session
	fd     core.Fd
	name   string
	closed atomic.Bool
}

func (st *fileState) reclaim() {
	if st.closed.Swap(true) {
		return
	}
	metrics.UnclosedFilesTotal.Inc()
	logger := st.sess.Logger()
	logger.Warn("Unclosed file",
		zap.String("path", jfslog.SanitizePath(st.name)),
		zap.Int32("fd", int32(st.fd)))
	if err := st.sess.CloseFd(st.fd); err != nil {
		logger.Debug("Failed to close reclaimed file", zap.Error(err))
	}
}

// File is an unbuffered file. Read and Write issue exactly one engine call
// each and may transfer fewer bytes than requested.
type File struct {
	st      *fileState
	mode    openMode
	cleanup *runtime.Cleanup
}

func openFile(sess *core.Session, name string, m openMode, o options) (*File, error) {
	fd, err := sess.Open(name, m.flags(), o.perm)
	if err != nil {
		return nil, err
	}
	if m.appending {
		if _, err := sess.Lseek(fd, 0, io.SeekEnd); err != nil {
			_ = sess.CloseFd(fd)
			return nil, err
		}
	}
	f := &File{st: &fileState{sess: sess, fd: fd, name: name}, mode: m}
	if o.leakCheck {
		c := runtime.AddCleanup(f, (*fileState).reclaim, f.st)
		f.cleanup = &c
	}
	return f, nil
}

func (f *File) closedError(op string) error {
	return &fs.PathError{Op: op, Path: f.st.name, Err: fs.ErrClosed}
}

func (f *File) check(op string, allowed bool, denied error) error {
	if f.st.closed.Load() {
		return f.closedError(op)
	}
	if !allowed {
		return &fs.PathError{Op: op, Path: f.st.name, Err: denied}
	}
	return nil
}

// Read reads up to len(p) bytes with a single engine call. It returns
// io.EOF at end of file.
func (f *File) Read(p []byte) (int, error) {
	if err := f.check("read", f.mode.readable(), ErrNotReadable); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := f.st.sess.Read(f.st.fd, p)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadAll reads until end of file. The initial buffer is sized from the
// bytes left past the current position and grows if the file does.
func (f *File) ReadAll() ([]byte, error) {
	if err := f.check("read", f.mode.readable(), ErrNotReadable); err != nil {
		return nil, err
	}
	hint := DefaultBufferSize
	if st, err := f.st.sess.Fstat(f.st.fd); err == nil {
		if pos, err := f.st.sess.Lseek(f.st.fd, 0, io.SeekCurrent); err == nil && int64(st.Size) >= pos {
			hint = int(int64(st.Size)-pos) + 1
		}
	}

	buf := make([]byte, 0, hint)
	for {
		if len(buf) == cap(buf) {
			buf = slices.Grow(buf, max(cap(buf), DefaultBufferSize))
		}
		n, err := f.st.sess.Read(f.st.fd, buf[len(buf):cap(buf)])
		if err != nil {
			return buf, err
		}
		if n == 0 {
			return buf, nil
		}
		buf = buf[:len(buf)+n]
	}
}

// ReadLine reads through the next newline one byte at a time. The final
// line may lack the newline; io.EOF is returned only when nothing is left.
func (f *File) ReadLine() ([]byte, error) {
	var line []byte
	var one [1]byte
	for {
		n, err := f.Read(one[:])
		if n > 0 {
			line = append(line, one[0])
			if one[0] == '\n' {
				return line, nil
			}
		}
		if err == io.EOF && len(line) > 0 {
			return line, nil
		}
		if err != nil {
			return line, err
		}
	}
}

// Write writes p with a single engine call and reports how much the
// engine accepted. In append mode every write first seeks to the end.
func (f *File) Write(p []byte) (int, error) {
	if err := f.check("write", f.mode.writable(), ErrNotWritable); err != nil {
		return 0, err
	}
	if f.mode.appending {
		if _, err := f.st.sess.Lseek(f.st.fd, 0, io.SeekEnd); err != nil {
			return 0, err
		}
	}
	n, err := f.st.sess.Write(f.st.fd, p)
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.st.closed.Load() {
		return 0, f.closedError("seek")
	}
	return f.st.sess.Lseek(f.st.fd, offset, whence)
}

// Tell returns the current position.
func (f *File) Tell() (int64, error) { return f.Seek(0, io.SeekCurrent) }

// Truncate resizes the file. A negative size truncates at the current
// position. The position is left unchanged.
func (f *File) Truncate(size int64) error {
	if err := f.check("truncate", f.mode.writable(), ErrNotWritable); err != nil {
		return err
	}
	if size < 0 {
		pos, err := f.Tell()
		if err != nil {
			return err
		}
		size = pos
	}
	return f.st.sess.Ftruncate(f.st.fd, size)
}

// Flush asks the engine to push its buffered data.
func (f *File) Flush() error {
	if f.st.closed.Load() {
		return f.closedError("flush")
	}
	return f.st.sess.Flush(f.st.fd)
}

func (f *File) Sync() error {
	if f.st.closed.Load() {
		return f.closedError("sync")
	}
	return f.st.sess.Fsync(f.st.fd)
}

func (f *File) Stat() (fs.FileInfo, error) {
	if f.st.closed.Load() {
		return nil, f.closedError("stat")
	}
	st, err := f.st.sess.Fstat(f.st.fd)
	if err != nil {
		return nil, err
	}
	return wire.NewFileInfo(path.Base(f.st.name), st), nil
}

// Close releases the descriptor. Closing twice is a no-op.
func (f *File) Close() error {
	if f.st.closed.Swap(true) {
		return nil
	}
	if f.cleanup != nil {
		f.cleanup.Stop()
	}
	return f.st.sess.CloseFd(f.st.fd)
}

func (f *File) Closed() bool     { return f.st.closed.Load() }
func (f *File) Name() string     { return f.st.name }
func (f *File) Fd() core.Fd      { return f.st.fd }
func (f *File) Mode() string     { return f.mode.String() }
func (f *File) Readable() bool   { return !f.Closed() && f.mode.readable() }
func (f *File) Writable() bool   { return !f.Closed() && f.mode.writable() }
func (f *File) Seekable() bool   { return !f.Closed() }
func (f *File) IsTerminal() bool { return false }

func (f *File) String() string {
	return describe("File", f)
}

func describe(kind string, f *File) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "<fileio.%s", kind)
	if f.Closed() {
		b.WriteString(" [closed]>")
		return b.String()
	}
	fmt.Fprintf(&b, " name=%q mode=%q>", f.Name(), f.Mode())
	return b.String()
}
