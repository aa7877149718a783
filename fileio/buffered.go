package fileio

import (
	"bufio"
	"errors"
	"io"
	"io/fs"

	"github.com/ebogdum/jfsio/core"
)

// Stream is what Open returns: a raw File or one of the buffered wrappers.
type Stream interface {
	io.ReadWriteSeeker
	io.Closer
	ReadAll() ([]byte, error)
	ReadLine() ([]byte, error)
	Truncate(size int64) error
	Flush() error
	Sync() error
	Stat() (fs.FileInfo, error)
	Closed() bool
	Name() string
	Mode() string
	Fd() core.Fd
	Readable() bool
	Writable() bool
	Seekable() bool
	IsTerminal() bool
	String() string
}

var (
	_ Stream = (*File)(nil)
	_ Stream = (*BufferedReader)(nil)
	_ Stream = (*BufferedWriter)(nil)
	_ Stream = (*BufferedRandom)(nil)
)

// base holds the methods every buffered wrapper forwards to its raw file.
type base struct {
	raw *File
}

func (b base) Raw() *File                 { return b.raw }
func (b base) Closed() bool               { return b.raw.Closed() }
func (b base) Name() string               { return b.raw.Name() }
func (b base) Mode() string               { return b.raw.Mode() }
func (b base) Fd() core.Fd                { return b.raw.Fd() }
func (b base) Readable() bool             { return b.raw.Readable() }
func (b base) Writable() bool             { return b.raw.Writable() }
func (b base) Seekable() bool             { return b.raw.Seekable() }
func (b base) IsTerminal() bool           { return false }
func (b base) Stat() (fs.FileInfo, error) { return b.raw.Stat() }

func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if err == io.EOF && len(line) > 0 {
		err = nil
	}
	return line, err
}

// fullWriter hands the buffered layers' output to the raw file, retrying
// short writes until p is written or the engine stops making progress.
type fullWriter struct {
	raw *File
}

func (w fullWriter) Write(p []byte) (int, error) {
	var total int
	for total < len(p) {
		n, err := w.raw.Write(p[total:])
		total += n
		if err == io.ErrShortWrite && n > 0 {
			continue
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// drain returns what r has buffered followed by the rest of raw.
func drain(r *bufio.Reader, raw *File) ([]byte, error) {
	head := make([]byte, r.Buffered())
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, err
	}
	rest, err := raw.ReadAll()
	return append(head, rest...), err
}

// BufferedReader is a read-only buffered file.
type BufferedReader struct {
	base
	r *bufio.Reader
}

func NewBufferedReader(raw *File, size int) *BufferedReader {
	return &BufferedReader{base: base{raw}, r: bufio.NewReaderSize(raw, size)}
}

func (b *BufferedReader) Read(p []byte) (int, error) {
	if b.raw.Closed() {
		return 0, b.raw.closedError("read")
	}
	return b.r.Read(p)
}

func (b *BufferedReader) ReadAll() ([]byte, error) {
	if b.raw.Closed() {
		return nil, b.raw.closedError("read")
	}
	return drain(b.r, b.raw)
}

func (b *BufferedReader) ReadLine() ([]byte, error) {
	if b.raw.Closed() {
		return nil, b.raw.closedError("read")
	}
	return readLine(b.r)
}

// Peek returns the next n bytes without consuming them.
func (b *BufferedReader) Peek(n int) ([]byte, error) {
	if b.raw.Closed() {
		return nil, b.raw.closedError("peek")
	}
	return b.r.Peek(n)
}

func (b *BufferedReader) Write([]byte) (int, error) {
	return 0, b.raw.check("write", false, ErrNotWritable)
}

func (b *BufferedReader) Truncate(int64) error {
	return b.raw.check("truncate", false, ErrNotWritable)
}

func (b *BufferedReader) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent {
		offset -= int64(b.r.Buffered())
	}
	pos, err := b.raw.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	b.r.Reset(b.raw)
	return pos, nil
}

func (b *BufferedReader) Flush() error { return b.raw.Flush() }
func (b *BufferedReader) Sync() error  { return b.raw.Sync() }
func (b *BufferedReader) Close() error { return b.raw.Close() }

func (b *BufferedReader) String() string { return describe("BufferedReader", b.raw) }

// BufferedWriter is a write-only buffered file. Data reaches the engine
// when the buffer fills, on Flush, on Seek and on Close.
type BufferedWriter struct {
	base
	w *bufio.Writer
}

func NewBufferedWriter(raw *File, size int) *BufferedWriter {
	return &BufferedWriter{base: base{raw}, w: bufio.NewWriterSize(fullWriter{raw}, size)}
}

func (b *BufferedWriter) Write(p []byte) (int, error) {
	if b.raw.Closed() {
		return 0, b.raw.closedError("write")
	}
	return b.w.Write(p)
}

// Buffered returns the number of bytes not yet handed to the engine.
func (b *BufferedWriter) Buffered() int { return b.w.Buffered() }

func (b *BufferedWriter) Read([]byte) (int, error) {
	return 0, b.raw.check("read", false, ErrNotReadable)
}

func (b *BufferedWriter) ReadAll() ([]byte, error) {
	return nil, b.raw.check("read", false, ErrNotReadable)
}

func (b *BufferedWriter) ReadLine() ([]byte, error) {
	return nil, b.raw.check("read", false, ErrNotReadable)
}

func (b *BufferedWriter) Seek(offset int64, whence int) (int64, error) {
	if err := b.flushBuffer(); err != nil {
		return 0, err
	}
	return b.raw.Seek(offset, whence)
}

func (b *BufferedWriter) Truncate(size int64) error {
	if err := b.flushBuffer(); err != nil {
		return err
	}
	return b.raw.Truncate(size)
}

func (b *BufferedWriter) flushBuffer() error {
	if b.raw.Closed() {
		return b.raw.closedError("flush")
	}
	return b.w.Flush()
}

// Flush writes the buffer out, then flushes the engine.
func (b *BufferedWriter) Flush() error {
	if err := b.flushBuffer(); err != nil {
		return err
	}
	return b.raw.Flush()
}

func (b *BufferedWriter) Sync() error {
	if err := b.flushBuffer(); err != nil {
		return err
	}
	return b.raw.Sync()
}

// Close flushes and closes. The file is closed even when the flush fails.
func (b *BufferedWriter) Close() error {
	if b.raw.Closed() {
		return nil
	}
	return errors.Join(b.Flush(), b.raw.Close())
}

func (b *BufferedWriter) String() string { return describe("BufferedWriter", b.raw) }

// BufferedRandom buffers both directions of a file opened for update.
// Switching from reading to writing drops the read buffer and rewinds the
// raw position to the logical one; switching back flushes the writes.
type BufferedRandom struct {
	base
	r *bufio.Reader
	w *bufio.Writer
}

func NewBufferedRandom(raw *File, size int) *BufferedRandom {
	return &BufferedRandom{
		base: base{raw},
		r:    bufio.NewReaderSize(raw, size),
		w:    bufio.NewWriterSize(fullWriter{raw}, size),
	}
}

func (b *BufferedRandom) flushBuffer() error {
	if b.raw.Closed() {
		return b.raw.closedError("flush")
	}
	return b.w.Flush()
}

func (b *BufferedRandom) dropReadBuffer() error {
	if n := b.r.Buffered(); n > 0 {
		if _, err := b.raw.Seek(-int64(n), io.SeekCurrent); err != nil {
			return err
		}
	}
	b.r.Reset(b.raw)
	return nil
}

func (b *BufferedRandom) Read(p []byte) (int, error) {
	if err := b.flushBuffer(); err != nil {
		return 0, err
	}
	return b.r.Read(p)
}

func (b *BufferedRandom) ReadAll() ([]byte, error) {
	if err := b.flushBuffer(); err != nil {
		return nil, err
	}
	return drain(b.r, b.raw)
}

func (b *BufferedRandom) ReadLine() ([]byte, error) {
	if err := b.flushBuffer(); err != nil {
		return nil, err
	}
	return readLine(b.r)
}

func (b *BufferedRandom) Write(p []byte) (int, error) {
	if b.raw.Closed() {
		return 0, b.raw.closedError("write")
	}
	if err := b.dropReadBuffer(); err != nil {
		return 0, err
	}
	return b.w.Write(p)
}

func (b *BufferedRandom) Seek(offset int64, whence int) (int64, error) {
	if err := b.flushBuffer(); err != nil {
		return 0, err
	}
	if whence == io.SeekCurrent {
		offset -= int64(b.r.Buffered())
	}
	pos, err := b.raw.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	b.r.Reset(b.raw)
	return pos, nil
}

// Truncate resizes the file; a negative size means the logical position.
func (b *BufferedRandom) Truncate(size int64) error {
	pos, err := b.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if size < 0 {
		size = pos
	}
	return b.raw.Truncate(size)
}

func (b *BufferedRandom) Flush() error {
	if err := b.flushBuffer(); err != nil {
		return err
	}
	return b.raw.Flush()
}

func (b *BufferedRandom) Sync() error {
	if err := b.flushBuffer(); err != nil {
		return err
	}
	return b.raw.Sync()
}

func (b *BufferedRandom) Close() error {
	if b.raw.Closed() {
		return nil
	}
	return errors.Join(b.Flush(), b.raw.Close())
}

func (b *BufferedRandom) String() string { return describe("BufferedRandom", b.raw) }
