package fileio

import (
	"errors"
	"io"
	"io/fs"
	"runtime"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ebogdum/jfsio/core"
	"github.com/ebogdum/jfsio/engine/embedded"
)

func newSession(t *testing.T, logger *zap.Logger) *core.Session {
	t.Helper()
	if logger == nil {
		logger = zaptest.NewLogger(t)
	}
	sess, err := core.NewSession(embedded.New(nil), core.Config{
		Name:       "fileio",
		User:       "root",
		Group:      "root",
		Superuser:  "root",
		Supergroup: "root",
	}, nil, logger)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

func openRaw(t *testing.T, sess *core.Session, name, mode string) *File {
	t.Helper()
	s, err := Open(sess, name, mode, WithBuffering(0))
	if err != nil {
		t.Fatalf("Open(%s, %s): %v", name, mode, err)
	}
	f, ok := s.(*File)
	if !ok {
		t.Fatalf("unbuffered Open returned %T", s)
	}
	return f
}

func readFile(t *testing.T, sess *core.Session, name string) string {
	t.Helper()
	f := openRaw(t, sess, name, "rb")
	defer f.Close()
	data, err := f.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll(%s): %v", name, err)
	}
	return string(data)
}

func TestRawReadWrite(t *testing.T) {
	sess := newSession(t, nil)

	f := openRaw(t, sess, "/raw", "w+")
	if n, err := f.Write([]byte("hello world")); n != 11 || err != nil {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if pos, _ := f.Tell(); pos != 11 {
		t.Errorf("Tell = %d", pos)
	}
	if _, err := f.Seek(6, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 3)
	if n, err := f.Read(buf); n != 3 || err != nil || string(buf) != "wor" {
		t.Errorf("Read = %d %q, %v", n, buf, err)
	}
	rest, err := f.ReadAll()
	if err != nil || string(rest) != "ld" {
		t.Errorf("ReadAll = %q, %v", rest, err)
	}
	if n, err := f.Read(buf); n != 0 || err != io.EOF {
		t.Errorf("Read at end = %d, %v", n, err)
	}
	if pos, _ := f.Seek(-5, io.SeekEnd); pos != 6 {
		t.Errorf("Seek(-5, End) = %d", pos)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestRawTruncate(t *testing.T) {
	sess := newSession(t, nil)
	f := openRaw(t, sess, "/t", "w+")
	defer f.Close()

	f.Write([]byte("0123456789"))
	f.Seek(4, io.SeekStart)
	if err := f.Truncate(-1); err != nil {
		t.Fatal(err)
	}
	if pos, _ := f.Seek(0, io.SeekEnd); pos != 4 {
		t.Errorf("length after Truncate(-1) = %d", pos)
	}
	if err := f.Truncate(8); err != nil {
		t.Fatal(err)
	}
	info, err := f.Stat()
	if err != nil || info.Size() != 8 || info.Name() != "t" {
		t.Errorf("Stat = %v, %v", info, err)
	}
	f.Seek(0, io.SeekStart)
	data, _ := f.ReadAll()
	if string(data) != "0123\x00\x00\x00\x00" {
		t.Errorf("content = %q", data)
	}
}

func TestReadLine(t *testing.T) {
	sess := newSession(t, nil)
	w := openRaw(t, sess, "/lines", "w")
	w.Write([]byte("one\ntwo\nthree"))
	w.Close()

	for _, buffering := range []int{0, -1, 16} {
		s, err := Open(sess, "/lines", "r", WithBuffering(buffering))
		if err != nil {
			t.Fatal(err)
		}
		var lines []string
		for {
			line, err := s.ReadLine()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatal(err)
			}
			lines = append(lines, string(line))
		}
		s.Close()
		if got := strings.Join(lines, "|"); got != "one\n|two\n|three" {
			t.Errorf("buffering %d: lines = %q", buffering, got)
		}
	}
}

func TestAppendAcrossOpens(t *testing.T) {
	sess := newSession(t, nil)
	for _, record := range []string{"first\n", "second\n", "third\n"} {
		s, err := Open(sess, "/log", "ab")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.Write([]byte(record)); err != nil {
			t.Fatal(err)
		}
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
	}
	if got := readFile(t, sess, "/log"); got != "first\nsecond\nthird\n" {
		t.Errorf("content = %q", got)
	}
}

func TestAppendSeeksBeforeEveryWrite(t *testing.T) {
	sess := newSession(t, nil)
	f := openRaw(t, sess, "/a", "a+")
	defer f.Close()

	f.Write([]byte("abc"))
	f.Seek(0, io.SeekStart)
	f.Write([]byte("def"))
	f.Seek(0, io.SeekStart)
	data, err := f.ReadAll()
	if err != nil || string(data) != "abcdef" {
		t.Errorf("content = %q, %v", data, err)
	}
}

func TestAppendAcrossSessions(t *testing.T) {
	lib := embedded.New(nil)
	cfg := core.Config{Name: "shared", User: "root", Group: "root", Superuser: "root", Supergroup: "root"}
	for _, record := range []string{"one", "two"} {
		sess, err := core.NewSession(lib, cfg, nil, zaptest.NewLogger(t))
		if err != nil {
			t.Fatal(err)
		}
		f := openRaw(t, sess, "/shared", "ab")
		f.Write([]byte(record))
		f.Close()
		if record == "two" {
			if got := readFile(t, sess, "/shared"); got != "onetwo" {
				t.Errorf("content = %q", got)
			}
		}
		// Keep the volume alive until the last session reads it back.
		if record == "one" {
			t.Cleanup(func() { sess.Close() })
		} else {
			sess.Close()
		}
	}
}

func TestClosedFile(t *testing.T) {
	sess := newSession(t, nil)
	for _, buffering := range []int{0, -1} {
		s, err := Open(sess, "/c", "w+", WithBuffering(buffering))
		if err != nil {
			t.Fatal(err)
		}
		s.Close()
		if !s.Closed() || s.Readable() || s.Writable() || s.Seekable() {
			t.Errorf("%T reports usable after Close", s)
		}
		checks := map[string]error{}
		_, checks["read"] = s.Read(make([]byte, 1))
		_, checks["write"] = s.Write([]byte("x"))
		_, checks["seek"] = s.Seek(0, io.SeekStart)
		checks["flush"] = s.Flush()
		checks["truncate"] = s.Truncate(0)
		_, checks["readall"] = s.ReadAll()
		for op, err := range checks {
			if !errors.Is(err, fs.ErrClosed) {
				t.Errorf("%T %s after Close: %v", s, op, err)
			}
		}
		if err := s.Close(); err != nil {
			t.Errorf("%T second Close: %v", s, err)
		}
		if !strings.Contains(s.String(), "[closed]") {
			t.Errorf("String() = %q", s.String())
		}
	}
}

func TestAccessChecks(t *testing.T) {
	sess := newSession(t, nil)

	w := openRaw(t, sess, "/f", "w")
	defer w.Close()
	_, err := w.Read(make([]byte, 1))
	if !errors.Is(err, ErrNotReadable) || !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("Read on write-only file: %v", err)
	}

	r := openRaw(t, sess, "/f", "r")
	defer r.Close()
	if _, err := r.Write([]byte("x")); !errors.Is(err, ErrNotWritable) {
		t.Errorf("Write on read-only file: %v", err)
	}
	if err := r.Truncate(0); !errors.Is(err, ErrNotWritable) {
		t.Errorf("Truncate on read-only file: %v", err)
	}
	if r.Writable() || !r.Readable() || r.IsTerminal() {
		t.Error("read-only predicates are wrong")
	}
}

func TestOpenErrors(t *testing.T) {
	sess := newSession(t, nil)
	if _, err := Open(sess, "/missing", "r"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open(missing) error = %v", err)
	}
	f := openRaw(t, sess, "/once", "x")
	f.Close()
	if _, err := Open(sess, "/once", "x"); !errors.Is(err, fs.ErrExist) {
		t.Errorf("Open(x, existing) error = %v", err)
	}
	if _, err := Open(sess, "/once", "rt", WithBuffering(0)); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("unbuffered text open error = %v", err)
	}
	if _, err := Open(sess, "/once", "rw"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("Open(rw) error = %v", err)
	}
}

func TestModeAndString(t *testing.T) {
	sess := newSession(t, nil)
	f := openRaw(t, sess, "/m", "x+")
	defer f.Close()
	if f.Mode() != "xb+" || f.Name() != "/m" || f.Fd() <= 0 {
		t.Errorf("Mode %q Name %q Fd %d", f.Mode(), f.Name(), f.Fd())
	}
	if got := f.String(); got != `<fileio.File name="/m" mode="xb+">` {
		t.Errorf("String() = %q", got)
	}
}

func leakFile(t *testing.T, sess *core.Session) {
	s, err := Open(sess, "/leak", "w", WithBuffering(0), WithLeakCheck(true))
	if err != nil {
		t.Fatal(err)
	}
	s.Write([]byte("leaked"))
}

func TestLeakWarning(t *testing.T) {
	obsCore, logs := observer.New(zapcore.WarnLevel)
	sess := newSession(t, zap.New(obsCore))

	leakFile(t, sess)
	deadline := time.Now().Add(5 * time.Second)
	for logs.FilterMessage("Unclosed file").Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no warning for the unclosed file")
		}
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	if size, err := sess.GetSize("/leak"); err != nil || size != 6 {
		t.Errorf("size after reclaim = %d, %v", size, err)
	}

	closed, err := Open(sess, "/closed", "w", WithBuffering(0), WithLeakCheck(true))
	if err != nil {
		t.Fatal(err)
	}
	closed.Close()
	runtime.GC()
	time.Sleep(20 * time.Millisecond)
	if n := logs.FilterMessage("Unclosed file").Len(); n != 1 {
		t.Errorf("got %d leak warnings, want 1", n)
	}
}
