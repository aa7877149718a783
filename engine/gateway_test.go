package engine

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func connect(t *testing.T, lib *recordingLib) *Gateway {
	t.Helper()
	g, err := Connect(lib, "vol", []byte(`{"meta":""}`), Identity{User: "alice", Group: "nogroup", Superuser: "root", Supergroup: "nogroup"}, nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return g
}

func TestConnect(t *testing.T) {
	lib := newRecordingLib()
	g := connect(t, lib)
	if g.Handle() != 7 || g.Name() != "vol" {
		t.Errorf("handle=%d name=%q", g.Handle(), g.Name())
	}
	ic := lib.calls[0]
	want := []any{"vol", `{"meta":""}`, "alice", "nogroup", "root", "nogroup"}
	for i, v := range want {
		if ic.args[i] != v {
			t.Errorf("init arg %d = %v, want %v", i, ic.args[i], v)
		}
	}

	for _, h := range []int64{0, -5} {
		lib := newRecordingLib()
		lib.handle = h
		_, err := Connect(lib, "broken", nil, Identity{}, nil)
		if !errors.Is(err, ErrInitFailed) {
			t.Errorf("handle %d: expected ErrInitFailed, got %v", h, err)
		}
	}
}

func TestGatewayInjectsThreadAndHandle(t *testing.T) {
	lib := newRecordingLib()
	g := connect(t, lib)

	if _, err := g.Mkdir(OnePath, "/d", 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	c := lib.last()
	if c.h != 7 {
		t.Errorf("handle = %d, want 7", c.h)
	}
	if c.tid == 0 {
		t.Error("thread id was not injected")
	}
	if c.args[0] != "/d" || c.args[1] != uint16(0o755) {
		t.Errorf("args = %v", c.args)
	}

	if _, err := g.Read(NoPath, 42, make([]byte, 10)); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if c := lib.last(); c.h != 42 {
		t.Errorf("descriptor calls must pass the fd in the handle position, got %d", c.h)
	}
}

func TestGatewayErrorArity(t *testing.T) {
	tests := []struct {
		name  string
		call  func(g *Gateway) (int, error)
		op    string
		check func(t *testing.T, err error)
	}{
		{
			name: "no path",
			op:   "statvfs",
			call: func(g *Gateway) (int, error) { return g.Statvfs(NoPath, nil) },
			check: func(t *testing.T, err error) {
				var se *os.SyscallError
				if !errors.As(err, &se) || se.Syscall != "statvfs" {
					t.Errorf("expected SyscallError, got %#v", err)
				}
			},
		},
		{
			name: "one path",
			op:   "stat1",
			call: func(g *Gateway) (int, error) { return g.Stat(OnePath, "/missing", nil) },
			check: func(t *testing.T, err error) {
				var pe *fs.PathError
				if !errors.As(err, &pe) || pe.Path != "/missing" {
					t.Errorf("expected PathError for /missing, got %#v", err)
				}
			},
		},
		{
			name: "two paths",
			op:   "rename",
			call: func(g *Gateway) (int, error) { return g.Rename(TwoPaths, "/a", "/b") },
			check: func(t *testing.T, err error) {
				var le *os.LinkError
				if !errors.As(err, &le) || le.Old != "/a" || le.New != "/b" {
					t.Errorf("expected LinkError /a -> /b, got %#v", err)
				}
			},
		},
		{
			name: "one path declared on two path call",
			op:   "rename",
			call: func(g *Gateway) (int, error) { return g.Rename(OnePath, "/a", "/b") },
			check: func(t *testing.T, err error) {
				var pe *fs.PathError
				if !errors.As(err, &pe) || pe.Path != "/a" {
					t.Errorf("expected PathError for /a, got %#v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := newRecordingLib()
			lib.codes[tt.op] = -int64(syscall.ENOENT)
			g := connect(t, lib)

			code, err := tt.call(g)
			if code != -int(syscall.ENOENT) {
				t.Errorf("code = %d", code)
			}
			if !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("expected ErrNotExist, got %v", err)
			}
			tt.check(t, err)
		})
	}
}

func TestGatewayRawReturnsCode(t *testing.T) {
	lib := newRecordingLib()
	lib.codes["access"] = -int64(syscall.EACCES)
	g := connect(t, lib)

	code, err := g.Access(Raw, "/x", R_OK)
	if err != nil {
		t.Fatalf("raw call must not fail: %v", err)
	}
	if code != -int(syscall.EACCES) {
		t.Errorf("code = %d", code)
	}
}

func TestGatewayClose(t *testing.T) {
	lib := newRecordingLib()
	g := connect(t, lib)

	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	terms := 0
	for _, c := range lib.calls {
		if c.op == "term" {
			terms++
		}
	}
	if terms != 1 {
		t.Errorf("term called %d times", terms)
	}

	_, err := g.Stat(OnePath, "/x", nil)
	if !errors.Is(err, syscall.EBADF) {
		t.Errorf("expected EBADF after close, got %v", err)
	}
}

func TestGatewayLogsCalls(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	lib := newRecordingLib()
	g, err := Connect(lib, "vol", nil, Identity{User: "u"}, zap.New(core))
	if err != nil {
		t.Fatal(err)
	}
	lib.codes["delete"] = -int64(syscall.ENOTEMPTY)
	_, err = g.Delete(OnePath, "/dir")
	if !errors.Is(err, syscall.ENOTEMPTY) {
		t.Fatalf("expected ENOTEMPTY, got %v", err)
	}

	entries := logs.FilterMessage("Engine call").All()
	if len(entries) != 1 {
		t.Fatalf("got %d call log entries", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["op"] != "delete" || ctx["code"] != -int64(syscall.ENOTEMPTY) {
		t.Errorf("log context = %v", ctx)
	}
}

func TestStatusError(t *testing.T) {
	if err := StatusError("x", 0, OnePath, "/p"); err != nil {
		t.Errorf("zero status produced %v", err)
	}
	err := StatusError("x", -int64(syscall.EEXIST), OnePath, "/p")
	if errno, ok := Errno(err); !ok || errno != syscall.EEXIST {
		t.Errorf("Errno = %v, %v", errno, ok)
	}
}
