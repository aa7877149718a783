package core

import (
	"errors"
	"syscall"
	"testing"
)

func TestDescriptorTable(t *testing.T) {
	table := NewDescriptorTable()

	a, err := table.Insert(&FileHandle{path: "/a"})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := table.Insert(&FileHandle{path: "/b"})
	if a == b || a <= 0 || b <= 0 {
		t.Fatalf("descriptors %d and %d", a, b)
	}
	if h, err := table.Get("read", b); err != nil || h.path != "/b" {
		t.Fatalf("Get(b) = %v, %v", h, err)
	}

	if _, err := table.Remove("close", a); err != nil {
		t.Fatal(err)
	}
	c, _ := table.Insert(&FileHandle{path: "/c"})
	if c.slot() != a.slot() || c.gen() != a.gen()+1 {
		t.Errorf("reused slot: a=%#x c=%#x", a, c)
	}

	tests := []struct {
		name  string
		fd    Fd
		stale bool
	}{
		{name: "closed", fd: a, stale: true},
		{name: "never issued slot", fd: makeFd(50, 1)},
		{name: "future generation", fd: makeFd(c.slot(), c.gen()+3)},
		{name: "zero", fd: 0},
		{name: "negative", fd: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := table.Get("read", tt.fd)
			if !errors.Is(err, syscall.EBADF) {
				t.Fatalf("Get error = %v, want EBADF", err)
			}
			if got := errors.Is(err, ErrStaleDescriptor); got != tt.stale {
				t.Errorf("stale = %v, want %v", got, tt.stale)
			}
		})
	}

	if n := table.Len(); n != 2 {
		t.Errorf("Len = %d", n)
	}
	if open := table.Open(); len(open) != 2 {
		t.Errorf("Open = %v", open)
	}
}

func TestAccessString(t *testing.T) {
	for access, want := range map[Access]string{
		AccessRead:      "read",
		AccessWrite:     "write",
		AccessReadWrite: "read-write",
	} {
		if got := access.String(); got != want {
			t.Errorf("%d.String() = %q", access, got)
		}
	}
	if !AccessReadWrite.CanRead() || !AccessReadWrite.CanWrite() || AccessWrite.CanRead() {
		t.Error("access predicates are wrong")
	}
}
