package pathutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		err      error
	}{
		{name: "root", input: "/", expected: "/"},
		{name: "absolute", input: "/a/b", expected: "/a/b"},
		{name: "relative is rooted", input: "dir/file.txt", expected: "/dir/file.txt"},
		{name: "trailing slash", input: "/dir/", expected: "/dir"},
		{name: "duplicate slashes", input: "//a///b", expected: "/a/b"},
		{name: "safe relative navigation", input: "/dir/../file.txt", expected: "/file.txt"},
		{name: "current directory", input: "./file.txt", expected: "/file.txt"},
		{name: "escape above root", input: "/../etc", err: ErrEscapesRoot},
		{name: "mixed traversal", input: "dir/../../etc/passwd", err: ErrEscapesRoot},
		{name: "empty", input: "", err: ErrInvalidPath},
		{name: "null byte", input: "/a\x00b", err: ErrInvalidPath},
		{name: "control character", input: "/a\nb", err: ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Clean(tt.input)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("Clean(%q) error = %v, want %v", tt.input, err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Clean(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in, parent, name string
	}{
		{"/", "/", ""},
		{"/a", "/", "a"},
		{"/a/b", "/a", "b"},
		{"/a/b/c", "/a/b", "c"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			parent, name := Split(tt.in)
			if parent != tt.parent || name != tt.name {
				t.Errorf("Split(%q) = %q, %q", tt.in, parent, name)
			}
		})
	}
}

func TestIsWithin(t *testing.T) {
	tests := []struct {
		p, dir string
		want   bool
	}{
		{"/a/b", "/a", true},
		{"/a", "/a", true},
		{"/ab", "/a", false},
		{"/x", "/", true},
	}
	for _, tt := range tests {
		if got := IsWithin(tt.p, tt.dir); got != tt.want {
			t.Errorf("IsWithin(%q, %q) = %v", tt.p, tt.dir, got)
		}
	}
}

func TestSafeJoin(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(root, "escape")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	tests := []struct {
		name     string
		rel      string
		expected string
		err      error
	}{
		{name: "plain key", rel: "chunks/1", expected: filepath.Join(root, "chunks", "1")},
		{name: "traversal", rel: "../../etc/passwd", err: ErrEscapesRoot},
		{name: "through symlink", rel: "escape/file", err: ErrEscapesRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeJoin(root, tt.rel)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("SafeJoin error = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SafeJoin: %v", err)
			}
			if got != tt.expected {
				t.Errorf("SafeJoin = %q, want %q", got, tt.expected)
			}
		})
	}
}
