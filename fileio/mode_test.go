package fileio

import (
	"errors"
	"os"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		mode  string
		str   string
		flags int
	}{
		{"r", "rb", os.O_RDONLY},
		{"rb", "rb", os.O_RDONLY},
		{"rt", "rb", os.O_RDONLY},
		{"U", "rb", os.O_RDONLY},
		{"rU", "rb", os.O_RDONLY},
		{"r+", "rb+", os.O_RDWR},
		{"w", "wb", os.O_CREATE | os.O_TRUNC | os.O_WRONLY},
		{"w+", "rb+", os.O_CREATE | os.O_TRUNC | os.O_RDWR},
		{"a", "ab", os.O_CREATE | os.O_APPEND | os.O_WRONLY},
		{"ab+", "ab+", os.O_CREATE | os.O_APPEND | os.O_RDWR},
		{"x", "xb", os.O_CREATE | os.O_EXCL | os.O_WRONLY},
		{"+xb", "xb+", os.O_CREATE | os.O_EXCL | os.O_RDWR},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			m, err := parseMode(tt.mode)
			if err != nil {
				t.Fatalf("parseMode(%q): %v", tt.mode, err)
			}
			if got := m.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
			if got := m.flags(); got != tt.flags {
				t.Errorf("flags() = %#x, want %#x", got, tt.flags)
			}
		})
	}
}

func TestParseModeInvalid(t *testing.T) {
	for _, mode := range []string{"", "+", "b", "rw", "rr", "wx", "ra", "q", "rbt", "Uw", "U+", "Ua", "r b"} {
		t.Run(mode, func(t *testing.T) {
			if _, err := parseMode(mode); !errors.Is(err, ErrInvalidMode) {
				t.Errorf("parseMode(%q) error = %v, want ErrInvalidMode", mode, err)
			}
		})
	}
}
