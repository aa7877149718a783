package wire

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

func TestStatRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		st   Stat
	}{
		{
			name: "regular file",
			st:   Stat{Mode: S_IFREG | 0o644, Size: 42, Mtime: 1700000000123, Atime: 1700000000456, Owner: "alice", Group: "staff"},
		},
		{
			name: "directory with sticky bit",
			st:   Stat{Mode: S_IFDIR | S_ISVTX | 0o777, Size: 4096, Mtime: 1, Atime: 2, Owner: "root", Group: "nogroup"},
		},
		{
			name: "setuid setgid symlink",
			st:   Stat{Mode: S_IFLNK | S_ISUID | S_ISGID | 0o755, Size: 9, Owner: "", Group: ""},
		},
		{
			name: "large size",
			st:   Stat{Mode: S_IFREG, Size: 1<<63 + 7, Mtime: 1<<64 - 1, Atime: 0, Owner: "u", Group: "g"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeStat(EncodeStat(tt.st))
			if err != nil {
				t.Fatalf("DecodeStat: %v", err)
			}
			if got != tt.st {
				t.Errorf("round trip = %+v, want %+v", got, tt.st)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		name string
		raw  uint32
		want uint32
	}{
		{"regular", 0o644, S_IFREG | 0o644},
		{"directory", 1<<31 | 0o755, S_IFDIR | 0o755},
		{"symlink", 1<<27 | 0o777, S_IFLNK | 0o777},
		{"directory wins over symlink", 1<<31 | 1<<27, S_IFDIR},
		{"setuid", 1<<23 | 0o700, S_IFREG | S_ISUID | 0o700},
		{"setgid", 1<<22, S_IFREG | S_ISGID},
		{"sticky", 1<<31 | 1<<20 | 0o777, S_IFDIR | S_ISVTX | 0o777},
		{"high permission noise ignored", 0o7777, S_IFREG | 0o777},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseMode(tt.raw); got != tt.want {
				t.Errorf("ParseMode(%#o) = %#o, want %#o", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeStatRejectsMalformed(t *testing.T) {
	valid := EncodeStat(Stat{Mode: S_IFREG | 0o600, Size: 1, Owner: "a", Group: "b"})

	tests := []struct {
		name string
		buf  []byte
	}{
		{"short header", valid[:10]},
		{"unterminated owner", valid[:statFixedLen+1]},
		{"unterminated group", valid[:len(valid)-1]},
		{"trailing bytes", append(append([]byte{}, valid...), 'x')},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStat(tt.buf)
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FormatError, got %v", err)
			}
			if fe.Format != "stat" {
				t.Errorf("Format = %q, want stat", fe.Format)
			}
		})
	}
}

func TestDecodeStatVfs(t *testing.T) {
	vfs, err := DecodeStatVfs(EncodeStatVfs(1000, 300))
	if err != nil {
		t.Fatalf("DecodeStatVfs: %v", err)
	}
	want := StatVfs{Bsize: 1, Blocks: 1000, Bfree: 700, Bavail: 300, Namemax: 255}
	if vfs != want {
		t.Errorf("got %+v, want %+v", vfs, want)
	}

	if _, err := DecodeStatVfs(make([]byte, 15)); err == nil {
		t.Error("expected error for short statvfs buffer")
	}
}

func TestDecodeSummary(t *testing.T) {
	want := Summary{Size: 123, Files: 4, Dirs: 2}
	got, err := DecodeSummary(EncodeSummary(want))
	if err != nil {
		t.Fatalf("DecodeSummary: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.String() != "<Summary size=123 files=4 dirs=2>" {
		t.Errorf("String() = %q", got.String())
	}
}

func TestDecodeXattrNames(t *testing.T) {
	buf := make([]byte, 64)
	copy(buf, EncodeXattrNames([]string{"user.a", "user.b", "user.a"}))
	// garbage past the reported length must be ignored
	copy(buf[21:], "user.ghost\x00")

	names, err := DecodeXattrNames(buf, 21)
	if err != nil {
		t.Fatalf("DecodeXattrNames: %v", err)
	}
	want := []string{"user.a", "user.b", "user.a"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}

	empty, err := DecodeXattrNames(buf, 0)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty list = %v, %v", empty, err)
	}

	if _, err := DecodeXattrNames(buf, 65); err == nil {
		t.Error("expected error when length exceeds buffer")
	}
}

func buildPage(t *testing.T, names []string, remaining, cursor uint32, capacity int) ([]byte, int) {
	t.Helper()
	var buf []byte
	var err error
	for i, name := range names {
		st := EncodeStat(Stat{Mode: S_IFREG | 0o644, Size: uint64(i), Owner: "owner-" + name, Group: "g"})
		buf, err = AppendDirRecord(buf, name, st)
		if err != nil {
			t.Fatal(err)
		}
	}
	used := len(buf)
	buf = AppendDirTrailer(buf, remaining, cursor)
	if capacity > len(buf) {
		buf = append(buf, make([]byte, capacity-len(buf))...)
	}
	return buf, used
}

func TestDecodeDirPage(t *testing.T) {
	t.Run("final page", func(t *testing.T) {
		buf, used := buildPage(t, []string{"a", "bb", "ccc"}, 0, 0, 128)
		page, err := DecodeDirPage("/dir", buf, used)
		if err != nil {
			t.Fatalf("DecodeDirPage: %v", err)
		}
		if !page.Done() {
			t.Error("expected final page")
		}
		if len(page.Entries) != 3 {
			t.Fatalf("entries = %d, want 3", len(page.Entries))
		}
		if page.Entries[1].Path() != "/dir/bb" || page.Entries[1].Stat.Owner != "owner-bb" {
			t.Errorf("entry = %+v", page.Entries[1])
		}
	})

	t.Run("continuation page", func(t *testing.T) {
		buf, used := buildPage(t, []string{"x"}, 5, 77, 0)
		page, err := DecodeDirPage("/", buf, used)
		if err != nil {
			t.Fatalf("DecodeDirPage: %v", err)
		}
		if page.Done() || page.Remaining != 5 || page.Cursor != 77 {
			t.Errorf("trailer = remaining %d cursor %d", page.Remaining, page.Cursor)
		}
		if page.Entries[0].Path() != "/x" {
			t.Errorf("path = %q", page.Entries[0].Path())
		}
	})

	t.Run("record overruns used length", func(t *testing.T) {
		buf, used := buildPage(t, []string{"abc"}, 0, 0, 64)
		_, err := DecodeDirPage("/", buf, used-1)
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("expected FormatError, got %v", err)
		}
	})

	t.Run("missing cursor", func(t *testing.T) {
		buf, used := buildPage(t, []string{"abc"}, 0, 0, 0)
		binary.LittleEndian.PutUint32(buf[used:], 3)
		if _, err := DecodeDirPage("/", buf, used); err == nil {
			t.Error("expected error for truncated trailer")
		}
	})
}

func TestAppendDirRecordLimits(t *testing.T) {
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'n'
	}
	if _, err := AppendDirRecord(nil, string(long), nil); !errors.Is(err, ErrRecordTooLarge) {
		t.Errorf("expected ErrRecordTooLarge, got %v", err)
	}
}

func TestUsedBounds(t *testing.T) {
	buf := make([]byte, 8)
	if got, err := Used("stat", buf, 5); err != nil || len(got) != 5 {
		t.Errorf("Used(5) = %d bytes, %v", len(got), err)
	}
	for _, n := range []int{-1, 9} {
		_, err := Used("stat", buf, n)
		var fe *FormatError
		if !errors.As(err, &fe) || fe.Length != 8 {
			t.Errorf("Used(%d) error = %v", n, err)
		}
	}
}
