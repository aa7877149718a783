//go:build darwin || linux

package native

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ebogdum/jfsio/engine"
)

func TestLoadMissingLibrary(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "libjfs-missing.so"))
	if err == nil {
		t.Fatal("expected an error for a missing library")
	}
	if !strings.Contains(err.Error(), "failed to load engine library") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPtr(t *testing.T) {
	if ptr(nil) != nil || ptr([]byte{}) != nil {
		t.Error("empty buffers must map to nil")
	}
	buf := []byte{1, 2, 3}
	if *(*byte)(ptr(buf)) != 1 {
		t.Error("ptr must address the first byte")
	}
}

func TestLibraryImplementsLib(t *testing.T) {
	var lib any = (*Library)(nil)
	if _, ok := lib.(engine.Lib); !ok {
		t.Fatal("*Library does not implement engine.Lib")
	}
	var unload func(*Library) error = (*Library).Unload
	if unload == nil {
		t.Fatal("missing Unload")
	}
}
