package backends_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ebogdum/jfsio/backends"
	"github.com/ebogdum/jfsio/backends/localfs"
	"github.com/ebogdum/jfsio/backends/memory"
)

func adapters(t *testing.T) map[string]backends.Storage {
	t.Helper()
	local, err := localfs.NewLocalFSAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFSAdapter: %v", err)
	}
	return map[string]backends.Storage{
		"memory":  memory.NewMemoryAdapter(),
		"localfs": local,
	}
}

func TestStorageLifecycle(t *testing.T) {
	for name, s := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			defer s.Close()

			if _, err := s.Open(ctx, "chunks/1"); !errors.Is(err, backends.ErrNotFound) {
				t.Fatalf("Open missing: expected ErrNotFound, got %v", err)
			}
			data, err := backends.ReadAll(ctx, s, "chunks/1")
			if err != nil || len(data) != 0 {
				t.Fatalf("ReadAll missing = %q, %v", data, err)
			}

			if err := s.Update(ctx, "chunks/1", strings.NewReader("hello"), 5); err != nil {
				t.Fatalf("Update: %v", err)
			}
			if err := s.Update(ctx, "chunks/1", strings.NewReader("hi"), 2); err != nil {
				t.Fatalf("second Update: %v", err)
			}
			data, err = backends.ReadAll(ctx, s, "chunks/1")
			if err != nil || string(data) != "hi" {
				t.Errorf("ReadAll = %q, %v", data, err)
			}
			if size, err := s.Size(ctx, "chunks/1"); err != nil || size != 2 {
				t.Errorf("Size = %d, %v", size, err)
			}

			if err := s.Delete(ctx, "chunks/1"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := s.Delete(ctx, "chunks/1"); !errors.Is(err, backends.ErrNotFound) {
				t.Errorf("second Delete: expected ErrNotFound, got %v", err)
			}
			if _, err := s.Size(ctx, "chunks/1"); !errors.Is(err, backends.ErrNotFound) {
				t.Errorf("Size after delete: expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestLocalFSRejectsTraversal(t *testing.T) {
	s, err := localfs.NewLocalFSAdapter(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Update(context.Background(), "../outside", strings.NewReader("x"), 1); err == nil {
		t.Error("expected traversal to be rejected")
	}
}

func TestThrottledUpdate(t *testing.T) {
	inner := memory.NewMemoryAdapter()
	if got := backends.NewThrottled(inner, 0); got != backends.Storage(inner) {
		t.Error("a zero rate must not wrap the storage")
	}

	s := backends.NewThrottled(inner, 1<<20)
	payload := bytes.Repeat([]byte("x"), 100<<10)
	start := time.Now()
	if err := s.Update(context.Background(), "k", bytes.NewReader(payload), int64(len(payload))); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("throttled upload far slower than its rate")
	}
	data, _ := backends.ReadAll(context.Background(), s, "k")
	if !bytes.Equal(data, payload) {
		t.Error("throttled upload corrupted content")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := backends.NewThrottled(memory.NewMemoryAdapter(), 1)
	if err := slow.Update(ctx, "k", bytes.NewReader(payload), int64(len(payload))); err == nil {
		t.Error("expected a cancelled context to abort a throttled upload")
	}
}
