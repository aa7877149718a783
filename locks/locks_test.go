package locks

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLocalManager(t *testing.T) {
	ctx := context.Background()
	m := NewLocalManager()

	ok, err := m.Acquire(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("first Acquire = %v, %v", ok, err)
	}
	if ok, _ := m.Acquire(ctx, "k"); ok {
		t.Error("second Acquire of a held lock succeeded")
	}
	if ok, _ := m.Acquire(ctx, "other"); !ok {
		t.Error("independent keys must not conflict")
	}
	if err := m.Release(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := m.Acquire(ctx, "k"); !ok {
		t.Error("Acquire after Release failed")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := m.Acquire(cancelled, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWait(t *testing.T) {
	m := NewLocalManager()
	ctx := context.Background()
	if _, err := m.Acquire(ctx, "k"); err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = m.Release(ctx, "k")
	}()
	if err := Wait(ctx, m, "k", time.Millisecond); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := Wait(short, m, "k", time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestInodeKey(t *testing.T) {
	if got := InodeKey("vol", 42); got != "vol:inode:42" {
		t.Errorf("InodeKey = %q", got)
	}
}

func TestWaitWokenByRelease(t *testing.T) {
	m := NewLocalManager()
	ctx := t.Context()
	if _, err := m.Acquire(ctx, "k"); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- Wait(ctx, m, "k", time.Hour) }()
	time.Sleep(10 * time.Millisecond)
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait was not woken by the release")
	}
	if ok, _ := m.Acquire(ctx, "k"); ok {
		t.Error("lock taken by the waiter was acquired again")
	}
}
