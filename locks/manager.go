// Package locks serializes uploads of the same inode, within one process or
// across processes sharing a Redis metadata store.
package locks

import (
	"context"
	"fmt"
	"time"
)

// Manager defines the interface for inode locking
type Manager interface {
	// Acquire takes the lock for key if it is free and reports whether it did
	Acquire(ctx context.Context, key string) (bool, error)

	// Release releases a lock previously taken by this manager
	Release(ctx context.Context, key string) error

	// Close releases any resources the manager owns
	Close() error
}

// releaseNotifier is implemented by managers that can signal a release.
type releaseNotifier interface {
	released(key string) <-chan struct{}
}

// Wait retries Acquire until the lock is taken or ctx ends. Managers that
// signal releases are retried on release; others are polled every interval.
func Wait(ctx context.Context, m Manager, key string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	notifier, _ := m.(releaseNotifier)
	for {
		ok, err := m.Acquire(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		var wake <-chan struct{}
		if notifier != nil {
			wake = notifier.released(key)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for lock %s: %w", key, ctx.Err())
		case <-wake:
		case <-ticker.C:
		}
	}
}

// InodeKey is the lock key guarding uploads of one inode.
func InodeKey(volume string, id int64) string {
	return fmt.Sprintf("%s:inode:%d", volume, id)
}
