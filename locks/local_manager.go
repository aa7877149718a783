package locks

import (
	"context"
	"sync"
)

// LocalManager locks keys within one process. Waiters are woken when the
// holder releases instead of polling.
type LocalManager struct {
	mu   sync.Mutex
	held map[string]chan struct{} // closed on release
}

func NewLocalManager() *LocalManager {
	return &LocalManager{held: make(map[string]chan struct{})}
}

// Acquire takes key if it is free.
func (m *LocalManager) Acquire(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.held[key]; busy {
		return false, nil
	}
	m.held[key] = make(chan struct{})
	return true, nil
}

// Release frees key. Releasing a free key is a no-op.
func (m *LocalManager) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if done, ok := m.held[key]; ok {
		close(done)
		delete(m.held, key)
	}
	return nil
}

// released returns a channel closed when the current holder of key lets
// go, or nil when key is free.
func (m *LocalManager) released(key string) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[key]
}

// Close releases every held key.
func (m *LocalManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, done := range m.held {
		close(done)
		delete(m.held, key)
	}
	return nil
}
