// Package memory keeps objects in process memory.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ebogdum/jfsio/backends"
)

// MemoryAdapter implements backends.Storage with a map.
type MemoryAdapter struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{objects: make(map[string][]byte)}
}

func (m *MemoryAdapter) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, backends.ErrNotFound
	}
	// objects are replaced, never mutated, so sharing the slice is safe
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryAdapter) Update(ctx context.Context, key string, reader io.Reader, size int64) error {
	data := make([]byte, 0, size)
	buf := bytes.NewBuffer(data)
	if _, err := io.Copy(buf, reader); err != nil {
		return fmt.Errorf("failed to read object content: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf.Bytes()
	return nil
}

func (m *MemoryAdapter) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return backends.ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryAdapter) Size(ctx context.Context, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return 0, backends.ErrNotFound
	}
	return int64(len(data)), nil
}

func (m *MemoryAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects = make(map[string][]byte)
	return nil
}
