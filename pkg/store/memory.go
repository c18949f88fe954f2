package store

import (
	"context"
	"maps"
	"sync"
)

// Memory is a process-local Backend. It is the default when no durable
// backend is configured and the one tests substitute.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		if v == "" {
			delete(m.values, k)
			continue
		}
		m.values[k] = v
	}
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.values)
	return nil
}

func (m *Memory) Close() error { return nil }

// Snapshot returns a copy of every stored entry.
func (m *Memory) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return maps.Clone(m.values)
}
