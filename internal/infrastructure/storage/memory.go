package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend keeps entries in process memory. A positive QuotaBytes caps the
// summed size of keys and values, like a browser origin's storage area.
type MemoryBackend struct {
	QuotaBytes int64

	mu      sync.RWMutex
	entries map[string]string
	used    int64
}

func NewMemoryBackend(quotaBytes int64) *MemoryBackend {
	return &MemoryBackend{QuotaBytes: quotaBytes, entries: make(map[string]string)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string]string)
	}
	next := m.used + entrySize(key, value)
	if old, ok := m.entries[key]; ok {
		next -= entrySize(key, old)
	}
	if m.QuotaBytes > 0 && next > m.QuotaBytes {
		return ErrQuotaExceeded
	}
	m.entries[key] = value
	m.used = next
	return nil
}

func (m *MemoryBackend) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.entries[key]; ok {
		m.used -= entrySize(key, old)
		delete(m.entries, key)
	}
	return nil
}

func (m *MemoryBackend) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryBackend) Ping(context.Context) error { return nil }

// Used returns the bytes currently accounted against the quota.
func (m *MemoryBackend) Used() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}
