package store

import (
	"sync"

	"github.com/orneryd/muninn/pkg/entity"
)

// MemoryStore is a thread-safe in-memory backing store.
//
// Each key holds a multi-value set in insertion order; inserting a
// key/value pair that already exists is a no-op. Suitable for tests and for
// workloads that fit in memory and need no persistence.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[entity.E][]entity.E
	closed bool
}

var _ BackingStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[entity.E][]entity.E)}
}

// Insert stores a key/value pair.
func (m *MemoryStore) Insert(key, value entity.E) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return &Error{Op: "insert", Err: ErrClosed}
	}
	m.appendLocked(key, value)
	return nil
}

// BatchInsert stores many pairs atomically. The single lock makes the batch
// all-or-nothing with respect to readers.
func (m *MemoryStore) BatchInsert(items []KV) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return &Error{Op: "batch_insert", Err: ErrClosed}
	}
	for _, item := range items {
		m.appendLocked(item.Key, item.Value)
	}
	return nil
}

// Lookup returns all values recorded under key.
func (m *MemoryStore) Lookup(key entity.E) ([]Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, &Error{Op: "lookup", Err: ErrClosed}
	}
	values := m.data[key]
	out := make([]Value, 0, len(values))
	for _, v := range values {
		out = append(out, EntityValue(v))
	}
	return out, nil
}

// Len returns the number of distinct keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Close marks the store closed; further operations fail with ErrClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}

func (m *MemoryStore) appendLocked(key, value entity.E) {
	for _, existing := range m.data[key] {
		if existing == value {
			return
		}
	}
	m.data[key] = append(m.data[key], value)
}
