// Package state keeps per-user single-slot records: the conversation step a
// user is in and the operator action waiting for a final confirmation.
// Put always replaces the previous record for the key.
package state

import (
	"context"
	"sync"
	"time"
)

// Store holds at most one value per key. A zero TTL means values never expire.
type Store[T any] interface {
	Get(ctx context.Context, key int64) (T, bool, error)
	Put(ctx context.Context, key int64, value T) error
	Delete(ctx context.Context, key int64) error
}

type memoryEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]memoryEntry[T]
}

func NewMemoryStore[T any](ttl time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]memoryEntry[T]),
	}
}

func (m *MemoryStore[T]) Get(_ context.Context, key int64) (T, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	entry, ok := m.entries[key]
	if !ok {
		return zero, false, nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return zero, false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryStore[T]) Put(_ context.Context, key int64, value T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry[T]{value: value}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.entries[key] = entry
	return nil
}

func (m *MemoryStore[T]) Delete(_ context.Context, key int64) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
