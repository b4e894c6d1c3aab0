package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. Expiry is applied lazily on Get; an
// optional janitor reclaims memory for keys that are never read again.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	done  chan struct{}
	once  sync.Once
	now   func() time.Time
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (it memoryItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]memoryItem),
		done:  make(chan struct{}),
		now:   time.Now,
	}
}

// StartJanitor sweeps expired keys on the given interval until Close.
func (m *Memory) StartJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.done:
				return
			case <-ticker.C:
				m.sweep()
			}
		}
	}()
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if it.expired(m.now()) {
		m.mu.Lock()
		// Re-check under the write lock; a Set may have raced.
		if cur, ok := m.items[key]; ok && cur.expired(m.now()) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	it := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = it
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Close stops the janitor. The store stays usable afterwards.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

// Len counts live keys, applying expiry.
func (m *Memory) Len() int {
	m.sweep()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory) sweep() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, it := range m.items {
		if it.expired(now) {
			delete(m.items, key)
		}
	}
}
