package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryCache is a bounded in-process cache with an injectable clock. The
// tenant resolver uses it when redis is not configured, and tests use it to
// control time. When the capacity is reached the oldest entry is evicted.
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	capacity int
	now      func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
	counter   int64
	setAt     time.Time
}

func NewMemoryCache(capacity int, now func() time.Time) *MemoryCache {
	if capacity <= 0 {
		capacity = 1024
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		entries:  make(map[string]memoryEntry),
		capacity: capacity,
		now:      now,
	}
}

func (m *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictLocked(key)
	m.entries[key] = memoryEntry{
		data:      data,
		expiresAt: m.expiry(expiration),
		setAt:     m.now(),
	}
	return nil
}

func (m *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && m.expired(entry) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(entry.data, dest)
}

func (m *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if ok && m.expired(entry) {
		delete(m.entries, key)
		ok = false
	}
	return ok, nil
}

func (m *MemoryCache) Increment(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if ok && m.expired(entry) {
		ok = false
	}
	if !ok {
		m.evictLocked(key)
		entry = memoryEntry{
			expiresAt: m.expiry(expiration),
			setAt:     m.now(),
		}
	}
	entry.counter++
	m.entries[key] = entry
	return entry.counter, nil
}

func (m *MemoryCache) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
}

func (m *MemoryCache) expiry(expiration time.Duration) time.Time {
	if expiration <= 0 {
		return time.Time{}
	}
	return m.now().Add(expiration)
}

func (m *MemoryCache) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt)
}

// evictLocked makes room for one more entry by dropping the oldest one.
func (m *MemoryCache) evictLocked(incoming string) {
	if _, ok := m.entries[incoming]; ok {
		return
	}
	if len(m.entries) < m.capacity {
		return
	}

	var oldestKey string
	var oldestAt time.Time
	for key, entry := range m.entries {
		if oldestKey == "" || entry.setAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.setAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
