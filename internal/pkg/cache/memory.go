package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type entry struct {
	value   string
	expires time.Time
}

// memoryCache is the in-process fallback used when no Redis address is
// configured. Entries with a zero TTL never expire.
type memoryCache struct {
	mu          sync.Mutex
	entries     map[string]entry
	serviceName string
	now         func() time.Time
}

func NewMemoryCache(serviceName string) Cache {
	return NewMemoryCacheWithClock(serviceName, time.Now)
}

func NewMemoryCacheWithClock(serviceName string, now func() time.Time) Cache {
	return &memoryCache{
		entries:     make(map[string]entry),
		serviceName: serviceName,
		now:         now,
	}
}

// New returns a Redis-backed cache for a non-empty addr and an in-process one
// otherwise.
func New(addr, serviceName string) Cache {
	if addr == "" {
		return NewMemoryCache(serviceName)
	}
	return NewRedisCache(addr, serviceName)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = m.newEntry(value, ttl)
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.liveLocked(key)
	if !ok {
		return "", nil
	}
	return e.value, nil
}

func (m *memoryCache) SetIfAbsent(_ context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.liveLocked(key); ok {
		return false, nil
	}
	m.entries[key] = m.newEntry(value, ttl)
	return true, nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memoryCache) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", m.serviceName, operation, key)
}

func (m *memoryCache) newEntry(value interface{}, ttl time.Duration) entry {
	e := entry{value: stringify(value)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	return e
}

// liveLocked returns the entry for key, evicting it when expired.
func (m *memoryCache) liveLocked(key string) (entry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return entry{}, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return entry{}, false
	}
	return e, true
}

// stringify mirrors how go-redis writes scalar values.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
