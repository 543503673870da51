package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryClient хранит кэш в памяти процесса, для тестов и локального запуска
type MemoryClient struct {
	storage map[string]memoryEntry
	mtx     *sync.RWMutex
	now     func() time.Time
}

func NewMemory() *MemoryClient {
	return newMemoryWithClock(time.Now)
}

func newMemoryWithClock(now func() time.Time) *MemoryClient {
	return &MemoryClient{
		storage: make(map[string]memoryEntry),
		mtx:     &sync.RWMutex{},
		now:     now,
	}
}

func (m *MemoryClient) Get(_ context.Context, key string) (string, error) {
	m.mtx.RLock()
	entry, ok := m.storage[key]
	m.mtx.RUnlock()

	if !ok {
		return "", ErrCacheMiss
	}
	if entry.expired(m.now()) {
		m.mtx.Lock()
		delete(m.storage, key)
		m.mtx.Unlock()
		return "", ErrCacheMiss
	}

	return entry.value, nil
}

func (m *MemoryClient) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.storage[key] = memoryEntry{value: value, expiresAt: m.deadline(ttl)}
	return nil
}

func (m *MemoryClient) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if entry, ok := m.storage[key]; ok && !entry.expired(m.now()) {
		return false, nil
	}

	m.storage[key] = memoryEntry{value: value, expiresAt: m.deadline(ttl)}
	return true, nil
}

func (m *MemoryClient) Delete(_ context.Context, keys ...string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	for _, key := range keys {
		delete(m.storage, key)
	}
	return nil
}

func (m *MemoryClient) Exists(_ context.Context, key string) (bool, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	entry, ok := m.storage[key]
	if !ok || entry.expired(m.now()) {
		return false, nil
	}
	return true, nil
}

func (m *MemoryClient) Ping(_ context.Context) error {
	return nil
}

func (m *MemoryClient) Close() error {
	return nil
}

// deadline переводит ttl в момент истечения, ноль означает без срока
func (m *MemoryClient) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}
