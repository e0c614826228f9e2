package cache

import (
	"sync"
	"time"
)

// Stats tracks cache performance.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

type ttlEntry[V any] struct {
	value     V
	storedAt  time.Time
	expiresAt time.Time
}

// ttlMap is a concurrent map whose entries expire. Expired entries are
// removed lazily on read and by a periodic sweep.
type ttlMap[V any] struct {
	mu      sync.RWMutex
	entries map[string]ttlEntry[V]
	ttl     time.Duration
	now     func() time.Time

	statsMu sync.Mutex
	stats   Stats

	stop chan struct{}
	once sync.Once
}

func newTTLMap[V any](ttl time.Duration, cleanupEvery time.Duration) *ttlMap[V] {
	m := &ttlMap[V]{
		entries: make(map[string]ttlEntry[V]),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	m.stats.LastCleanup = m.now()
	if cleanupEvery > 0 {
		go m.cleanupLoop(cleanupEvery)
	}
	return m
}

func (m *ttlMap[V]) get(key string) (V, time.Time, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	var zero V
	if !ok {
		m.record(func(s *Stats) { s.Misses++ })
		return zero, time.Time{}, false
	}
	if !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		if current, still := m.entries[key]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		m.record(func(s *Stats) { s.Misses++; s.Evictions++ })
		return zero, time.Time{}, false
	}

	m.record(func(s *Stats) { s.Hits++ })
	return entry.value, entry.storedAt, true
}

func (m *ttlMap[V]) set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.ttl
	}
	now := m.now()
	m.mu.Lock()
	m.entries[key] = ttlEntry[V]{value: value, storedAt: now, expiresAt: now.Add(ttl)}
	size := len(m.entries)
	m.mu.Unlock()
	m.record(func(s *Stats) { s.TotalKeys = int64(size) })
}

func (m *ttlMap[V]) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *ttlMap[V]) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *ttlMap[V]) cleanup() {
	now := m.now()
	m.mu.Lock()
	var evictions int64
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
			evictions++
		}
	}
	size := len(m.entries)
	m.mu.Unlock()

	m.record(func(s *Stats) {
		s.Evictions += evictions
		s.TotalKeys = int64(size)
		s.LastCleanup = now
	})
}

func (m *ttlMap[V]) record(update func(s *Stats)) {
	m.statsMu.Lock()
	update(&m.stats)
	m.statsMu.Unlock()
}

func (m *ttlMap[V]) snapshot() Stats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}

func (m *ttlMap[V]) close() {
	m.once.Do(func() { close(m.stop) })
}
