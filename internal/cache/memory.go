// Package cache implements the two-tier result cache and the in-process
// key-value fallback used when no external store is configured.
package cache

import (
	"context"
	"time"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
)

const defaultCleanupInterval = 5 * time.Minute

// Entry is one cached resolution. Items are never mutated after Set.
type Entry struct {
	Key      string         `json:"key"`
	Items    []domain.Track `json:"items"`
	StoredAt time.Time      `json:"storedAt"`
}

// Memory is the process-local tier.
type Memory struct {
	m *ttlMap[Entry]
}

// NewMemory starts a memory tier whose entries live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{m: newTTLMap[Entry](ttl, defaultCleanupInterval)}
}

// Get returns a copy of the entry stored under key.
func (c *Memory) Get(key string) (Entry, bool) {
	entry, _, ok := c.m.get(key)
	if !ok {
		return Entry{}, false
	}
	entry.Items = cloneTracks(entry.Items)
	return entry, true
}

// Set replaces the entry under key. ttl <= 0 uses the tier default.
func (c *Memory) Set(key string, entry Entry, ttl time.Duration) {
	entry.Key = key
	entry.Items = cloneTracks(entry.Items)
	c.m.set(key, entry, ttl)
}

// Len reports how many entries are held, expired or not.
func (c *Memory) Len() int {
	return c.m.size()
}

// Stats returns a snapshot of hit and miss counters.
func (c *Memory) Stats() Stats {
	return c.m.snapshot()
}

// Close stops the background sweep.
func (c *Memory) Close() {
	c.m.close()
}

func cloneTracks(items []domain.Track) []domain.Track {
	out := make([]domain.Track, len(items))
	copy(out, items)
	return out
}

// MemoryKV is an in-process KVStore. It backs the preference store when no
// durable store is configured so the engine keeps working within one process.
type MemoryKV struct {
	m *ttlMap[[]byte]
}

// NewMemoryKV creates an empty store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: newTTLMap[[]byte](24*time.Hour, defaultCleanupInterval)}
}

func (s *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, _, ok := s.m.get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.m.set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Close stops the background sweep.
func (s *MemoryKV) Close() {
	s.m.close()
}

// NoopKV stands in for an unconfigured external tier: every read misses and
// every write is ignored.
type NoopKV struct{}

func (NoopKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopKV) Set(context.Context, string, []byte, time.Duration) error { return nil }
