package services

import (
	"context"
	"sync"
	"time"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/normalize"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
)

// mockUpstream returns canned records per kind and records every call.
type mockUpstream struct {
	name        string
	unsupported map[domain.Kind]bool
	records     map[domain.Kind][]domain.RawRecord
	err         error

	mu      sync.Mutex
	queries []domain.Query
}

func (m *mockUpstream) Name() string { return m.name }

func (m *mockUpstream) Supports(kind domain.Kind) bool { return !m.unsupported[kind] }

func (m *mockUpstream) Fetch(_ context.Context, q domain.Query) ([]domain.RawRecord, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.records[q.Kind], nil
}

func (m *mockUpstream) calls() []domain.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Query(nil), m.queries...)
}

func record(id, title string) domain.RawRecord {
	return domain.RawRecord{Adapter: "mock", Fields: map[string]any{"id": id, "title": title, "artist": "Artist " + id[:1]}}
}

func playlistRecord(id, title string) domain.RawRecord {
	return domain.RawRecord{Adapter: "mock", Container: true, Fields: map[string]any{"id": id, "title": title}}
}

func testNormalizer() *normalize.Normalizer {
	return normalize.New(normalize.Options{DurationCeiling: 720, Denylist: []string{"full album"}})
}

// allKinds registers the same chain for every kind.
func allKinds(upstreams ...ports.Upstream) Chains {
	chains := Chains{}
	for _, kind := range []domain.Kind{domain.KindTrack, domain.KindPlaylist, domain.KindPlaylistTracks, domain.KindTrending, domain.KindMetadata} {
		chains[kind] = upstreams
	}
	return chains
}

// mockCache is an in-memory ports.ResultCache keyed by kind and term.
type mockCache struct {
	mu      sync.Mutex
	entries map[string][]domain.Track
	chart   []domain.Track
	stores  int
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string][]domain.Track{}}
}

func cacheKey(q domain.Query) string { return q.Kind.String() + "|" + q.Term }

func (c *mockCache) Lookup(_ context.Context, q domain.Query) (domain.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.entries[cacheKey(q)]
	if !ok {
		return domain.Result{}, false
	}
	return domain.Result{Items: append([]domain.Track(nil), items...), Source: domain.SourceMemory}, true
}

func (c *mockCache) Store(_ context.Context, q domain.Query, items []domain.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores++
	c.entries[cacheKey(q)] = append([]domain.Track(nil), items...)
}

func (c *mockCache) Chart(context.Context) ([]domain.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.chart) == 0 {
		return nil, false
	}
	return append([]domain.Track(nil), c.chart...), true
}

func (c *mockCache) StoreChart(_ context.Context, items []domain.Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chart = append([]domain.Track(nil), items...)
	return nil
}

// mockPrefs is an in-memory ports.PreferenceStore.
type mockPrefs struct {
	mu      sync.Mutex
	vectors map[string]domain.Vector
	ttls    map[string]time.Duration
	loadErr error
	saveErr error
}

func newMockPrefs() *mockPrefs {
	return &mockPrefs{vectors: map[string]domain.Vector{}, ttls: map[string]time.Duration{}}
}

func (p *mockPrefs) Load(_ context.Context, identity string) (domain.Vector, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return domain.Vector{}, false, p.loadErr
	}
	v, ok := p.vectors[identity]
	return v, ok, nil
}

func (p *mockPrefs) Save(_ context.Context, identity string, v domain.Vector, ttl time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.vectors[identity] = v
	p.ttls[identity] = ttl
	return nil
}

// mockCatalog records upserts and returns canned matches.
type mockCatalog struct {
	mu        sync.Mutex
	items     []ports.CatalogItem
	matches   []ports.CatalogMatch
	upsertErr error
	matchErr  error
	threshold float64
}

func (c *mockCatalog) Upsert(_ context.Context, item ports.CatalogItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.upsertErr != nil {
		return c.upsertErr
	}
	c.items = append(c.items, item)
	return nil
}

func (c *mockCatalog) Match(_ context.Context, _ domain.Vector, threshold float64, limit int) ([]ports.CatalogMatch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threshold = threshold
	if c.matchErr != nil {
		return nil, c.matchErr
	}
	out := c.matches
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// mockSearcher answers every query with a canned result.
type mockSearcher struct {
	mu      sync.Mutex
	results map[string]domain.Result
	err     error
	queries []domain.Query
}

func (s *mockSearcher) Search(_ context.Context, q domain.Query) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return domain.Result{}, s.err
	}
	if res, ok := s.results[q.Term]; ok {
		return res, nil
	}
	return domain.Result{Items: []domain.Track{{ID: "x-" + q.Term, Title: q.Term}}, Source: domain.LiveSource("mock")}, nil
}

func tracks(ids ...string) []domain.Track {
	out := make([]domain.Track, len(ids))
	for i, id := range ids {
		out[i] = domain.Track{ID: id, Title: "Title " + id, Artist: "Artist"}
	}
	return out
}
