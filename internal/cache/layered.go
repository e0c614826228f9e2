package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
	"github.com/S-lab-sudo/openwave-app/internal/logging"
	"github.com/S-lab-sudo/openwave-app/internal/metrics"
)

// Options configure key derivation and tier lifetimes.
type Options struct {
	Namespace    string
	Version      string
	MemoryTTL    time.Duration
	ExternalTTL  time.Duration
	ChartTTL     time.Duration
	Tier2Timeout time.Duration
}

// Layered puts the memory tier in front of an external KVStore. External
// failures never surface: they are logged and treated as misses.
type Layered struct {
	memory   *Memory
	external ports.KVStore
	opts     Options
	log      zerolog.Logger
}

var _ ports.ResultCache = (*Layered)(nil)

// NewLayered wires the tiers. A nil external store disables Tier 2.
func NewLayered(memory *Memory, external ports.KVStore, opts Options) *Layered {
	if external == nil {
		external = NoopKV{}
	}
	if opts.Namespace == "" {
		opts.Namespace = "ow"
	}
	if opts.Version == "" {
		opts.Version = "v3"
	}
	if opts.Tier2Timeout <= 0 {
		opts.Tier2Timeout = 3 * time.Second
	}
	return &Layered{
		memory:   memory,
		external: external,
		opts:     opts,
		log:      logging.WithComponent("cache"),
	}
}

// Key derives <namespace>:<version>:<kind>:<normalized-term>.
func (l *Layered) Key(kind domain.Kind, term string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(term)), " ")
	return fmt.Sprintf("%s:%s:%s:%s", l.opts.Namespace, l.opts.Version, kind, normalized)
}

// ChartKey is where the curated chart lives. It is not versioned.
func (l *Layered) ChartKey() string {
	return l.opts.Namespace + ":billboard:hot100"
}

// Lookup checks Tier 1 then Tier 2. A Tier 2 hit repopulates Tier 1.
func (l *Layered) Lookup(ctx context.Context, q domain.Query) (domain.Result, bool) {
	key := l.Key(q.Kind, q.Term)

	if entry, ok := l.memory.Get(key); ok {
		metrics.RecordCacheLookup("memory", "hit")
		return domain.Result{Items: truncate(entry.Items, q.Limit), Source: domain.SourceMemory}, true
	}
	metrics.RecordCacheLookup("memory", "miss")

	entry, ok := l.readExternal(ctx, key, "external")
	if !ok {
		return domain.Result{}, false
	}
	l.memory.Set(key, entry, l.opts.MemoryTTL)
	return domain.Result{Items: truncate(entry.Items, q.Limit), Source: domain.SourceExternal}, true
}

// Store writes a non-empty resolution to both tiers, replacing any previous
// entry. The Tier 2 write is best effort.
func (l *Layered) Store(ctx context.Context, q domain.Query, items []domain.Track) {
	if len(items) == 0 {
		return
	}
	key := l.Key(q.Kind, q.Term)
	entry := Entry{Key: key, Items: cloneTracks(items), StoredAt: time.Now().UTC()}
	l.memory.Set(key, entry, l.opts.MemoryTTL)

	if err := l.writeExternal(ctx, key, entry, l.opts.ExternalTTL); err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("external cache write failed")
	}
}

// Chart returns the curated chart if any tier holds it.
func (l *Layered) Chart(ctx context.Context) ([]domain.Track, bool) {
	key := l.ChartKey()
	if entry, ok := l.memory.Get(key); ok {
		metrics.RecordCacheLookup("chart", "hit")
		return entry.Items, true
	}
	entry, ok := l.readExternal(ctx, key, "chart")
	if !ok {
		return nil, false
	}
	l.memory.Set(key, entry, l.opts.MemoryTTL)
	return entry.Items, true
}

// StoreChart replaces the curated chart. Unlike Store it reports the Tier 2
// error so the chart job can log its own outcome.
func (l *Layered) StoreChart(ctx context.Context, items []domain.Track) error {
	if len(items) == 0 {
		return nil
	}
	key := l.ChartKey()
	entry := Entry{Key: key, Items: cloneTracks(items), StoredAt: time.Now().UTC()}
	l.memory.Set(key, entry, l.opts.ChartTTL)
	if err := l.writeExternal(ctx, key, entry, l.opts.ChartTTL); err != nil {
		return fmt.Errorf("cache: store chart: %w", err)
	}
	return nil
}

func (l *Layered) readExternal(ctx context.Context, key string, tier string) (Entry, bool) {
	tctx, cancel := context.WithTimeout(ctx, l.opts.Tier2Timeout)
	defer cancel()

	raw, ok, err := l.external.Get(tctx, key)
	if err != nil {
		metrics.RecordCacheLookup(tier, "error")
		l.log.Debug().Err(err).Str("key", key).Msg("external cache read failed, treating as miss")
		return Entry{}, false
	}
	if !ok {
		metrics.RecordCacheLookup(tier, "miss")
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil || len(entry.Items) == 0 {
		metrics.RecordCacheLookup(tier, "error")
		l.log.Debug().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		return Entry{}, false
	}
	metrics.RecordCacheLookup(tier, "hit")
	return entry, true
}

func (l *Layered) writeExternal(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: encode entry: %w", err)
	}
	// Writes outlive the request so a client disconnect still caches the result.
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.opts.Tier2Timeout)
	defer cancel()
	if err := l.external.Set(tctx, key, payload, ttl); err != nil {
		if errors.Is(err, domain.ErrCacheUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

func truncate(items []domain.Track, limit int) []domain.Track {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
