package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
	"github.com/S-lab-sudo/openwave-app/internal/logging"
	"github.com/S-lab-sudo/openwave-app/internal/metrics"
)

// Searcher resolves a query into a tagged result.
type Searcher interface {
	Search(ctx context.Context, q domain.Query) (domain.Result, error)
}

// DiscoveryOptions tune how much is resolved per cache entry.
type DiscoveryOptions struct {
	// FetchSize is the batch resolved and cached for a term, whatever limit
	// the caller asked for. Responses are trimmed to the caller's limit.
	FetchSize int
}

// Discovery fronts the resolver with the layered cache.
type Discovery struct {
	cache     ports.ResultCache
	resolver  *Resolver
	fetchSize int
	log       zerolog.Logger
}

var _ Searcher = (*Discovery)(nil)

// NewDiscovery constructs a Discovery.
func NewDiscovery(cache ports.ResultCache, resolver *Resolver, opts DiscoveryOptions) *Discovery {
	if opts.FetchSize <= 0 || opts.FetchSize > domain.MaxLimit {
		opts.FetchSize = domain.MaxLimit
	}
	return &Discovery{
		cache:     cache,
		resolver:  resolver,
		fetchSize: opts.FetchSize,
		log:       logging.WithComponent("discovery"),
	}
}

// Search serves q from cache when possible and otherwise resolves and caches it.
func (d *Discovery) Search(ctx context.Context, q domain.Query) (domain.Result, error) {
	if err := q.Validate(); err != nil {
		return domain.Result{}, err
	}

	// The curated chart outranks any trending fallback cached before it existed.
	if q.Kind == domain.KindTrending {
		if items, ok := d.cache.Chart(ctx); ok && len(items) > 0 {
			res := domain.Result{Items: truncate(items, q.Limit), Source: domain.SourceChart}
			metrics.RecordResolution(q.Kind.String(), res.Source)
			return res, nil
		}
	}

	if res, ok := d.cache.Lookup(ctx, q); ok {
		res.Items = truncate(res.Items, q.Limit)
		metrics.RecordResolution(q.Kind.String(), res.Source)
		return res, nil
	}

	batch := q
	batch.Limit = max(q.Limit, d.fetchSize)
	res, err := d.resolver.Resolve(ctx, batch)
	if err != nil {
		return domain.Result{}, fmt.Errorf("discovery: resolve %s %q: %w", q.Kind, q.Term, err)
	}

	// Chart hits already live in the cache under their own key.
	if len(res.Items) > 0 && res.Source != domain.SourceChart {
		d.cache.Store(ctx, q, res.Items)
	}
	res.Items = truncate(res.Items, q.Limit)

	metrics.RecordResolution(q.Kind.String(), res.Source)
	d.log.Debug().Str("kind", q.Kind.String()).Str("term", q.Term).Str("source", res.Source).Int("items", len(res.Items)).Msg("search resolved")
	return res, nil
}

func truncate(items []domain.Track, limit int) []domain.Track {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
