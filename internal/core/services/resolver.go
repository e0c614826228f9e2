package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/normalize"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
	"github.com/S-lab-sudo/openwave-app/internal/logging"
)

// ChartSource exposes the curated chart entry.
type ChartSource interface {
	Chart(ctx context.Context) ([]domain.Track, bool)
}

// ResolverOptions hold the search phrasing used by derived queries.
type ResolverOptions struct {
	MixKeyword   string
	TrendingTerm string
}

// Chains maps each kind to its ordered adapter list.
type Chains map[domain.Kind][]ports.Upstream

// Resolver walks an adapter chain until one yields usable records.
type Resolver struct {
	chains Chains
	norm   *normalize.Normalizer
	charts ChartSource
	opts   ResolverOptions
	log    zerolog.Logger
}

// NewResolver constructs a Resolver. charts may be nil.
func NewResolver(chains Chains, norm *normalize.Normalizer, charts ChartSource, opts ResolverOptions) *Resolver {
	if opts.MixKeyword == "" {
		opts.MixKeyword = "mix"
	}
	if opts.TrendingTerm == "" {
		opts.TrendingTerm = "Billboard Hot 100 Official Audio"
	}
	return &Resolver{
		chains: chains,
		norm:   norm,
		charts: charts,
		opts:   opts,
		log:    logging.WithComponent("resolver"),
	}
}

// Resolve returns the first non-empty normalized result for q. Exhausting the
// chain is not an error: it yields an empty result tagged "empty".
func (r *Resolver) Resolve(ctx context.Context, q domain.Query) (domain.Result, error) {
	if err := q.Validate(); err != nil {
		return domain.EmptyResult(), err
	}

	switch q.Kind {
	case domain.KindTrending:
		return r.resolveTrending(ctx, q)
	case domain.KindPlaylistTracks:
		return r.resolvePlaylistTracks(ctx, q)
	default:
		return r.runChain(ctx, q)
	}
}

func (r *Resolver) resolveTrending(ctx context.Context, q domain.Query) (domain.Result, error) {
	if r.charts != nil {
		if items, ok := r.charts.Chart(ctx); ok && len(items) > 0 {
			if len(items) > q.Limit {
				items = items[:q.Limit]
			}
			return domain.Result{Items: items, Source: domain.SourceChart}, nil
		}
	}
	if q.Term == "" {
		q = q.WithTerm(r.opts.TrendingTerm)
	}
	return r.runChain(ctx, q)
}

func (r *Resolver) resolvePlaylistTracks(ctx context.Context, q domain.Query) (domain.Result, error) {
	id := domain.ParseIdentifier(q.Term)

	switch {
	case domain.IsPlaylistID(id):
		res, err := r.runChain(ctx, q.WithTerm(id))
		if err != nil || len(res.Items) > 0 {
			return res, err
		}
		r.log.Debug().Str("playlist", id).Msg("direct playlist retrieval exhausted, searching by id")
		return r.runChain(ctx, domain.Query{Term: id, Kind: domain.KindTrack, Limit: q.Limit})
	case domain.IsVideoID(id):
		return r.expandSeed(ctx, id, q.Limit)
	default:
		return r.runChain(ctx, domain.Query{Term: q.Term, Kind: domain.KindTrack, Limit: q.Limit})
	}
}

// expandSeed builds a mix around a single item id.
func (r *Resolver) expandSeed(ctx context.Context, id string, limit int) (domain.Result, error) {
	title := id
	var seed *domain.Track

	meta, err := r.runChain(ctx, domain.Query{Term: id, Kind: domain.KindMetadata, Limit: 1})
	if err != nil {
		return domain.EmptyResult(), err
	}
	if len(meta.Items) > 0 {
		seed = &meta.Items[0]
		title = seed.Title
	} else {
		r.log.Debug().Str("seed", id).Msg("seed metadata unavailable, searching by id")
	}

	mixTerm := strings.TrimSpace(title + " " + r.opts.MixKeyword)
	mix, err := r.runChain(ctx, domain.Query{Term: mixTerm, Kind: domain.KindTrack, Limit: limit})
	if err != nil {
		return domain.EmptyResult(), err
	}

	items := make([]domain.Track, 0, len(mix.Items)+1)
	if seed != nil {
		items = append(items, *seed)
	}
	items = domain.DedupTracks(append(items, mix.Items...))
	if len(items) > limit {
		items = items[:limit]
	}
	if len(items) == 0 {
		return domain.EmptyResult(), nil
	}

	source := mix.Source
	if len(mix.Items) == 0 {
		source = meta.Source
	}
	return domain.Result{Items: items, Source: source}, nil
}

// runChain tries each adapter in order. Only a canceled caller stops it early.
func (r *Resolver) runChain(ctx context.Context, q domain.Query) (domain.Result, error) {
	for _, upstream := range r.chains[q.Kind] {
		if err := ctx.Err(); err != nil {
			return domain.EmptyResult(), err
		}
		if !upstream.Supports(q.Kind) {
			continue
		}

		tracks, err := r.try(ctx, upstream, q)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return domain.EmptyResult(), ctx.Err()
			}
			r.log.Warn().Err(err).Str("adapter", upstream.Name()).Str("kind", q.Kind.String()).Msg("adapter failed, advancing")
			continue
		}
		if len(tracks) == 0 {
			r.log.Debug().Str("adapter", upstream.Name()).Str("kind", q.Kind.String()).Msg("adapter returned nothing usable, advancing")
			continue
		}
		return domain.Result{Items: tracks, Source: domain.LiveSource(upstream.Name())}, nil
	}

	r.log.Info().Str("kind", q.Kind.String()).Str("term", q.Term).Msg("adapter chain exhausted")
	return domain.EmptyResult(), nil
}

func (r *Resolver) try(ctx context.Context, upstream ports.Upstream, q domain.Query) ([]domain.Track, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	records, err := upstream.Fetch(callCtx, q)
	if err != nil {
		return nil, err
	}
	return r.norm.Normalize(records, q), nil
}
