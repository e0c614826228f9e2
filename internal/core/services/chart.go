package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/normalize"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
	"github.com/S-lab-sudo/openwave-app/internal/logging"
	"github.com/S-lab-sudo/openwave-app/internal/metrics"
	"github.com/S-lab-sudo/openwave-app/internal/worker"
)

var errNoHit = errors.New("no upstream hit")

// QueryResolver is the part of Resolver the chart syncer needs.
type QueryResolver interface {
	Resolve(ctx context.Context, q domain.Query) (domain.Result, error)
}

// ChartStore persists the curated chart.
type ChartStore interface {
	StoreChart(ctx context.Context, items []domain.Track) error
}

// ChartOptions control batching and scheduling.
type ChartOptions struct {
	BatchSize int
	Interval  time.Duration
}

// ChartSyncer rebuilds the curated trending list out of band.
type ChartSyncer struct {
	provider ports.ChartProvider
	resolver QueryResolver
	store    ChartStore
	opts     ChartOptions
	log      zerolog.Logger
}

// NewChartSyncer constructs a ChartSyncer.
func NewChartSyncer(provider ports.ChartProvider, resolver QueryResolver, store ChartStore, opts ChartOptions) *ChartSyncer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.Interval <= 0 {
		opts.Interval = 24 * time.Hour
	}
	return &ChartSyncer{
		provider: provider,
		resolver: resolver,
		store:    store,
		opts:     opts,
		log:      logging.WithComponent("chart"),
	}
}

// Sync fetches the chart, resolves every entry and stores the ordered
// result. It returns how many entries were stored.
func (s *ChartSyncer) Sync(ctx context.Context) (int, error) {
	entries, err := s.provider.FetchChart(ctx)
	if err != nil {
		metrics.ChartSyncs.WithLabelValues("fetch_error").Inc()
		return 0, fmt.Errorf("chart: fetch: %w", err)
	}

	outcomes := worker.RunBatches(ctx, entries, s.opts.BatchSize, s.resolveEntry)

	tracks := make([]domain.Track, 0, len(entries))
	for i, o := range outcomes {
		if o.Err != nil {
			s.log.Debug().Err(o.Err).Int("rank", entries[i].Rank).Str("title", entries[i].Title).Msg("chart entry skipped")
			continue
		}
		tracks = append(tracks, o.Value)
	}
	tracks = domain.DedupTracks(tracks)

	if len(tracks) == 0 {
		metrics.ChartSyncs.WithLabelValues("empty").Inc()
		return 0, fmt.Errorf("chart: none of %d entries resolved", len(entries))
	}
	if err := s.store.StoreChart(ctx, tracks); err != nil {
		metrics.ChartSyncs.WithLabelValues("store_error").Inc()
		return 0, fmt.Errorf("chart: %w", err)
	}

	metrics.ChartSyncs.WithLabelValues("ok").Inc()
	s.log.Info().Int("entries", len(entries)).Int("stored", len(tracks)).Msg("chart synced")
	return len(tracks), nil
}

func (s *ChartSyncer) resolveEntry(ctx context.Context, _ int, entry ports.ChartEntry) (domain.Track, error) {
	term := strings.TrimSpace(entry.Artist + " " + entry.Title + " official audio")
	res, err := s.resolver.Resolve(ctx, domain.NewQuery(term, domain.KindTrack, 3, 3))
	if err != nil {
		return domain.Track{}, err
	}
	if len(res.Items) == 0 {
		return domain.Track{}, errNoHit
	}

	best, bestScore := res.Items[0], -1.0
	for _, item := range res.Items {
		score, ok := normalize.ScoreMatch(entry.Artist, entry.Title, item.Artist, item.Title)
		if ok && score > bestScore {
			best, bestScore = item, score
		}
	}
	return best, nil
}

// Serve syncs immediately and then on every interval until ctx is done.
// Failed runs are logged and retried on the next tick.
func (s *ChartSyncer) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sync(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn().Err(err).Msg("chart sync failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *ChartSyncer) String() string { return "chart-syncer" }
