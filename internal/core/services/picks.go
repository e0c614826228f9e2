package services

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/logging"
	"github.com/S-lab-sudo/openwave-app/internal/worker"
)

const picksQueryCount = 5

var genreKeywords = []string{
	"Underrated Indie", "Future Bass", "Alternative Rock", "R&B Soul",
	"Synthwave 80s", "UK Garage", "Latin Hits", "K-Pop Rising",
}

// timeContext returns the keyword list for the hour of now.
func timeContext(now time.Time) []string {
	switch hour := now.Hour(); {
	case hour >= 5 && hour < 12:
		return []string{"Morning acoustic", "Coffee shop music", "Positive vibes", "Motivation music"}
	case hour >= 12 && hour < 18:
		return []string{"Pop hits " + strconv.Itoa(now.Year()), "Work focus beats", "Energy boost", "Summer vibes"}
	case hour >= 18 && hour < 22:
		return []string{"Chill lo-fi", "Sunset vibes", "Acoustic covers", "Indie pop"}
	default:
		return []string{"Late night drive", "Deep house", "Sad songs", "Slow reverb"}
	}
}

// Picks builds time-aware playlist suggestions.
type Picks struct {
	searcher Searcher
	mu       sync.Mutex
	rnd      *rand.Rand
	log      zerolog.Logger
}

// NewPicks constructs Picks. A nil rnd is seeded from the clock.
func NewPicks(searcher Searcher, rnd *rand.Rand) *Picks {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Picks{
		searcher: searcher,
		rnd:      rnd,
		log:      logging.WithComponent("picks"),
	}
}

// Queries picks the search phrases for now.
func (p *Picks) Queries(now time.Time) []string {
	pool := append(timeContext(now), genreKeywords...)

	p.mu.Lock()
	p.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	p.mu.Unlock()

	return pool[:min(picksQueryCount, len(pool))]
}

// EditorsPicks searches playlists for each query concurrently and
// interleaves the results. Failed queries are skipped.
func (p *Picks) EditorsPicks(ctx context.Context, now time.Time, limit int) (domain.Result, error) {
	if limit <= 0 {
		limit = 10
	}
	queries := p.Queries(now)

	outcomes := worker.Fanout(ctx, queries, len(queries), func(ctx context.Context, _ int, term string) (domain.Result, error) {
		return p.searcher.Search(ctx, domain.NewQuery(term, domain.KindPlaylist, limit, limit))
	})

	lists := make([][]domain.Track, 0, len(outcomes))
	for i, o := range outcomes {
		if o.Err != nil {
			p.log.Debug().Err(o.Err).Str("query", queries[i]).Msg("editor pick query failed")
			continue
		}
		lists = append(lists, o.Value.Items)
	}
	if err := ctx.Err(); err != nil {
		return domain.Result{}, fmt.Errorf("picks: %w", err)
	}

	items := domain.DedupTracks(interleave(lists))
	if len(items) > limit {
		items = items[:limit]
	}
	return domain.Result{Items: items, Source: domain.SourceEditorsPicks}, nil
}

// interleave takes one item from each list in turn.
func interleave(lists [][]domain.Track) []domain.Track {
	out := []domain.Track{}
	for i := 0; ; i++ {
		added := false
		for _, list := range lists {
			if i < len(list) {
				out = append(out, list[i])
				added = true
			}
		}
		if !added {
			return out
		}
	}
}
