package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
	"github.com/S-lab-sudo/openwave-app/internal/logging"
	"github.com/S-lab-sudo/openwave-app/internal/metrics"
)

// DefaultProfileDescription is returned before any play has been logged.
const DefaultProfileDescription = "Developing Taste"

// TasteOptions tune learning and recommendation.
type TasteOptions struct {
	Alpha         float64
	TTL           time.Duration
	Threshold     float64
	Floor         int
	PlaylistLimit int
}

// PlayOutcome reports what LogPlay did. CatalogErr is informational only.
type PlayOutcome struct {
	Vector     domain.Vector
	ColdStart  bool
	Cataloged  bool
	CatalogErr error
}

// Taste learns a preference vector per identity from implicit plays.
type Taste struct {
	prefs    ports.PreferenceStore
	catalog  ports.ItemCatalog
	searcher Searcher
	opts     TasteOptions
	log      zerolog.Logger
}

// NewTaste constructs the engine. catalog may be nil, in which case
// recommendations always use keyword synthesis.
func NewTaste(prefs ports.PreferenceStore, catalog ports.ItemCatalog, searcher Searcher, opts TasteOptions) *Taste {
	if opts.Alpha <= 0 || opts.Alpha > 1 {
		opts.Alpha = 0.15
	}
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 0.3
	}
	if opts.Floor <= 0 {
		opts.Floor = 5
	}
	if opts.PlaylistLimit <= 0 {
		opts.PlaylistLimit = 4
	}
	return &Taste{
		prefs:    prefs,
		catalog:  catalog,
		searcher: searcher,
		opts:     opts,
		log:      logging.WithComponent("taste"),
	}
}

// LogPlay folds one play into the identity's preference vector. Only a
// preference store failure is returned; catalog trouble is reported in the
// outcome.
func (t *Taste) LogPlay(ctx context.Context, ev domain.PlayEvent) (PlayOutcome, error) {
	if strings.TrimSpace(ev.Identity) == "" {
		return PlayOutcome{}, fmt.Errorf("taste: %w: identity is required", domain.ErrInvalidQuery)
	}
	if strings.TrimSpace(ev.TrackID) == "" {
		return PlayOutcome{}, fmt.Errorf("taste: %w: track id is required", domain.ErrInvalidQuery)
	}

	itemVector := domain.EstimateVector(ev.Title, ev.Artist)

	prev, found, err := t.prefs.Load(ctx, ev.Identity)
	if err != nil {
		metrics.TastePlays.WithLabelValues("store_error").Inc()
		return PlayOutcome{}, fmt.Errorf("taste: load preferences: %w", err)
	}

	outcome := PlayOutcome{Vector: itemVector, ColdStart: !found}
	if found {
		outcome.Vector = prev.Blend(itemVector, t.opts.Alpha)
	}

	if err := t.prefs.Save(ctx, ev.Identity, outcome.Vector, t.opts.TTL); err != nil {
		metrics.TastePlays.WithLabelValues("store_error").Inc()
		return PlayOutcome{}, fmt.Errorf("taste: save preferences: %w", err)
	}

	if t.catalog != nil {
		err := t.catalog.Upsert(ctx, ports.CatalogItem{
			ID:           ev.TrackID,
			Title:        ev.Title,
			Artist:       ev.Artist,
			ThumbnailURL: ev.ThumbnailURL,
			Vector:       itemVector,
		})
		if err != nil {
			outcome.CatalogErr = err
			t.log.Warn().Err(err).Str("track", ev.TrackID).Msg("catalog upsert failed")
		} else {
			outcome.Cataloged = true
		}
	}

	if outcome.ColdStart {
		metrics.TastePlays.WithLabelValues("cold_start").Inc()
	} else {
		metrics.TastePlays.WithLabelValues("reinforced").Inc()
	}
	return outcome, nil
}

// Recommend returns catalog neighbours of the stored vector, or a keyword
// search derived from it when the catalog has too few matches.
func (t *Taste) Recommend(ctx context.Context, identity string, limit int) (domain.Result, error) {
	v, found, err := t.prefs.Load(ctx, identity)
	if err != nil {
		// An unreadable profile degrades to cold start.
		t.log.Warn().Err(err).Str("identity", identity).Msg("preference load failed")
		return domain.Result{}, domain.ErrNoProfile
	}
	if !found {
		return domain.Result{}, domain.ErrNoProfile
	}
	if limit <= 0 {
		limit = domain.MaxLimit
	}

	matches := t.match(ctx, v, max(limit, t.opts.Floor))
	if len(matches) >= t.opts.Floor {
		items := make([]domain.Track, 0, min(limit, len(matches)))
		for _, m := range matches {
			if len(items) == limit {
				break
			}
			items = append(items, m.Track)
		}
		return domain.Result{Items: items, Source: domain.SourceVector}, nil
	}

	term := MoodTerm(v)
	t.log.Debug().Int("matches", len(matches)).Str("term", term).Msg("catalog below floor, synthesizing search")
	res, err := t.searcher.Search(ctx, domain.NewQuery(term, domain.KindTrack, limit, limit))
	if err != nil {
		return domain.Result{}, fmt.Errorf("taste: behavioral search: %w", err)
	}
	return domain.Result{Items: res.Items, Source: domain.SourceBehavioral}, nil
}

func (t *Taste) match(ctx context.Context, v domain.Vector, limit int) []ports.CatalogMatch {
	if t.catalog == nil {
		return nil
	}
	matches, err := t.catalog.Match(ctx, v, t.opts.Threshold, limit)
	if err != nil {
		t.log.Warn().Err(err).Msg("catalog match failed, treating as no matches")
		return nil
	}
	return matches
}

// DescribeProfile summarizes the stored vector in three words. It never fails.
func (t *Taste) DescribeProfile(ctx context.Context, identity string) string {
	v, found, err := t.prefs.Load(ctx, identity)
	if err != nil {
		t.log.Warn().Err(err).Msg("profile lookup failed")
		return DefaultProfileDescription
	}
	if !found {
		return DefaultProfileDescription
	}
	return Describe(v)
}

// SuggestPlaylists searches playlists matching the profile description.
func (t *Taste) SuggestPlaylists(ctx context.Context, identity string, limit int) (domain.Result, error) {
	if limit <= 0 {
		limit = t.opts.PlaylistLimit
	}
	term := t.DescribeProfile(ctx, identity) + " music playlist mix"
	res, err := t.searcher.Search(ctx, domain.NewQuery(term, domain.KindPlaylist, limit, limit))
	if err != nil {
		return domain.Result{}, fmt.Errorf("taste: playlist search: %w", err)
	}
	return domain.Result{Items: res.Items, Source: domain.SourceMoodSynthesis}, nil
}

// MoodTerm turns a vector into a search phrase.
func MoodTerm(v domain.Vector) string {
	var parts []string
	switch energy := v[domain.DimEnergy]; {
	case energy > 0.7:
		parts = append(parts, "high energy phonk trap")
	case energy < 0.3:
		parts = append(parts, "chill lofi hip hop coffee")
	default:
		parts = append(parts, "trending aesthetic music")
	}
	switch valence := v[domain.DimValence]; {
	case valence > 0.7:
		parts = append(parts, "happy pop hits")
	case valence < 0.3:
		parts = append(parts, "sad emotional indie")
	}
	if v[domain.DimAcousticness] > 0.6 {
		parts = append(parts, "acoustic unplugged")
	}
	return strings.Join(parts, " ")
}

// Describe names the energy, mood and texture of v.
func Describe(v domain.Vector) string {
	energy := "Balanced"
	switch {
	case v[domain.DimEnergy] > 0.6:
		energy = "Explosive"
	case v[domain.DimEnergy] < 0.4:
		energy = "Serene"
	}

	mood := "Eclectic"
	switch {
	case v[domain.DimValence] > 0.6:
		mood = "Uplifting"
	case v[domain.DimValence] < 0.4:
		mood = "Melancholic"
	}

	texture := "Aesthetics"
	switch {
	case v[domain.DimDanceability] > 0.7:
		texture = "Grooves"
	case v[domain.DimAcousticness] > 0.7:
		texture = "Organic Sounds"
	}

	return energy + " " + mood + " " + texture
}
