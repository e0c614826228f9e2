// Package normalize turns heterogeneous upstream records into canonical
// tracks. Everything here is pure and safe for concurrent use.
package normalize

import (
	"regexp"
	"strings"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
)

// Options tune the quality filters.
type Options struct {
	// DurationCeiling rejects longer Track/Trending records. Zero disables it.
	DurationCeiling int
	// Denylist holds whole-word, case-insensitive title phrases to reject.
	Denylist []string
}

// Normalizer applies Options to raw records. Build one with New and reuse it.
type Normalizer struct {
	ceiling int
	deny    *regexp.Regexp
}

// New compiles the denylist once.
func New(opts Options) *Normalizer {
	return &Normalizer{ceiling: opts.DurationCeiling, deny: compileDenylist(opts.Denylist)}
}

func compileDenylist(phrases []string) *regexp.Regexp {
	alternatives := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		words := strings.Fields(strings.ToLower(phrase))
		if len(words) == 0 {
			continue
		}
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(w)
		}
		alternatives = append(alternatives, strings.Join(quoted, `\s+`))
	}
	if len(alternatives) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:^|[^\pL\pN])(?:` + strings.Join(alternatives, "|") + `)(?:$|[^\pL\pN])`)
}

// Normalize maps, classifies, filters, deduplicates and truncates records
// for q. It always returns a non-nil slice; zero survivors is a normal outcome.
func (n *Normalizer) Normalize(records []domain.RawRecord, q domain.Query) []domain.Track {
	out := make([]domain.Track, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	wantPlaylist := q.Kind == domain.KindPlaylist

	for _, rec := range records {
		track, ok := n.canonical(rec)
		if !ok {
			continue
		}
		if track.IsPlaylist != wantPlaylist {
			continue
		}
		if (q.Kind == domain.KindTrack || q.Kind == domain.KindTrending) && !n.passesQuality(track) {
			continue
		}
		if _, dup := seen[track.ID]; dup {
			continue
		}
		seen[track.ID] = struct{}{}
		out = append(out, track)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}

	return out
}

// canonical maps one record. Records without an id or title are malformed
// and dropped.
func (n *Normalizer) canonical(rec domain.RawRecord) (domain.Track, bool) {
	if rec.Fields == nil {
		return domain.Track{}, false
	}
	paths := pathsFor(rec.Adapter)

	id := firstString(rec.Fields, paths.id)
	rawTitle := firstString(rec.Fields, paths.title)
	if id == "" || rawTitle == "" {
		return domain.Track{}, false
	}

	isPlaylist := rec.Container || domain.IsPlaylistID(id)

	artist := CleanArtist(firstString(rec.Fields, paths.artist))
	if artist == "" {
		artist = domain.UnknownArtist
	}

	thumbnail := firstThumbnail(rec.Fields, paths.thumbnail)
	if thumbnail == "" {
		thumbnail = domain.PlaceholderThumbnail(id)
	}

	duration := 0
	if !isPlaylist {
		duration = firstDuration(rec.Fields, paths.duration)
	}

	return domain.Track{
		ID:              id,
		Title:           CleanTitle(rawTitle),
		Artist:          artist,
		ThumbnailURL:    thumbnail,
		DurationSeconds: duration,
		IsPlaylist:      isPlaylist,
		SourceURL:       domain.SourceURLFor(id, isPlaylist),
	}, true
}

func (n *Normalizer) passesQuality(track domain.Track) bool {
	if n.ceiling > 0 && track.DurationSeconds > n.ceiling {
		return false
	}
	if n.deny != nil && n.deny.MatchString(track.Title) {
		return false
	}
	return true
}
