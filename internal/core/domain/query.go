package domain

import (
	"fmt"
	"strings"
)

// Kind selects what a query resolves to.
type Kind int

const (
	KindTrack Kind = iota
	KindPlaylist
	KindPlaylistTracks
	KindTrending
	KindMetadata
)

// MaxLimit caps how many records one query may return.
const MaxLimit = 50

var kindNames = map[Kind]string{
	KindTrack:          "track",
	KindPlaylist:       "playlist",
	KindPlaylistTracks: "playlist-tracks",
	KindTrending:       "trending",
	KindMetadata:       "metadata",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a request parameter to a Kind. Empty input means track.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "track", "song", "songs", "tracks":
		return KindTrack, nil
	case "playlist", "playlists":
		return KindPlaylist, nil
	case "playlist-tracks", "playlist_tracks", "playlisttracks":
		return KindPlaylistTracks, nil
	case "trending":
		return KindTrending, nil
	case "metadata":
		return KindMetadata, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidQuery, raw)
	}
}

// Query is the immutable descriptor handed to the resolver and adapters.
type Query struct {
	Term  string
	Kind  Kind
	Limit int
}

// NewQuery trims term and clamps limit into [1, MaxLimit]. A non-positive
// limit falls back to defaultLimit.
func NewQuery(term string, kind Kind, limit int, defaultLimit int) Query {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Query{Term: strings.TrimSpace(term), Kind: kind, Limit: limit}
}

// Validate rejects queries that no adapter could serve.
func (q Query) Validate() error {
	if q.Term == "" && q.Kind != KindTrending {
		return fmt.Errorf("%w: term is required for %s", ErrInvalidQuery, q.Kind)
	}
	return nil
}

// WithTerm returns a copy of q carrying a different term.
func (q Query) WithTerm(term string) Query {
	q.Term = term
	return q
}

// FetchCount is how many records to ask an upstream for. Searches are
// padded so that records dropped by the quality filters still leave Limit
// survivors; metadata lookups are exact.
func (q Query) FetchCount() int {
	if q.Kind == KindMetadata {
		return q.Limit
	}
	n := q.Limit + q.Limit/2
	if n < q.Limit+5 {
		n = q.Limit + 5
	}
	return n
}

// WithKind returns a copy of q carrying a different kind.
func (q Query) WithKind(kind Kind) Query {
	q.Kind = kind
	return q
}

// RawRecord is one upstream item before normalization. Fields mirrors the
// adapter's decoded payload and is never persisted.
type RawRecord struct {
	Adapter   string
	Container bool
	Fields    map[string]any
}

// Result is what the engine returns for a query.
type Result struct {
	Items  []Track `json:"items"`
	Source string  `json:"source"`
}

// Source tags attached to results.
const (
	SourceMemory        = "cache:memory"
	SourceExternal      = "cache:external"
	SourceChart         = "cache:chart"
	SourceEmpty         = "empty"
	SourceVector        = "vector_similarity"
	SourceBehavioral    = "behavioral_fallback"
	SourceMoodSynthesis = "vector_mood_synthesis"
	SourceEditorsPicks  = "editors_picks"
	SourceColdStart     = "cold_start"
	sourceLivePrefix    = "live:"
)

// LiveSource tags a result produced by adapter name.
func LiveSource(adapter string) string {
	return sourceLivePrefix + adapter
}

// EmptyResult is the terminal state of an exhausted resolution.
func EmptyResult() Result {
	return Result{Items: []Track{}, Source: SourceEmpty}
}

// PlayEvent is a single implicit listening signal.
type PlayEvent struct {
	TrackID      string
	Title        string
	Artist       string
	ThumbnailURL string
	Identity     string
}
