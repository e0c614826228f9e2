package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// UnknownArtist is used when an upstream record carries no artist field.
const UnknownArtist = "Unknown Artist"

// Track is the canonical record returned by the engine. Playlists share the
// shape and are distinguished by IsPlaylist.
type Track struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	DurationSeconds int    `json:"durationSeconds"`
	IsPlaylist      bool   `json:"isPlaylist"`
	SourceURL       string `json:"sourceUrl"`
}

var (
	playlistIDPattern = regexp.MustCompile(`^(PL|OLAK5uy_|RD|UU|LL|FL|OL|UL|PU|EL|CL|SP)[A-Za-z0-9_-]{10,}$`)
	videoIDPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// IsPlaylistID reports whether id looks like an upstream playlist identifier.
func IsPlaylistID(id string) bool {
	return playlistIDPattern.MatchString(id)
}

// IsVideoID reports whether id has the shape of a single upstream item id.
func IsVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// WatchURL builds the canonical watch URL for a single item.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// PlaylistURL builds the canonical URL for a playlist container.
func PlaylistURL(id string) string {
	return "https://www.youtube.com/playlist?list=" + id
}

// PlaceholderThumbnail returns the deterministic fallback artwork for id.
func PlaceholderThumbnail(id string) string {
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", id)
}

// SourceURLFor picks the watch or playlist URL for id.
func SourceURLFor(id string, isPlaylist bool) string {
	if isPlaylist {
		return PlaylistURL(id)
	}
	return WatchURL(id)
}

// ParseIdentifier extracts an upstream id from a raw id or a share link.
// A list parameter takes precedence over v, matching how the upstream
// treats watch URLs opened from inside a playlist.
func ParseIdentifier(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if !strings.Contains(trimmed, "/") && !strings.Contains(trimmed, "?") {
		return trimmed
	}

	raw := trimmed
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return trimmed
	}

	query := u.Query()
	if list := query.Get("list"); list != "" {
		return list
	}
	if v := query.Get("v"); v != "" {
		return v
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	path := strings.Trim(u.Path, "/")
	switch {
	case host == "youtu.be" && path != "":
		return strings.SplitN(path, "/", 2)[0]
	case strings.HasPrefix(path, "shorts/"), strings.HasPrefix(path, "embed/"):
		return strings.SplitN(strings.SplitN(path, "/", 2)[1], "/", 2)[0]
	}

	return trimmed
}

// DedupTracks removes repeated ids keeping the first occurrence.
func DedupTracks(items []Track) []Track {
	seen := make(map[string]struct{}, len(items))
	out := make([]Track, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}
