package normalize

import (
	"math"
	"strconv"
	"strings"
)

// fieldPaths lists candidate dotted paths per canonical field. The first
// non-empty value wins. Numeric segments index into arrays.
type fieldPaths struct {
	id        []string
	title     []string
	artist    []string
	thumbnail []string
	duration  []string
}

var adapterFields = map[string]fieldPaths{
	"ytdlp": {
		id:        []string{"id"},
		title:     []string{"title", "fulltitle", "track"},
		artist:    []string{"uploader", "channel", "artist", "creator"},
		thumbnail: []string{"thumbnail", "thumbnails"},
		duration:  []string{"duration", "duration_string"},
	},
	"youtube": {
		id: []string{"videoId", "playlistId", "contentId"},
		title: []string{
			"title.runs.0.text",
			"title.simpleText",
			"metadata.lockupMetadataViewModel.title.content",
			"title",
		},
		artist: []string{
			"ownerText.runs.0.text",
			"longBylineText.runs.0.text",
			"shortBylineText.runs.0.text",
			"metadata.lockupMetadataViewModel.metadata.contentMetadataViewModel.metadataRows.0.metadataParts.0.text.content",
			"author_name",
		},
		thumbnail: []string{
			"thumbnail.thumbnails",
			"thumbnails.0.thumbnails",
			"contentImage.collectionThumbnailViewModel.primaryThumbnail.thumbnailViewModel.image.sources",
			"thumbnail_url",
		},
		duration: []string{"lengthSeconds", "lengthText.simpleText"},
	},
	"ytdata": {
		id:     []string{"id.videoId", "id.playlistId", "snippet.resourceId.videoId", "contentDetails.videoId", "id"},
		title:  []string{"snippet.title"},
		artist: []string{"snippet.videoOwnerChannelTitle", "snippet.channelTitle"},
		thumbnail: []string{
			"snippet.thumbnails.high.url",
			"snippet.thumbnails.medium.url",
			"snippet.thumbnails.default.url",
		},
		duration: []string{"contentDetails.duration"},
	},
}

var genericFields = fieldPaths{
	id:        []string{"id", "videoId"},
	title:     []string{"title", "name"},
	artist:    []string{"artist", "uploader", "channel", "author"},
	thumbnail: []string{"thumbnailUrl", "thumbnail", "thumbnails"},
	duration:  []string{"durationSeconds", "duration", "length"},
}

func pathsFor(adapter string) fieldPaths {
	if paths, ok := adapterFields[adapter]; ok {
		return paths
	}
	return genericFields
}

// lookup walks a dotted path through maps and slices.
func lookup(fields map[string]any, path string) (any, bool) {
	var current any = fields
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, current != nil
}

func firstString(fields map[string]any, paths []string) string {
	for _, path := range paths {
		value, ok := lookup(fields, path)
		if !ok {
			continue
		}
		if s := asString(value); s != "" {
			return s
		}
	}
	return ""
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

func firstThumbnail(fields map[string]any, paths []string) string {
	for _, path := range paths {
		value, ok := lookup(fields, path)
		if !ok {
			continue
		}
		if url := thumbnailURL(value); url != "" {
			return url
		}
	}
	return ""
}

// thumbnailURL accepts a URL string, a {url} object or a list of them. Lists
// are ordered smallest first upstream, so the last usable entry wins.
func thumbnailURL(value any) string {
	switch v := value.(type) {
	case string:
		return absoluteURL(strings.TrimSpace(v))
	case map[string]any:
		return absoluteURL(asString(v["url"]))
	case []any:
		for i := len(v) - 1; i >= 0; i-- {
			if url := thumbnailURL(v[i]); url != "" {
				return url
			}
		}
	}
	return ""
}

func absoluteURL(url string) string {
	if strings.HasPrefix(url, "//") {
		return "https:" + url
	}
	return url
}

func firstDuration(fields map[string]any, paths []string) int {
	for _, path := range paths {
		value, ok := lookup(fields, path)
		if !ok {
			continue
		}
		if seconds, ok := ParseDuration(value); ok {
			return seconds
		}
	}
	return 0
}
