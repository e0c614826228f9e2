// Package youtube scrapes the public results and playlist pages and reads
// the ytInitialData blob embedded in them.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/S-lab-sudo/openwave-app/internal/config"
	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
	"github.com/S-lab-sudo/openwave-app/internal/logging"
)

const (
	defaultBaseURL = "https://www.youtube.com"
	userAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	playlistFilter = "EgIQAw=="
)

var initialDataMarkers = []string{
	"var ytInitialData = ",
	`window["ytInitialData"] = `,
	"ytInitialData = ",
}

// Options configure the scraper.
type Options struct {
	BaseURL    string
	MaxRetries int
	RetryWait  time.Duration
}

// Client implements ports.Upstream by scraping HTML.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

var _ ports.Upstream = (*Client)(nil)

// NewClient builds a scraper against opts.BaseURL.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 500 * time.Millisecond
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetRetryCount(opts.MaxRetries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(30 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetRetryAfter(func(_ *resty.Client, r *resty.Response) (time.Duration, error) {
			return retryAfter(r), nil
		})

	return &Client{
		http: httpClient,
		log:  logging.WithComponent(config.AdapterYouTube),
	}
}

func (c *Client) Name() string { return config.AdapterYouTube }

func (c *Client) Supports(kind domain.Kind) bool {
	switch kind {
	case domain.KindTrack, domain.KindTrending, domain.KindPlaylist, domain.KindPlaylistTracks, domain.KindMetadata:
		return true
	default:
		return false
	}
}

// Fetch scrapes the page that answers q.
func (c *Client) Fetch(ctx context.Context, q domain.Query) ([]domain.RawRecord, error) {
	switch q.Kind {
	case domain.KindMetadata:
		return c.fetchOEmbed(ctx, domain.ParseIdentifier(q.Term))
	case domain.KindPlaylistTracks:
		req := c.http.R().SetContext(ctx).SetQueryParam("list", domain.ParseIdentifier(q.Term))
		return c.scrape(ctx, req, "/playlist")
	case domain.KindPlaylist:
		req := c.http.R().SetContext(ctx).
			SetQueryParam("search_query", q.Term).
			SetQueryParam("sp", playlistFilter)
		return c.scrape(ctx, req, "/results")
	default:
		req := c.http.R().SetContext(ctx).SetQueryParam("search_query", q.Term)
		return c.scrape(ctx, req, "/results")
	}
}

func (c *Client) scrape(ctx context.Context, req *resty.Request, path string) ([]domain.RawRecord, error) {
	resp, err := req.Get(path)
	if err != nil {
		return nil, wrapTransport(ctx, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	data, err := extractInitialData(resp.String())
	if err != nil {
		return nil, fmt.Errorf("youtube adapter: %w", err)
	}

	records := []domain.RawRecord{}
	walk(data, &records)
	c.log.Debug().Str("path", path).Int("records", len(records)).Msg("scraped page")
	return records, nil
}

type oEmbed struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (c *Client) fetchOEmbed(ctx context.Context, id string) ([]domain.RawRecord, error) {
	if id == "" {
		return []domain.RawRecord{}, nil
	}
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParam("url", domain.WatchURL(id)).
		SetQueryParam("format", "json").
		Get("/oembed")
	if err != nil {
		return nil, wrapTransport(ctx, err)
	}
	if resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusUnauthorized {
		return []domain.RawRecord{}, nil
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var payload oEmbed
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("youtube adapter: decode oembed: %w", err)
	}
	return []domain.RawRecord{{
		Adapter: config.AdapterYouTube,
		Fields: map[string]any{
			"videoId":       id,
			"title":         payload.Title,
			"author_name":   payload.AuthorName,
			"thumbnail_url": payload.ThumbnailURL,
		},
	}}, nil
}

// extractInitialData decodes the first JSON value after the ytInitialData
// assignment. Trailing script text is ignored by the decoder.
func extractInitialData(page string) (any, error) {
	for _, marker := range initialDataMarkers {
		idx := strings.Index(page, marker)
		if idx < 0 {
			continue
		}
		var data any
		dec := json.NewDecoder(strings.NewReader(page[idx+len(marker):]))
		if err := dec.Decode(&data); err != nil {
			return nil, fmt.Errorf("decode ytInitialData: %w: %v", domain.ErrMalformedRecord, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("ytInitialData not found: %w", domain.ErrMalformedRecord)
}

// walk collects renderer objects depth first. Map keys are visited in sorted
// order so output is stable; list order is the page order.
func walk(node any, out *[]domain.RawRecord) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			walk(item, out)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := v[k]
			if fields, ok := child.(map[string]any); ok {
				if rec, matched := rendererRecord(k, fields); matched {
					*out = append(*out, rec)
					continue
				}
			}
			walk(child, out)
		}
	}
}

func rendererRecord(key string, fields map[string]any) (domain.RawRecord, bool) {
	switch key {
	case "videoRenderer", "playlistVideoRenderer":
		return domain.RawRecord{Adapter: config.AdapterYouTube, Fields: fields}, true
	case "playlistRenderer":
		return domain.RawRecord{Adapter: config.AdapterYouTube, Container: true, Fields: fields}, true
	case "lockupViewModel":
		if contentType, _ := fields["contentType"].(string); contentType != "LOCKUP_CONTENT_TYPE_PLAYLIST" {
			return domain.RawRecord{}, false
		}
		return domain.RawRecord{Adapter: config.AdapterYouTube, Container: true, Fields: fields}, true
	default:
		return domain.RawRecord{}, false
	}
}

func checkStatus(resp *resty.Response) error {
	code := resp.StatusCode()
	switch {
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return fmt.Errorf("youtube adapter: %w: status %d", domain.ErrUpstreamUnavailable, code)
	case resp.IsError():
		return fmt.Errorf("youtube adapter: unexpected status %d", code)
	default:
		return nil
	}
}

func wrapTransport(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("youtube adapter: %w: %v", domain.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("youtube adapter: request failed: %w", err)
}

func retryAfter(r *resty.Response) time.Duration {
	if r == nil || r.RawResponse == nil {
		return 0
	}
	raw := r.Header().Get("Retry-After")
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(raw); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return 0
}
