// Package ytdata is a YouTube Data API v3 client exposed as an upstream adapter.
package ytdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/S-lab-sudo/openwave-app/internal/config"
	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
	"github.com/S-lab-sudo/openwave-app/internal/logging"
)

const (
	defaultBaseURL  = "https://www.googleapis.com/youtube/v3"
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	musicCategoryID = "10"
	maxResults      = 50
)

// Options configure credentials and endpoints. Either APIKey or the
// refresh-token triple must be set for the client to be usable.
type Options struct {
	BaseURL      string
	TokenURL     string
	APIKey       string
	ClientID     string
	ClientSecret string
	RefreshToken string
	MaxRetries   int
	BaseBackoff  time.Duration
	HTTPClient   *http.Client
}

// Client implements ports.Upstream against the Data API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	configured  bool
	maxRetries  int
	baseBackoff time.Duration
	log         zerolog.Logger
}

var _ ports.Upstream = (*Client)(nil)

// NewClient builds a client. With a refresh token the transport is wrapped in
// an oauth2 token source that refreshes access tokens on demand.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = defaultTokenURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	useOAuth := opts.RefreshToken != "" && opts.ClientID != ""
	if useOAuth {
		oauthCfg := &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: opts.TokenURL},
			Scopes:       []string{"https://www.googleapis.com/auth/youtube.readonly"},
		}
		base := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(base, oauthCfg.TokenSource(base, &oauth2.Token{RefreshToken: opts.RefreshToken}))
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		configured:  useOAuth || opts.APIKey != "",
		maxRetries:  opts.MaxRetries,
		baseBackoff: opts.BaseBackoff,
		log:         logging.WithComponent(config.AdapterYTData),
	}
}

func (c *Client) Name() string { return config.AdapterYTData }

func (c *Client) Supports(kind domain.Kind) bool {
	switch kind {
	case domain.KindTrack, domain.KindTrending, domain.KindPlaylist, domain.KindPlaylistTracks, domain.KindMetadata:
		return true
	default:
		return false
	}
}

// Fetch maps q onto the matching Data API endpoint.
func (c *Client) Fetch(ctx context.Context, q domain.Query) ([]domain.RawRecord, error) {
	if !c.configured {
		return nil, fmt.Errorf("ytdata adapter: %w: no credentials configured", domain.ErrUpstreamUnavailable)
	}

	params := url.Values{}
	params.Set("maxResults", strconv.Itoa(min(q.FetchCount(), maxResults)))
	container := false
	var endpoint string

	switch q.Kind {
	case domain.KindTrending:
		endpoint = "videos"
		params.Set("part", "snippet,contentDetails")
		params.Set("chart", "mostPopular")
		params.Set("videoCategoryId", musicCategoryID)
	case domain.KindPlaylist:
		endpoint = "search"
		params.Set("part", "snippet")
		params.Set("type", "playlist")
		params.Set("q", q.Term)
		container = true
	case domain.KindPlaylistTracks:
		endpoint = "playlistItems"
		params.Set("part", "snippet,contentDetails")
		params.Set("playlistId", domain.ParseIdentifier(q.Term))
	case domain.KindMetadata:
		endpoint = "videos"
		params.Set("part", "snippet,contentDetails")
		params.Set("id", domain.ParseIdentifier(q.Term))
	default:
		endpoint = "search"
		params.Set("part", "snippet")
		params.Set("type", "video")
		params.Set("videoCategoryId", musicCategoryID)
		params.Set("q", q.Term)
	}

	items, err := c.list(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(items))
	for _, item := range items {
		if unavailable(item) {
			continue
		}
		records = append(records, domain.RawRecord{
			Adapter:   config.AdapterYTData,
			Container: container,
			Fields:    item,
		})
	}
	return records, nil
}

type listResponse struct {
	Items []map[string]any `json:"items"`
}

func (c *Client) list(ctx context.Context, endpoint string, params url.Values) ([]map[string]any, error) {
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	target := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("ytdata adapter: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		var se *statusError
		switch {
		case errors.As(err, &se):
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, fmt.Errorf("ytdata adapter: %w: %v", domain.ErrUpstreamTimeout, err)
		default:
			return nil, err
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("ytdata adapter: %w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return []map[string]any{}, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("ytdata adapter: status %d", resp.StatusCode)
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("ytdata adapter: decode %s: %w", endpoint, err)
	}
	return lr.Items, nil
}

// unavailable reports playlist entries whose video was removed or hidden.
func unavailable(item map[string]any) bool {
	snippet, ok := item["snippet"].(map[string]any)
	if !ok {
		return false
	}
	title, _ := snippet["title"].(string)
	return title == "Deleted video" || title == "Private video"
}
