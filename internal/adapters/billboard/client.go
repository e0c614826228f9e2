// Package billboard fetches the Hot 100 chart page and extracts ranked rows.
package billboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
)

const (
	defaultChartURL   = "https://www.billboard.com/charts/hot-100/"
	defaultMaxEntries = 100
	rowClass          = "o-chart-results-list-row"
	titleID           = "title-of-a-story"
	artistClass       = "c-label"
)

// Options configure the chart fetcher.
type Options struct {
	URL        string
	MaxEntries int
	Timeout    time.Duration
}

// Client implements ports.ChartProvider.
type Client struct {
	http       *resty.Client
	url        string
	maxEntries int
}

var _ ports.ChartProvider = (*Client)(nil)

// NewClient builds a chart fetcher.
func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = defaultChartURL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = defaultMaxEntries
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	return &Client{
		http: resty.New().
			SetTimeout(opts.Timeout).
			SetHeader("User-Agent", "Mozilla/5.0 (compatible; openwave-chart-sync/1.0)").
			SetRetryCount(2).
			SetRetryWaitTime(time.Second),
		url:        opts.URL,
		maxEntries: opts.MaxEntries,
	}
}

// FetchChart downloads and parses the chart page.
func (c *Client) FetchChart(ctx context.Context) ([]ports.ChartEntry, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("billboard: %w: %v", domain.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("billboard: fetch chart: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("billboard: %w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode())
	}

	entries, err := ParseChart(bytes.NewReader(resp.Body()), c.maxEntries)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("billboard: %w: no chart rows found", domain.ErrMalformedRecord)
	}
	return entries, nil
}

// ParseChart extracts up to max rows in page order. Rows without a title are
// skipped; a missing artist is left empty.
func ParseChart(r io.Reader, max int) ([]ports.ChartEntry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("billboard: parse chart: %w", err)
	}

	entries := []ports.ChartEntry{}
	var visit func(n *html.Node) bool
	visit = func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, rowClass) {
			title, artist := parseRow(n)
			if title != "" {
				entries = append(entries, ports.ChartEntry{Rank: len(entries) + 1, Title: title, Artist: artist})
			}
			return max > 0 && len(entries) >= max
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if visit(child) {
				return true
			}
		}
		return false
	}
	visit(doc)
	return entries, nil
}

// parseRow reads the title heading and the first label that follows it.
func parseRow(row *html.Node) (string, string) {
	var title, artist string
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if artist != "" {
			return
		}
		if n.Type == html.ElementNode {
			switch {
			case title == "" && n.DataAtom == atom.H3 && attr(n, "id") == titleID:
				title = text(n)
				return
			case title != "" && n.DataAtom == atom.Span && hasClass(n, artistClass):
				artist = text(n)
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(row)
	return title, artist
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, token := range strings.Fields(attr(n, "class")) {
		if token == class {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
