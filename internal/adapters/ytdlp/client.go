// Package ytdlp drives the yt-dlp executable and decodes its line-delimited
// JSON output into raw records.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os/exec"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/S-lab-sudo/openwave-app/internal/config"
	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
	"github.com/S-lab-sudo/openwave-app/internal/logging"
)

// execCommand and lookPath are variables so tests can substitute a helper process.
var (
	execCommand = exec.CommandContext
	lookPath    = exec.LookPath
)

// playlistFilter is the results-page filter that restricts search to playlists.
const playlistFilter = "EgIQAw%3D%3D"

const (
	maxLineSize = 4 << 20
	waitDelay   = 2 * time.Second
)

// Client implements ports.Upstream on top of yt-dlp.
type Client struct {
	binary string
	log    zerolog.Logger
}

var _ ports.Upstream = (*Client)(nil)

// NewClient returns a client for the given executable name or path.
func NewClient(binary string) *Client {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Client{
		binary: binary,
		log:    logging.WithComponent(config.AdapterYTDLP),
	}
}

func (c *Client) Name() string { return config.AdapterYTDLP }

func (c *Client) Supports(kind domain.Kind) bool {
	switch kind {
	case domain.KindTrack, domain.KindTrending, domain.KindPlaylist, domain.KindPlaylistTracks, domain.KindMetadata:
		return true
	default:
		return false
	}
}

// Fetch runs one yt-dlp invocation for q.
func (c *Client) Fetch(ctx context.Context, q domain.Query) ([]domain.RawRecord, error) {
	path, err := lookPath(c.binary)
	if err != nil {
		return nil, fmt.Errorf("ytdlp adapter: %w: %s not found: %v", domain.ErrUpstreamUnavailable, c.binary, err)
	}

	args := buildArgs(q)
	cmd := execCommand(ctx, path, args...)
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ytdlp adapter: stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ytdlp adapter: start: %w: %v", domain.ErrUpstreamUnavailable, err)
	}

	records := c.decode(stdout, q)
	waitErr := cmd.Wait()

	if stderr.Len() > 0 {
		c.log.Debug().Str("kind", q.Kind.String()).Str("stderr", truncateString(stderr.String(), 2048)).Msg("yt-dlp stderr")
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("ytdlp adapter: %w: %v", domain.ErrUpstreamTimeout, ctxErr)
		}
		return nil, fmt.Errorf("ytdlp adapter: %w", ctxErr)
	}
	if waitErr != nil && len(records) == 0 {
		return nil, fmt.Errorf("ytdlp adapter: %s exited: %w", c.binary, waitErr)
	}
	if waitErr != nil {
		c.log.Debug().Err(waitErr).Int("records", len(records)).Msg("yt-dlp exited non-zero after partial output")
	}
	return records, nil
}

// decode reads one JSON object per line. Malformed lines are dropped.
func (c *Client) decode(r io.Reader, q domain.Query) []domain.RawRecord {
	container := q.Kind == domain.KindPlaylist
	records := []domain.RawRecord{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(line, &fields); err != nil {
			c.log.Debug().Err(err).Msg("dropping malformed yt-dlp line")
			continue
		}
		records = append(records, domain.RawRecord{
			Adapter:   config.AdapterYTDLP,
			Container: container,
			Fields:    fields,
		})
	}
	if err := scanner.Err(); err != nil {
		c.log.Debug().Err(err).Msg("yt-dlp output scan stopped")
	}
	// Drain so the child never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
	return records
}

func buildArgs(q domain.Query) []string {
	switch q.Kind {
	case domain.KindPlaylist:
		target := "https://www.youtube.com/results?search_query=" + url.QueryEscape(q.Term) + "&sp=" + playlistFilter
		return []string{target, "--dump-json", "--flat-playlist", "--playlist-end", strconv.Itoa(q.FetchCount()), "--no-warnings"}
	case domain.KindPlaylistTracks:
		target := domain.PlaylistURL(domain.ParseIdentifier(q.Term))
		return []string{target, "--dump-json", "--flat-playlist", "--playlist-end", strconv.Itoa(q.FetchCount()), "--no-warnings"}
	case domain.KindMetadata:
		return []string{domain.WatchURL(domain.ParseIdentifier(q.Term)), "--dump-json", "--no-playlist", "--no-warnings"}
	default:
		search := fmt.Sprintf("ytsearch%d:%s", q.FetchCount(), q.Term)
		return []string{search, "--dump-json", "--flat-playlist", "--no-playlist", "--no-warnings"}
	}
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
