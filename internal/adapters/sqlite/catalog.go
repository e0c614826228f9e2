// Package sqlite provides the SQLite-backed item catalog used for taste
// similarity lookups.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
)

// Catalog implements ports.ItemCatalog.
type Catalog struct {
	db *sql.DB
}

var _ ports.ItemCatalog = (*Catalog)(nil)

// NewCatalog opens the database and runs the schema migration.
func NewCatalog(storagePath string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return c, nil
}

// Close ensures the DB connection is closed gracefully
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Upsert records an item and its vector. Repeat plays bump play_count.
func (c *Catalog) Upsert(ctx context.Context, item ports.CatalogItem) error {
	if item.ID == "" {
		return fmt.Errorf("sqlite catalog: upsert: %w: empty id", domain.ErrMalformedRecord)
	}
	embedding, err := json.Marshal(item.Vector.Slice())
	if err != nil {
		return fmt.Errorf("sqlite catalog: encode embedding: %w", err)
	}

	query := `
		INSERT INTO tracks (id, title, artist, thumbnail_url, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			artist=excluded.artist,
			thumbnail_url=excluded.thumbnail_url,
			embedding=excluded.embedding,
			play_count=tracks.play_count + 1,
			updated_at=CURRENT_TIMESTAMP;
	`
	if _, err := c.db.ExecContext(ctx, query, item.ID, item.Title, item.Artist, item.ThumbnailURL, string(embedding)); err != nil {
		return fmt.Errorf("sqlite catalog: upsert %s: %w: %v", item.ID, domain.ErrCatalogUnavailable, err)
	}
	return nil
}

// Match ranks stored items by cosine similarity to v and returns those
// scoring at least threshold, best first.
func (c *Catalog) Match(ctx context.Context, v domain.Vector, threshold float64, limit int) ([]ports.CatalogMatch, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, title, artist, IFNULL(thumbnail_url, ''), embedding FROM tracks`)
	if err != nil {
		return nil, fmt.Errorf("sqlite catalog: match: %w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	matches := []ports.CatalogMatch{}
	for rows.Next() {
		var (
			track     domain.Track
			embedding string
		)
		if err := rows.Scan(&track.ID, &track.Title, &track.Artist, &track.ThumbnailURL, &embedding); err != nil {
			return nil, fmt.Errorf("sqlite catalog: scan: %w: %v", domain.ErrCatalogUnavailable, err)
		}
		var values []float64
		if err := json.Unmarshal([]byte(embedding), &values); err != nil || len(values) != domain.VectorDims {
			continue
		}
		score := v.Cosine(domain.VectorFromSlice(values))
		if score < threshold {
			continue
		}
		if track.Title == "" {
			track.Title = track.ID
		}
		if track.Artist == "" {
			track.Artist = domain.UnknownArtist
		}
		if track.ThumbnailURL == "" {
			track.ThumbnailURL = domain.PlaceholderThumbnail(track.ID)
		}
		track.SourceURL = domain.WatchURL(track.ID)
		matches = append(matches, ports.CatalogMatch{Track: track, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite catalog: iterate: %w: %v", domain.ErrCatalogUnavailable, err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Track.ID < matches[j].Track.ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (c *Catalog) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		thumbnail_url TEXT,
		embedding TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := c.db.Exec(query); err != nil {
		return err
	}

	// Columns added after the first schema; older files get them on open.
	for _, column := range []string{
		"play_count INTEGER NOT NULL DEFAULT 1",
		"updated_at DATETIME",
	} {
		if _, err := c.db.Exec("ALTER TABLE tracks ADD COLUMN " + column); err != nil {
			if !isDuplicateColumnError(err) {
				return err
			}
		}
	}

	return nil
}

func isDuplicateColumnError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "duplicate column") || strings.Contains(err.Error(), "already exists"))
}
