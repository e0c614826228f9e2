package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(":memory:")
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func vectorWith(dim int, value float64) domain.Vector {
	var v domain.Vector
	v[dim] = value
	return v
}

func TestCatalog_Match(t *testing.T) {
	energetic := vectorWith(domain.DimEnergy, 1)
	calm := vectorWith(domain.DimAcousticness, 1)
	mixed := energetic
	mixed[domain.DimAcousticness] = 1

	tests := []struct {
		name      string
		items     []ports.CatalogItem
		query     domain.Vector
		threshold float64
		limit     int
		wantIDs   []string
	}{
		{
			name:    "empty catalog",
			query:   energetic,
			limit:   10,
			wantIDs: []string{},
		},
		{
			name: "ranks by similarity and applies threshold",
			items: []ports.CatalogItem{
				{ID: "calm", Title: "Calm", Artist: "A", Vector: calm},
				{ID: "mixed", Title: "Mixed", Artist: "B", Vector: mixed},
				{ID: "loud", Title: "Loud", Artist: "C", Vector: energetic},
			},
			query:     energetic,
			threshold: 0.3,
			limit:     10,
			wantIDs:   []string{"loud", "mixed"},
		},
		{
			name: "limit truncates",
			items: []ports.CatalogItem{
				{ID: "b", Title: "B", Artist: "B", Vector: energetic},
				{ID: "a", Title: "A", Artist: "A", Vector: energetic},
				{ID: "c", Title: "C", Artist: "C", Vector: energetic},
			},
			query:   energetic,
			limit:   2,
			wantIDs: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCatalog(t)
			ctx := context.Background()
			for _, item := range tt.items {
				if err := c.Upsert(ctx, item); err != nil {
					t.Fatalf("upsert %s: %v", item.ID, err)
				}
			}

			got, err := c.Match(ctx, tt.query, tt.threshold, tt.limit)
			if err != nil {
				t.Fatalf("match: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("expected %d matches, got %+v", len(tt.wantIDs), got)
			}
			for i, m := range got {
				if m.Track.ID != tt.wantIDs[i] {
					t.Fatalf("match %d: expected %s, got %s", i, tt.wantIDs[i], m.Track.ID)
				}
				if m.Track.SourceURL == "" || m.Track.ThumbnailURL == "" {
					t.Fatalf("expected urls to be filled, got %+v", m.Track)
				}
			}
		})
	}
}

func TestCatalog_UpsertUpdatesExisting(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()
	v := vectorWith(domain.DimEnergy, 1)

	if err := c.Upsert(ctx, ports.CatalogItem{ID: "t1", Title: "Old", Artist: "A", Vector: v}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := c.Upsert(ctx, ports.CatalogItem{ID: "t1", Title: "New", Artist: "A", ThumbnailURL: "https://img/t1.jpg", Vector: v}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := c.Match(ctx, v, 0.5, 10)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(got) != 1 || got[0].Track.Title != "New" || got[0].Track.ThumbnailURL != "https://img/t1.jpg" {
		t.Fatalf("expected single updated row, got %+v", got)
	}

	var plays int
	if err := c.db.QueryRowContext(ctx, "SELECT play_count FROM tracks WHERE id = ?", "t1").Scan(&plays); err != nil {
		t.Fatalf("read play count: %v", err)
	}
	if plays != 2 {
		t.Fatalf("expected play_count 2, got %d", plays)
	}
}

func TestCatalog_MatchFillsMissingFields(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()
	v := vectorWith(domain.DimAcousticness, 1)

	if err := c.Upsert(ctx, ports.CatalogItem{ID: "aaaaaaaaaaa", Vector: v}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := c.Match(ctx, v, 0.5, 10)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one match, got %d", len(got))
	}
	track := got[0].Track
	if track.Title != "aaaaaaaaaaa" {
		t.Errorf("Title = %q, want the id", track.Title)
	}
	if track.Artist != domain.UnknownArtist {
		t.Errorf("Artist = %q, want %q", track.Artist, domain.UnknownArtist)
	}
	if track.ThumbnailURL != domain.PlaceholderThumbnail("aaaaaaaaaaa") {
		t.Errorf("ThumbnailURL = %q, want placeholder", track.ThumbnailURL)
	}
}

func TestCatalog_Errors(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	if err := c.Upsert(ctx, ports.CatalogItem{}); !errors.Is(err, domain.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}

	_ = c.Close()
	if _, err := c.Match(ctx, domain.NeutralVector(), 0.3, 5); !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable after close, got %v", err)
	}
}

func TestCatalog_MigrateIsRepeatable(t *testing.T) {
	c := newTestCatalog(t)
	if err := c.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
