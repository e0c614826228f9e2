package ports

import (
	"context"
	"time"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
)

// KVStore is the external key-value tier. Get reports a miss with ok=false
// and a nil error.
type KVStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ResultCache fronts the resolver.
type ResultCache interface {
	Lookup(ctx context.Context, q domain.Query) (domain.Result, bool)
	Store(ctx context.Context, q domain.Query, items []domain.Track)
	Chart(ctx context.Context) ([]domain.Track, bool)
	StoreChart(ctx context.Context, items []domain.Track) error
}

// PreferenceStore holds one taste vector per identity.
type PreferenceStore interface {
	Load(ctx context.Context, identity string) (domain.Vector, bool, error)
	Save(ctx context.Context, identity string, v domain.Vector, ttl time.Duration) error
}

// CatalogItem is what the taste engine upserts after a play.
type CatalogItem struct {
	ID           string
	Title        string
	Artist       string
	ThumbnailURL string
	Vector       domain.Vector
}

// CatalogMatch is one nearest-neighbour hit.
type CatalogMatch struct {
	Track domain.Track
	Score float64
}

// ItemCatalog is the durable store of played items and their vectors.
type ItemCatalog interface {
	Upsert(ctx context.Context, item CatalogItem) error
	Match(ctx context.Context, v domain.Vector, threshold float64, limit int) ([]CatalogMatch, error)
}
