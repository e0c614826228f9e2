package ports

import (
	"context"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
)

// Upstream is one retrieval strategy. Implementations are stateless and
// safe for concurrent use.
type Upstream interface {
	Name() string
	Supports(kind domain.Kind) bool
	Fetch(ctx context.Context, q domain.Query) ([]domain.RawRecord, error)
}

// ChartEntry is one row of an external popularity chart.
type ChartEntry struct {
	Rank   int
	Title  string
	Artist string
}

// ChartProvider fetches the curated chart that seeds trending results.
type ChartProvider interface {
	FetchChart(ctx context.Context) ([]ChartEntry, error)
}
