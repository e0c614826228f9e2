package billboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
)

const chartPage = `<html><body>
<div class="o-chart-results-list-row-container">
  <ul class="o-chart-results-list-row // lrv-a-unstyle-list">
    <li><span class="c-label a-font-primary-bold-l">1</span></li>
    <li class="lrv-u-width-100p">
      <h3 id="title-of-a-story" class="c-title">
        Espresso
      </h3>
      <span class="c-label a-no-trucate">Sabrina Carpenter</span>
      <span class="c-label">2</span>
    </li>
  </ul>
</div>
<div class="o-chart-results-list-row-container">
  <ul class="o-chart-results-list-row">
    <li><h3 id="title-of-a-story">Not Like Us</h3><span class="c-label">Kendrick &amp; Friends</span></li>
  </ul>
</div>
<div class="o-chart-results-list-row-container">
  <ul class="o-chart-results-list-row"><li><span class="c-label">no title here</span></li></ul>
</div>
<div class="o-chart-results-list-row-container">
  <ul class="o-chart-results-list-row"><li><h3 id="title-of-a-story">Third</h3></li></ul>
</div>
</body></html>`

func TestParseChart(t *testing.T) {
	tests := []struct {
		name string
		max  int
		want []ports.ChartEntry
	}{
		{
			name: "all rows",
			max:  0,
			want: []ports.ChartEntry{
				{Rank: 1, Title: "Espresso", Artist: "Sabrina Carpenter"},
				{Rank: 2, Title: "Not Like Us", Artist: "Kendrick & Friends"},
				{Rank: 3, Title: "Third", Artist: ""},
			},
		},
		{
			name: "capped",
			max:  1,
			want: []ports.ChartEntry{{Rank: 1, Title: "Espresso", Artist: "Sabrina Carpenter"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChart(strings.NewReader(chartPage), tt.max)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d entries, got %+v", len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("entry %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestClient_FetchChart(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    int
		wantErr error
	}{
		{name: "ok", status: http.StatusOK, body: chartPage, want: 3},
		{name: "no rows", status: http.StatusOK, body: "<html></html>", wantErr: domain.ErrMalformedRecord},
		{name: "forbidden", status: http.StatusForbidden, wantErr: domain.ErrUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Options{URL: srv.URL, MaxEntries: 50})
			got, err := c.FetchChart(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d entries, got %d", tt.want, len(got))
			}
		})
	}
}
