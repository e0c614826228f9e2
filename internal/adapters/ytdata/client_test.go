package ytdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
)

func TestClient_FetchEndpoints(t *testing.T) {
	tests := []struct {
		name          string
		query         domain.Query
		wantPath      string
		wantParams    map[string]string
		wantContainer bool
	}{
		{
			name:       "track search",
			query:      domain.NewQuery("lofi", domain.KindTrack, 5, 5),
			wantPath:   "/search",
			wantParams: map[string]string{"type": "video", "q": "lofi", "maxResults": "10", "videoCategoryId": "10", "key": "k"},
		},
		{
			name:       "padded search capped at api maximum",
			query:      domain.NewQuery("lofi", domain.KindTrack, 50, 5),
			wantPath:   "/search",
			wantParams: map[string]string{"maxResults": "50"},
		},
		{
			name:          "playlist search",
			query:         domain.NewQuery("lofi", domain.KindPlaylist, 3, 5),
			wantPath:      "/search",
			wantParams:    map[string]string{"type": "playlist", "q": "lofi", "maxResults": "8"},
			wantContainer: true,
		},
		{
			name:       "trending chart",
			query:      domain.NewQuery("", domain.KindTrending, 10, 5),
			wantPath:   "/videos",
			wantParams: map[string]string{"chart": "mostPopular", "videoCategoryId": "10"},
		},
		{
			name:       "playlist items",
			query:      domain.NewQuery("https://www.youtube.com/playlist?list=PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG", domain.KindPlaylistTracks, 10, 5),
			wantPath:   "/playlistItems",
			wantParams: map[string]string{"playlistId": "PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG"},
		},
		{
			name:       "metadata",
			query:      domain.NewQuery("dQw4w9WgXcQ", domain.KindMetadata, 1, 5),
			wantPath:   "/videos",
			wantParams: map[string]string{"id": "dQw4w9WgXcQ", "maxResults": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.wantPath {
					t.Errorf("path: got %s, want %s", r.URL.Path, tt.wantPath)
				}
				for k, v := range tt.wantParams {
					if got := r.URL.Query().Get(k); got != v {
						t.Errorf("param %s: got %q, want %q", k, got, v)
					}
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"items":[
					{"id":{"videoId":"aaaaaaaaaaa"},"snippet":{"title":"One","channelTitle":"A"}},
					{"snippet":{"title":"Deleted video"}},
					{"id":"bbbbbbbbbbb","snippet":{"title":"Two"},"contentDetails":{"duration":"PT3M20S"}}
				]}`))
			}))
			defer srv.Close()

			c := NewClient(Options{BaseURL: srv.URL, APIKey: "k"})
			records, err := c.Fetch(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("expected deleted entry to be skipped, got %d records", len(records))
			}
			for _, rec := range records {
				if rec.Container != tt.wantContainer || rec.Adapter != "ytdata" {
					t.Fatalf("unexpected record tagging %+v", rec)
				}
			}
		})
	}
}

func TestClient_NoCredentials(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Fetch(context.Background(), domain.NewQuery("lofi", domain.KindTrack, 5, 5))
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestClient_RefreshToken(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("grant_type") != "refresh_token" || r.Form.Get("refresh_token") != "refresh" {
			http.Error(w, "bad grant", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("key") != "" {
			t.Errorf("expected no api key with oauth, got %q", r.URL.Query().Get("key"))
		}
		_, _ = w.Write([]byte(`{"items":[{"id":{"videoId":"aaaaaaaaaaa"},"snippet":{"title":"One"}}]}`))
	}))
	defer apiSrv.Close()

	c := NewClient(Options{
		BaseURL:      apiSrv.URL,
		TokenURL:     tokenSrv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "refresh",
	})
	records, err := c.Fetch(context.Background(), domain.NewQuery("lofi", domain.KindTrack, 5, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
		wantNil bool
	}{
		{name: "quota exceeded", status: http.StatusForbidden, wantErr: domain.ErrUpstreamUnavailable},
		{name: "server errors exhaust retries", status: http.StatusBadGateway, wantErr: domain.ErrUpstreamUnavailable},
		{name: "not found is empty", status: http.StatusNotFound, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(Options{BaseURL: srv.URL, APIKey: "k", MaxRetries: 2, BaseBackoff: time.Millisecond})
			records, err := c.Fetch(context.Background(), domain.NewQuery("lofi", domain.KindTrack, 5, 5))
			if tt.wantNil {
				if err != nil || len(records) != 0 {
					t.Fatalf("expected empty result, got %v %v", records, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
