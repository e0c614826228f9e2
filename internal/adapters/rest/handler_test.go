package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/services"
)

// --- Mocks ---

type mockSearch struct {
	err     error
	last    domain.Query
	calls   int
	results map[domain.Kind]domain.Result
}

func (m *mockSearch) Search(_ context.Context, q domain.Query) (domain.Result, error) {
	m.calls++
	m.last = q
	if m.err != nil {
		return domain.Result{}, m.err
	}
	if q.Kind != domain.KindTrending && q.Term == "" {
		return domain.Result{}, domain.ErrInvalidQuery
	}
	if res, ok := m.results[q.Kind]; ok {
		return res, nil
	}
	return domain.Result{Items: []domain.Track{{ID: "t1", Title: q.Term}}, Source: domain.LiveSource("mock")}, nil
}

type mockTaste struct {
	logErr       error
	recommendErr error
	lastEvent    domain.PlayEvent
	lastIdentity string
}

func (m *mockTaste) LogPlay(_ context.Context, ev domain.PlayEvent) (services.PlayOutcome, error) {
	m.lastEvent = ev
	if m.logErr != nil {
		return services.PlayOutcome{}, m.logErr
	}
	return services.PlayOutcome{Vector: domain.NeutralVector(), ColdStart: true, Cataloged: true}, nil
}

func (m *mockTaste) Recommend(_ context.Context, identity string, limit int) (domain.Result, error) {
	m.lastIdentity = identity
	if m.recommendErr != nil {
		return domain.Result{}, m.recommendErr
	}
	return domain.Result{Items: []domain.Track{{ID: "rec"}}, Source: domain.SourceVector}, nil
}

func (m *mockTaste) DescribeProfile(_ context.Context, identity string) string {
	m.lastIdentity = identity
	return "High Energy Dance Party"
}

func (m *mockTaste) SuggestPlaylists(_ context.Context, identity string, limit int) (domain.Result, error) {
	m.lastIdentity = identity
	return domain.Result{Items: []domain.Track{{ID: "pl", IsPlaylist: true}}, Source: domain.SourceMoodSynthesis}, nil
}

type mockPicks struct {
	err error
	now time.Time
}

func (m *mockPicks) EditorsPicks(_ context.Context, now time.Time, limit int) (domain.Result, error) {
	m.now = now
	if m.err != nil {
		return domain.Result{}, m.err
	}
	return domain.Result{Items: []domain.Track{{ID: "pick"}}, Source: domain.SourceEditorsPicks}, nil
}

func newTestHandler(search *mockSearch, taste *mockTaste, picks *mockPicks, opts Options) *Handler {
	if search == nil {
		search = &mockSearch{}
	}
	if taste == nil {
		taste = &mockTaste{}
	}
	if picks == nil {
		picks = &mockPicks{}
	}
	return NewHandler(search, taste, picks, opts)
}

// --- Tests ---

func TestHandler_HealthCheck(t *testing.T) {
	h := newTestHandler(nil, nil, nil, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected json content type, got %q", rec.Header().Get("Content-Type"))
	}
}

func TestHandler_Metrics(t *testing.T) {
	h := newTestHandler(nil, nil, nil, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_Search(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		searchErr      error
		expectedStatus int
		expectedBody   string
		expectedKind   domain.Kind
		expectedLimit  int
	}{
		{
			name:           "Success: default kind and limit",
			target:         "/api/search?q=lofi",
			expectedStatus: http.StatusOK,
			expectedBody:   `"source":"live:mock"`,
			expectedKind:   domain.KindTrack,
			expectedLimit:  20,
		},
		{
			name:           "Success: playlist kind with limit",
			target:         "/api/search?q=lofi&type=playlist&limit=5",
			expectedStatus: http.StatusOK,
			expectedKind:   domain.KindPlaylist,
			expectedLimit:  5,
		},
		{
			name:           "Success: oversized limit is clamped",
			target:         "/api/search?q=lofi&limit=500",
			expectedStatus: http.StatusOK,
			expectedKind:   domain.KindTrack,
			expectedLimit:  domain.MaxLimit,
		},
		{
			name:           "Bad Request: unknown type",
			target:         "/api/search?q=lofi&type=album",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"code":"invalid_type"`,
		},
		{
			name:           "Bad Request: malformed limit",
			target:         "/api/search?q=lofi&limit=abc",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"code":"invalid_limit"`,
		},
		{
			name:           "Bad Request: empty term",
			target:         "/api/search?q=",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"code":"invalid_query"`,
		},
		{
			name:           "Server Error: details are hidden",
			target:         "/api/search?q=lofi",
			searchErr:      errors.New("discovery: badger exploded"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := &mockSearch{err: tt.searchErr}
			h := newTestHandler(search, nil, nil, Options{DefaultLimit: 20})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d, body: %s", tt.expectedStatus, rec.Code, strings.TrimSpace(rec.Body.String()))
			}
			if tt.expectedBody != "" && !strings.Contains(rec.Body.String(), tt.expectedBody) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedBody, rec.Body.String())
			}
			if strings.Contains(rec.Body.String(), "badger") {
				t.Errorf("internal error leaked to client: %q", rec.Body.String())
			}
			if tt.expectedStatus == http.StatusOK {
				if search.last.Kind != tt.expectedKind || search.last.Limit != tt.expectedLimit {
					t.Errorf("expected %v/%d, got %+v", tt.expectedKind, tt.expectedLimit, search.last)
				}
			}
		})
	}
}

func TestHandler_LogPlay(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		contentType    string
		identity       string
		logErr         error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Success: returns vector",
			body:           `{"trackId":"abc","title":"Club Remix","artist":"DJ"}`,
			contentType:    "application/json",
			identity:       "user-1",
			expectedStatus: http.StatusOK,
			expectedBody:   `"success":true`,
		},
		{
			name:           "Success: charset parameter accepted",
			body:           `{"trackId":"abc"}`,
			contentType:    "application/json; charset=utf-8",
			identity:       "user-1",
			expectedStatus: http.StatusOK,
			expectedBody:   `"coldStart":true`,
		},
		{
			name:           "Unsupported: wrong content type",
			body:           `{"trackId":"abc"}`,
			contentType:    "text/plain",
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "Bad Request: malformed json",
			body:           `{invalid-json`,
			contentType:    "application/json",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid request body",
		},
		{
			name:           "Bad Request: missing track id",
			body:           `{"title":"x"}`,
			contentType:    "application/json",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "trackId is required",
		},
		{
			name:           "Server Error: store failure",
			body:           `{"trackId":"abc"}`,
			contentType:    "application/json",
			identity:       "user-1",
			logErr:         errors.New("taste: save profile: boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taste := &mockTaste{logErr: tt.logErr}
			h := newTestHandler(nil, taste, nil, Options{})

			req := httptest.NewRequest(http.MethodPost, "/api/taste/log", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			if tt.identity != "" {
				req.Header.Set(identityHeader, tt.identity)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d, body: %s", tt.expectedStatus, rec.Code, strings.TrimSpace(rec.Body.String()))
			}
			if tt.expectedBody != "" && !strings.Contains(rec.Body.String(), tt.expectedBody) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedBody, rec.Body.String())
			}
			if tt.expectedStatus == http.StatusOK {
				var resp logPlayResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if len(resp.Vector) != domain.VectorDims {
					t.Errorf("expected %d dims, got %d", domain.VectorDims, len(resp.Vector))
				}
				if taste.lastEvent.Identity != tt.identity || taste.lastEvent.TrackID != "abc" {
					t.Errorf("unexpected event %+v", taste.lastEvent)
				}
			}
		})
	}
}

func TestHandler_IdentityResolution(t *testing.T) {
	t.Run("guest id issued and reused", func(t *testing.T) {
		taste := &mockTaste{}
		h := newTestHandler(nil, taste, nil, Options{})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/taste/profile", nil))

		guest := rec.Header().Get(guestHeader)
		if !strings.HasPrefix(guest, "guest_") {
			t.Fatalf("expected guest id header, got %q", guest)
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != guestCookie || cookies[0].Value != guest {
			t.Fatalf("expected guest cookie %q, got %+v", guest, cookies)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/taste/profile", nil)
		req.AddCookie(cookies[0])
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if taste.lastIdentity != guest {
			t.Fatalf("expected cookie identity %q, got %q", guest, taste.lastIdentity)
		}
		if rec.Header().Get(guestHeader) != "" {
			t.Fatal("expected no new guest id when cookie is present")
		}
	})

	t.Run("header wins over query and cookie", func(t *testing.T) {
		taste := &mockTaste{}
		h := newTestHandler(nil, taste, nil, Options{})

		req := httptest.NewRequest(http.MethodGet, "/api/taste/profile?identity=from-query", nil)
		req.Header.Set(identityHeader, "from-header")
		req.AddCookie(&http.Cookie{Name: guestCookie, Value: "from-cookie"})
		h.ServeHTTP(httptest.NewRecorder(), req)

		if taste.lastIdentity != "from-header" {
			t.Fatalf("expected header identity, got %q", taste.lastIdentity)
		}
	})

	t.Run("query wins over cookie", func(t *testing.T) {
		taste := &mockTaste{}
		h := newTestHandler(nil, taste, nil, Options{})

		req := httptest.NewRequest(http.MethodGet, "/api/taste/profile?identity=from-query", nil)
		req.AddCookie(&http.Cookie{Name: guestCookie, Value: "from-cookie"})
		h.ServeHTTP(httptest.NewRecorder(), req)

		if taste.lastIdentity != "from-query" {
			t.Fatalf("expected query identity, got %q", taste.lastIdentity)
		}
	})
}

func TestHandler_Recommend(t *testing.T) {
	tests := []struct {
		name           string
		recommendErr   error
		searchErr      error
		expectedStatus int
		expectedSource string
		expectSearch   bool
	}{
		{
			name:           "Success: profile recommendations",
			expectedStatus: http.StatusOK,
			expectedSource: domain.SourceVector,
		},
		{
			name:           "Cold start: trending fallback",
			recommendErr:   domain.ErrNoProfile,
			expectedStatus: http.StatusOK,
			expectedSource: domain.SourceColdStart,
			expectSearch:   true,
		},
		{
			name:           "Server Error: trending fallback fails",
			recommendErr:   domain.ErrNoProfile,
			searchErr:      errors.New("discovery: down"),
			expectedStatus: http.StatusInternalServerError,
			expectSearch:   true,
		},
		{
			name:           "Server Error: recommend fails",
			recommendErr:   errors.New("taste: load profile: boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := &mockSearch{err: tt.searchErr}
			taste := &mockTaste{recommendErr: tt.recommendErr}
			h := newTestHandler(search, taste, nil, Options{DefaultLimit: 10})

			req := httptest.NewRequest(http.MethodGet, "/api/taste/recommend?limit=3", nil)
			req.Header.Set(identityHeader, "user-1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d, body: %s", tt.expectedStatus, rec.Code, strings.TrimSpace(rec.Body.String()))
			}
			if tt.expectSearch != (search.calls == 1) {
				t.Fatalf("expected search called=%v, got %d calls", tt.expectSearch, search.calls)
			}
			if tt.expectSearch && (search.last.Kind != domain.KindTrending || search.last.Limit != 3) {
				t.Errorf("expected trending query with limit 3, got %+v", search.last)
			}
			if tt.expectedSource == "" {
				return
			}
			var res domain.Result
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if res.Source != tt.expectedSource {
				t.Errorf("expected source %q, got %q", tt.expectedSource, res.Source)
			}
		})
	}
}

func TestHandler_ProfileAndPlaylists(t *testing.T) {
	h := newTestHandler(nil, nil, nil, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/taste/profile", nil)
	req.Header.Set(identityHeader, "user-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"description":"High Energy Dance Party"`) {
		t.Fatalf("unexpected profile response %d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/taste/playlists", nil)
	req.Header.Set(identityHeader, "user-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"source":"vector_mood_synthesis"`) {
		t.Fatalf("unexpected playlists response %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandler_EditorsPicks(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	picks := &mockPicks{}
	h := newTestHandler(nil, nil, picks, Options{})
	h.now = func() time.Time { return fixed }

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/picks", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"source":"editors_picks"`) {
		t.Fatalf("unexpected picks response %d %q", rec.Code, rec.Body.String())
	}
	if !picks.now.Equal(fixed) {
		t.Fatalf("expected injected clock, got %v", picks.now)
	}

	picks.err = errors.New("picks: all searches failed")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/picks", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHandler_RateLimit(t *testing.T) {
	h := newTestHandler(nil, nil, nil, Options{RateLimitPerMinute: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=lofi", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 200,200,429 got %v", codes)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected health to bypass the limiter, got %d", rec.Code)
	}
}
