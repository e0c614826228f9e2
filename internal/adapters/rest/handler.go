// Package rest exposes discovery and taste operations over HTTP.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/services"
	"github.com/S-lab-sudo/openwave-app/internal/logging"
)

// SearchService resolves discovery queries.
type SearchService interface {
	Search(ctx context.Context, q domain.Query) (domain.Result, error)
}

// TasteService learns from plays and recommends.
type TasteService interface {
	LogPlay(ctx context.Context, ev domain.PlayEvent) (services.PlayOutcome, error)
	Recommend(ctx context.Context, identity string, limit int) (domain.Result, error)
	DescribeProfile(ctx context.Context, identity string) string
	SuggestPlaylists(ctx context.Context, identity string, limit int) (domain.Result, error)
}

// PicksService builds editor's picks.
type PicksService interface {
	EditorsPicks(ctx context.Context, now time.Time, limit int) (domain.Result, error)
}

// Options tune request handling.
type Options struct {
	DefaultLimit       int
	RateLimitPerMinute int
}

// Handler manages the HTTP interface for our application.
type Handler struct {
	search SearchService
	taste  TasteService
	picks  PicksService
	opts   Options
	now    func() time.Time
	log    zerolog.Logger
	router chi.Router
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(search SearchService, taste TasteService, picks PicksService, opts Options) *Handler {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	h := &Handler{
		search: search,
		taste:  taste,
		picks:  picks,
		opts:   opts,
		now:    time.Now,
		log:    logging.WithComponent("http"),
	}
	h.router = h.routes()
	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if h.opts.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(h.opts.RateLimitPerMinute, time.Minute))
		}
		r.Get("/search", h.Search)
		r.Get("/picks", h.EditorsPicks)

		r.Route("/taste", func(r chi.Router) {
			r.Post("/log", h.LogPlay)
			r.Get("/recommend", h.Recommend)
			r.Get("/profile", h.Profile)
			r.Get("/playlists", h.Playlists)
		})
	})
	return r
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// accessLog writes one structured line per request.
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		event := h.log.Info()
		if status >= http.StatusInternalServerError {
			event = h.log.Warn()
		}
		event.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
