package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
)

const maxBodyBytes = 64 << 10

type logPlayRequest struct {
	TrackID   string `json:"trackId"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Thumbnail string `json:"thumbnail"`
}

type logPlayResponse struct {
	Success   bool      `json:"success"`
	Identity  string    `json:"identity"`
	Vector    []float64 `json:"vector"`
	ColdStart bool      `json:"coldStart"`
	Cataloged bool      `json:"cataloged"`
}

type profileResponse struct {
	Identity    string `json:"identity"`
	Description string `json:"description"`
}

// LogPlay handles POST /api/taste/log.
func (h *Handler) LogPlay(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req logPlayRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "invalid request body", "invalid_body")
		return
	}
	if strings.TrimSpace(req.TrackID) == "" {
		writeErrorWithCode(w, http.StatusBadRequest, "trackId is required", "invalid_query")
		return
	}

	identity := resolveIdentity(w, r)
	out, err := h.taste.LogPlay(r.Context(), domain.PlayEvent{
		TrackID:      strings.TrimSpace(req.TrackID),
		Title:        req.Title,
		Artist:       req.Artist,
		ThumbnailURL: req.Thumbnail,
		Identity:     identity,
	})
	if err != nil {
		h.serviceError(w, r, "log_play", err)
		return
	}

	writeJSON(w, http.StatusOK, logPlayResponse{
		Success:   true,
		Identity:  identity,
		Vector:    out.Vector.Slice(),
		ColdStart: out.ColdStart,
		Cataloged: out.Cataloged,
	})
}

// Recommend handles GET /api/taste/recommend. Identities with no profile get
// trending results.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", h.opts.DefaultLimit)
	if !ok {
		writeErrorWithCode(w, http.StatusBadRequest, "limit must be a positive integer", "invalid_limit")
		return
	}

	identity := resolveIdentity(w, r)
	res, err := h.taste.Recommend(r.Context(), identity, limit)
	if errors.Is(err, domain.ErrNoProfile) {
		res, err = h.search.Search(r.Context(), domain.NewQuery("", domain.KindTrending, limit, h.opts.DefaultLimit))
		if err == nil {
			res.Source = domain.SourceColdStart
		}
	}
	if err != nil {
		h.serviceError(w, r, "recommend", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Profile handles GET /api/taste/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	identity := resolveIdentity(w, r)
	writeJSON(w, http.StatusOK, profileResponse{
		Identity:    identity,
		Description: h.taste.DescribeProfile(r.Context(), identity),
	})
}

// Playlists handles GET /api/taste/playlists.
func (h *Handler) Playlists(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeErrorWithCode(w, http.StatusBadRequest, "limit must be a positive integer", "invalid_limit")
		return
	}
	identity := resolveIdentity(w, r)
	res, err := h.taste.SuggestPlaylists(r.Context(), identity, limit)
	if err != nil {
		h.serviceError(w, r, "playlists", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
