package rest

import (
	"errors"
	"net/http"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
)

// Search handles GET /api/search?q=&type=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	kind, err := domain.ParseKind(params.Get("type"))
	if err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_type")
		return
	}
	limit, ok := queryInt(r, "limit", h.opts.DefaultLimit)
	if !ok {
		writeErrorWithCode(w, http.StatusBadRequest, "limit must be a positive integer", "invalid_limit")
		return
	}

	q := domain.NewQuery(params.Get("q"), kind, limit, h.opts.DefaultLimit)
	res, err := h.search.Search(r.Context(), q)
	if err != nil {
		h.serviceError(w, r, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// EditorsPicks handles GET /api/picks.
func (h *Handler) EditorsPicks(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", h.opts.DefaultLimit)
	if !ok {
		writeErrorWithCode(w, http.StatusBadRequest, "limit must be a positive integer", "invalid_limit")
		return
	}
	res, err := h.picks.EditorsPicks(r.Context(), h.now(), limit)
	if err != nil {
		h.serviceError(w, r, "picks", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// serviceError maps service failures onto status codes. Internal details
// are logged, not returned.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_query")
	case r.Context().Err() != nil:
		// client went away
		h.log.Debug().Str("op", op).Err(err).Msg("request canceled")
	default:
		h.log.Error().Str("op", op).Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
