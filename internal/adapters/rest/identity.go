package rest

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	identityHeader = "X-Identity"
	identityParam  = "identity"
	guestCookie    = "ow_guest"
	guestHeader    = "X-Guest-Id"
	guestMaxAge    = 365 * 24 * 60 * 60
)

// resolveIdentity returns the caller's identity. Callers without one are
// issued a guest id in both a response header and a cookie.
func resolveIdentity(w http.ResponseWriter, r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(identityHeader)); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.URL.Query().Get(identityParam)); id != "" {
		return id
	}
	if c, err := r.Cookie(guestCookie); err == nil && strings.TrimSpace(c.Value) != "" {
		return c.Value
	}

	guest := "guest_" + uuid.NewString()
	w.Header().Set(guestHeader, guest)
	http.SetCookie(w, &http.Cookie{
		Name:     guestCookie,
		Value:    guest,
		Path:     "/",
		MaxAge:   guestMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return guest
}
