package handler

import (
	"crypto/subtle"
	"net/http"
	"net/url"

	"github.com/idverse-gateway/internal/application/auth"
)

// AuthHandler handles the browser handoff flow: a shared auth key is traded
// for a one-time exchange key, which the front end then redeems for a
// session token.
type AuthHandler struct {
	svc     auth.Service
	authKey string
}

func NewAuthHandler(svc auth.Service, authKey string) *AuthHandler {
	return &AuthHandler{svc: svc, authKey: authKey}
}

func (h *AuthHandler) GetAuth(w http.ResponseWriter, r *http.Request) {
	supplied := r.URL.Query().Get("auth_key")
	if supplied == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(h.authKey)) != 1 {
		writeError(w, http.StatusForbidden, "invalid auth key")
		return
	}

	issued, err := h.svc.Issue()
	if err != nil {
		httpError(w, err)
		return
	}
	// Exchange keys can contain #, % and &, so the value must be escaped or
	// the Location header hands the client a truncated key.
	http.Redirect(w, r, "/?jwt_key="+url.QueryEscape(issued.ExchangeKey), http.StatusFound)
}

// Session redeems a one-time exchange key. A second redemption, or one past
// the key's expiry, gets a 404.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("jwt_key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "jwt_key is required")
		return
	}

	token, err := h.svc.Redeem(key)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
