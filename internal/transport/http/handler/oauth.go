package handler

import (
	"net/http"

	"github.com/idverse-gateway/internal/config"
	"github.com/idverse-gateway/internal/infrastructure/idverse"
)

// OAuthHandler exposes provider token diagnostics and a mock token endpoint
// for local integration against this service instead of the real provider.
type OAuthHandler struct {
	cache *idverse.TokenCache
	cfg   *config.Config
}

func NewOAuthHandler(cache *idverse.TokenCache, cfg *config.Config) *OAuthHandler {
	return &OAuthHandler{cache: cache, cfg: cfg}
}

// MockToken mimics the provider's client-credentials response using a
// statically configured token value.
func (h *OAuthHandler) MockToken(w http.ResponseWriter, r *http.Request) {
	if h.cfg.MockOAuthToken == "" {
		writeError(w, http.StatusNotImplemented, "no mock token configured")
		return
	}
	writeJSON(w, http.StatusOK, idverse.TokenResponse{
		TokenType:   "Bearer",
		ExpiresIn:   900,
		AccessToken: h.cfg.MockOAuthToken,
	})
}

// TestOAuth probes the configured token endpoint. With ?verbose=debug the
// response includes the raw provider exchange with the secret masked.
func (h *OAuthHandler) TestOAuth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("verbose") == "debug" {
		writeJSON(w, http.StatusOK, h.cache.TestConnectionVerbose(r.Context(), true))
		return
	}
	resp, err := h.cache.TestConnection(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OAuthHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear()
	writeJSON(w, http.StatusOK, MessageEnvelope{Status: "success", Message: "token cache cleared"})
}

// TestConfig reports the effective provider configuration with the client
// secret redacted.
func (h *OAuthHandler) TestConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"oauth_url":     h.cfg.ProviderOAuthURL,
		"api_url":       h.cfg.ProviderAPIURL,
		"client_id":     h.cfg.ProviderClientID,
		"client_secret": "***redacted***",
	})
}
