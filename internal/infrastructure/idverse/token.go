package idverse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/idverse-gateway/internal/config"
	"github.com/idverse-gateway/internal/domain"
)

const (
	// A cached token is refreshed once it is within this margin of expiry,
	// so an outbound call never rides a token that expires mid-flight.
	renewalMargin = 60 * time.Second

	// Fallback when the token endpoint omits expires_in.
	defaultExpiresIn = 900

	requestTimeout = 30 * time.Second
)

// TokenResponse mirrors the provider's OAuth token endpoint body,
// including its error fields.
type TokenResponse struct {
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
	AccessToken string `json:"access_token,omitempty"`

	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
	Hint             string `json:"hint,omitempty"`
	Message          string `json:"message,omitempty"`
}

func (r *TokenResponse) Success() bool {
	return r.AccessToken != ""
}

func (r *TokenResponse) HasError() bool {
	return r.Error != "" || r.Message != ""
}

// TokenCache holds a single client-credentials bearer token and its expiry.
// Cache hits take the read lock only; refreshes are serialized behind the
// write lock with a re-check, so concurrent callers never issue duplicate
// token requests. Value and expiry are always replaced together.
type TokenCache struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	httpClient   *http.Client
	oauthURL     string
	clientID     string
	clientSecret string
	now          func() time.Time
}

func NewTokenCache(cfg *config.Config) *TokenCache {
	return &TokenCache{
		httpClient:   &http.Client{Timeout: requestTimeout},
		oauthURL:     cfg.ProviderOAuthURL,
		clientID:     cfg.ProviderClientID,
		clientSecret: cfg.ProviderClientSecret,
		now:          time.Now,
	}
}

// Token returns the cached bearer token, refreshing it first when it is
// missing or inside the renewal margin. A failed refresh leaves the cache
// empty and returns an error wrapping domain.ErrProviderAuth.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.valid() {
		token := c.token
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.token, nil
	}

	resp, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}

	expiresIn := resp.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	c.token = resp.AccessToken
	c.expiresAt = c.now().Add(time.Duration(expiresIn) * time.Second)
	slog.Info("obtained provider access token",
		"token_type", resp.TokenType, "expires_in", expiresIn)
	return c.token, nil
}

// Clear forcibly invalidates the cached token for manual recovery.
func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
	slog.Info("provider token cache cleared")
}

// valid reports whether the cached token exists and is outside the renewal
// margin. Callers must hold at least the read lock.
func (c *TokenCache) valid() bool {
	return c.token != "" && c.now().Add(renewalMargin).Before(c.expiresAt)
}

// fetch performs one client-credentials request against the token endpoint.
func (c *TokenCache) fetch(ctx context.Context) (*TokenResponse, error) {
	body, status, err := c.post(ctx)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %v: %w", err, domain.ErrProviderAuth)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("token endpoint returned HTTP %d: %s: %w", status, body, domain.ErrProviderAuth)
	}

	var resp TokenResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("decode token response: %v: %w", err, domain.ErrProviderAuth)
	}
	if resp.HasError() {
		return nil, fmt.Errorf("oauth error: %s - %s (hint: %s, message: %s): %w",
			resp.Error, resp.ErrorDescription, resp.Hint, resp.Message, domain.ErrProviderAuth)
	}
	if !resp.Success() {
		return nil, fmt.Errorf("token response does not contain access_token: %w", domain.ErrProviderAuth)
	}
	return &resp, nil
}

// TestConnection issues a token request outside the cache and returns the
// provider-shaped response. Provider-side failures are folded into the
// response body; only transport-level problems surface as an error.
func (c *TokenCache) TestConnection(ctx context.Context) (*TokenResponse, error) {
	body, status, err := c.post(ctx)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return &TokenResponse{
			Error:   "http_error",
			Message: fmt.Sprintf("HTTP %d: %s", status, body),
		}, nil
	}
	var resp TokenResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &resp, nil
}

// TestConnectionVerbose is the debug variant of TestConnection used by the
// /test/oauth endpoint. When debug is true the result includes the request
// parameters (secret masked) and the raw response body.
func (c *TokenCache) TestConnectionVerbose(ctx context.Context, debug bool) map[string]interface{} {
	result := map[string]interface{}{}
	if debug {
		result["request"] = map[string]interface{}{
			"url":          c.oauthURL,
			"method":       http.MethodPost,
			"content_type": "application/x-www-form-urlencoded",
			"parameters": map[string]string{
				"grant_type":    "client_credentials",
				"client_id":     c.clientID,
				"client_secret": maskSecret(c.clientSecret),
			},
		}
	}

	body, status, err := c.post(ctx)
	if err != nil {
		result["status"] = "ERROR"
		result["error"] = "exception"
		result["message"] = err.Error()
		return result
	}
	if debug {
		result["raw_response"] = body
		result["http_status"] = status
	}
	if status < 200 || status >= 300 {
		result["status"] = "FAILURE"
		result["error"] = "http_error"
		result["message"] = fmt.Sprintf("HTTP %d: %s", status, body)
		return result
	}

	var resp TokenResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		result["status"] = "ERROR"
		result["error"] = "exception"
		result["message"] = err.Error()
		return result
	}
	if !resp.Success() {
		result["status"] = "FAILURE"
		result["error"] = resp.Error
		result["error_description"] = resp.ErrorDescription
		result["hint"] = resp.Hint
		result["message"] = resp.Message
		return result
	}

	result["status"] = "SUCCESS"
	result["message"] = "OAuth token obtained successfully"
	result["token_type"] = resp.TokenType
	result["expires_in"] = resp.ExpiresIn
	result["access_token_preview"] = preview(resp.AccessToken)
	if debug {
		result["access_token_full"] = resp.AccessToken
	}
	return result
}

// post sends the form-encoded client-credentials request and returns the raw
// body and HTTP status.
func (c *TokenCache) post(ctx context.Context) (string, int, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, err
	}
	return string(body), resp.StatusCode, nil
}

func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****" + secret[len(secret)-4:]
}

func preview(token string) string {
	if len(token) <= 20 {
		return token + "..."
	}
	return token[:20] + "..."
}
