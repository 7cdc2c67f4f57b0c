package idverse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/idverse-gateway/internal/config"
	jwtinfra "github.com/idverse-gateway/internal/infrastructure/jwt"
)

// Diagnostic messages surfaced to callers instead of raw provider bodies.
const (
	msgHTMLInsteadOfJSON = "API returned HTML error page instead of JSON response"
	msgCDNBlocked        = "Request blocked by the provider's CDN. Check API credentials and source IP allowlisting."
	msgHTMLErrorBody     = "Verification API returned an HTML error page. Please contact support."
)

const (
	// Upstream 422 bodies are truncated before inclusion in error messages.
	maxErrorBodyLength = 200
	truncationMarker   = "... (truncated)"

	webhookTokenTTL = 24 * time.Hour
)

// TokenSource supplies bearer tokens for outbound provider calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// WebhookSigner signs the per-webhook callback tokens attached to notify URLs.
type WebhookSigner interface {
	Sign(subject string, ttl time.Duration) (string, error)
}

// Payload is the outbound verification request body sent to the provider.
type Payload struct {
	PhoneCode         string `json:"phoneCode"`
	PhoneNumber       string `json:"phoneNumber"`
	ReferenceID       string `json:"referenceId"`
	TransactionID     string `json:"transactionId"`
	Name              string `json:"name,omitempty"`
	SuppliedFirstName string `json:"suppliedFirstName,omitempty"`
	NotifyURLComplete string `json:"notifyUrlComplete,omitempty"`
	NotifyURLEvent    string `json:"notifyUrlEvent,omitempty"`
}

// Client sends verification requests to the IDVerse API.
type Client struct {
	httpClient     *http.Client
	apiURL         string
	tokens         TokenSource
	signer         WebhookSigner
	notifyComplete string
	notifyEvent    string
}

func NewClient(cfg *config.Config, tokens TokenSource, signer WebhookSigner) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: requestTimeout},
		apiURL:         cfg.ProviderAPIURL,
		tokens:         tokens,
		signer:         signer,
		notifyComplete: cfg.NotifyURLComplete,
		notifyEvent:    cfg.NotifyURLEvent,
	}
}

// SendVerification posts the payload to the provider and returns the raw JSON
// response body. A 2xx response carrying an HTML document is treated as a
// provider misconfiguration and returned as an error regardless of status.
func (c *Client) SendVerification(ctx context.Context, p Payload) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	if err := c.attachNotifyURLs(&p); err != nil {
		return "", fmt.Errorf("sign webhook tokens: %w", err)
	}

	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal verification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read verification response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", mapHTTPError(resp.StatusCode, string(raw))
	}

	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return "{}", nil
	}
	if isHTML(text) {
		return "", errors.New(msgHTMLInsteadOfJSON)
	}
	return text, nil
}

// attachNotifyURLs adds the configured webhook callback URLs, each carrying a
// freshly signed token as a query parameter.
func (c *Client) attachNotifyURLs(p *Payload) error {
	if c.signer == nil {
		return nil
	}
	if c.notifyComplete != "" {
		token, err := c.signer.Sign(jwtinfra.SubjectWebhookComplete, webhookTokenTTL)
		if err != nil {
			return err
		}
		p.NotifyURLComplete = withToken(c.notifyComplete, token)
	}
	if c.notifyEvent != "" {
		token, err := c.signer.Sign(jwtinfra.SubjectWebhookEvent, webhookTokenTTL)
		if err != nil {
			return err
		}
		p.NotifyURLEvent = withToken(c.notifyEvent, token)
	}
	return nil
}

func withToken(rawURL, token string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + "token=" + token
}

// mapHTTPError converts an upstream error response into a caller-safe message.
// HTML bodies are never echoed back verbatim.
func mapHTTPError(status int, body string) error {
	switch {
	case status == http.StatusUnprocessableEntity:
		return fmt.Errorf("verification API rejected the request (HTTP 422): %s", truncate(body))
	case status == http.StatusForbidden && isCDNBlock(body):
		return errors.New(msgCDNBlocked)
	case isHTML(body):
		return errors.New(msgHTMLErrorBody)
	default:
		return fmt.Errorf("verification API error (HTTP %d): %s", status, body)
	}
}

func truncate(body string) string {
	if len(body) <= maxErrorBodyLength {
		return body
	}
	// Back off to a rune boundary so the cut never leaves invalid UTF-8.
	cut := maxErrorBodyLength
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + truncationMarker
}

// isHTML reports whether the trimmed body begins with an HTML document marker.
func isHTML(body string) bool {
	t := strings.ToLower(strings.TrimSpace(body))
	return strings.HasPrefix(t, "<!doctype") || strings.HasPrefix(t, "<html")
}

// isCDNBlock recognizes CDN challenge/block pages served with a 403.
func isCDNBlock(body string) bool {
	t := strings.ToLower(body)
	return strings.Contains(t, "cloudflare") || strings.Contains(t, "attention required")
}
