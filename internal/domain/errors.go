package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrProviderAuth marks a failed client-credentials token fetch. The token
	// cache is left empty when this is returned; the next call retries from scratch.
	ErrProviderAuth = errors.New("provider authentication failed")
)
