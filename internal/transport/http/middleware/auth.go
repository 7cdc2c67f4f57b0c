package middleware

import (
	"net/http"
	"strings"
)

// TokenVerifier checks a bearer token's signature and expiry.
type TokenVerifier interface {
	VerifySubject(token string) (string, error)
}

// Bearer returns middleware that requires a valid signed bearer token whose
// subject is one of the allowed values. Used for provider webhooks (tokens
// this service signed into the notify URLs) and for session-protected routes.
func Bearer(verifier TokenVerifier, subjects ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		allowed[s] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			subject, err := verifier.VerifySubject(token)
			if err != nil || !allowed[subject] {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken also accepts the token as a query parameter, since webhook
// notify URLs carry it that way.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
