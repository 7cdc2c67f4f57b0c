package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtinfra "github.com/idverse-gateway/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	p, err := jwtinfra.NewProvider("test-secret")
	require.NoError(t, err)
	return p
}

func TestBearer_ValidHeaderToken(t *testing.T) {
	p := newProvider(t)
	token, err := p.Sign(jwtinfra.SubjectWebhookEvent, time.Hour)
	require.NoError(t, err)

	mw := Bearer(p, jwtinfra.SubjectWebhookComplete, jwtinfra.SubjectWebhookEvent)
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearer_QueryToken(t *testing.T) {
	p := newProvider(t)
	token, err := p.Sign(jwtinfra.SubjectWebhookComplete, time.Hour)
	require.NoError(t, err)

	mw := Bearer(p, jwtinfra.SubjectWebhookComplete)
	req := httptest.NewRequest(http.MethodPost, "/api/webhook?token="+token, nil)
	rec := httptest.NewRecorder()

	mw(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearer_MissingToken(t *testing.T) {
	mw := Bearer(newProvider(t), jwtinfra.SubjectWebhookEvent)
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", nil)
	rec := httptest.NewRecorder()

	mw(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestBearer_MalformedToken(t *testing.T) {
	mw := Bearer(newProvider(t), jwtinfra.SubjectWebhookEvent)
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()

	mw(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearer_ExpiredToken(t *testing.T) {
	p := newProvider(t)
	token, err := p.Sign(jwtinfra.SubjectWebhookEvent, -time.Minute)
	require.NoError(t, err)

	mw := Bearer(p, jwtinfra.SubjectWebhookEvent)
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearer_WrongSubject(t *testing.T) {
	p := newProvider(t)
	token, err := p.Sign(jwtinfra.SubjectSession, time.Hour)
	require.NoError(t, err)

	mw := Bearer(p, jwtinfra.SubjectWebhookComplete, jwtinfra.SubjectWebhookEvent)
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
