package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/idverse-gateway/internal/application/auth"
	jwtinfra "github.com/idverse-gateway/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Issue() (*auth.Issued, error) {
	args := m.Called()
	if i, _ := args.Get(0).(*auth.Issued); i != nil {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) Redeem(exchangeKey string) (string, error) {
	args := m.Called(exchangeKey)
	return args.String(0), args.Error(1)
}
func (m *mockAuthSvc) ValidateSession(token string) error {
	return m.Called(token).Error(0)
}

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	signer, err := jwtinfra.NewProvider("test-secret")
	require.NoError(t, err)
	svc := auth.NewService(signer, 24*time.Hour, time.Hour)
	return NewAuthHandler(svc, "shared-auth-key")
}

func TestGetAuth_WrongKey(t *testing.T) {
	h := newAuthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/getAuth?auth_key=wrong", nil)
	rec := httptest.NewRecorder()
	h.GetAuth(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetAuth_MissingKey(t *testing.T) {
	h := newAuthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/getAuth", nil)
	rec := httptest.NewRecorder()
	h.GetAuth(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetAuthThenRedeem(t *testing.T) {
	h := newAuthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/getAuth?auth_key=shared-auth-key", nil)
	rec := httptest.NewRecorder()
	h.GetAuth(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/?jwt_key="), "redirect location %q", loc)

	u, err := url.Parse(loc)
	require.NoError(t, err)
	key := u.Query().Get("jwt_key")
	require.Len(t, key, 5)

	// First redemption hands out the session token.
	req = httptest.NewRequest(http.MethodGet, "/api/auth/session?jwt_key="+url.QueryEscape(key), nil)
	rec = httptest.NewRecorder()
	h.Session(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])

	// Second redemption of the same key fails.
	req = httptest.NewRequest(http.MethodGet, "/api/auth/session?jwt_key="+url.QueryEscape(key), nil)
	rec = httptest.NewRecorder()
	h.Session(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAuth_SymbolKeySurvivesRedirect(t *testing.T) {
	// Keys are drawn from an alphabet including !@#$%&*; the redirect must
	// escape them or # truncates into a fragment and & splits the query.
	svc := &mockAuthSvc{}
	svc.On("Issue").Return(&auth.Issued{ExchangeKey: "a#%&b", SessionToken: "tok"}, nil)

	h := NewAuthHandler(svc, "shared-auth-key")
	req := httptest.NewRequest(http.MethodGet, "/api/getAuth?auth_key=shared-auth-key", nil)
	rec := httptest.NewRecorder()
	h.GetAuth(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "a#%&b", u.Query().Get("jwt_key"))
	assert.Empty(t, u.Fragment)
}

func TestSession_MissingKey(t *testing.T) {
	h := newAuthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	rec := httptest.NewRecorder()
	h.Session(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
