package idverse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/idverse-gateway/internal/config"
	"github.com/idverse-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(oauthURL string) *TokenCache {
	return NewTokenCache(&config.Config{
		ProviderOAuthURL:     oauthURL,
		ProviderClientID:     "client-id",
		ProviderClientSecret: "client-secret-value",
	})
}

func TestToken_FetchAndCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"Bearer","expires_in":900,"access_token":"tok-1"}`))
	}))
	defer srv.Close()

	cache := newTestCache(srv.URL)

	tok, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	// Second call is a cache hit.
	tok, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestToken_SingleRefreshUnderConcurrency(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(`{"access_token":"tok-shared","expires_in":900}`))
	}))
	defer srv.Close()

	cache := newTestCache(srv.URL)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := cache.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok-shared", tok)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "concurrent callers must share one refresh")
}

func TestToken_RefreshInsideRenewalMargin(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":900}`))
	}))
	defer srv.Close()

	cache := newTestCache(srv.URL)
	base := time.Now()
	cache.now = func() time.Time { return base }

	_, err := cache.Token(context.Background())
	require.NoError(t, err)

	// 850s in: 50s of validity left, inside the 60s margin.
	cache.now = func() time.Time { return base.Add(850 * time.Second) }
	_, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestToken_DefaultExpiry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok"}`))
	}))
	defer srv.Close()

	cache := newTestCache(srv.URL)
	base := time.Now()
	cache.now = func() time.Time { return base }

	_, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, base.Add(900*time.Second), cache.expiresAt)
}

func TestToken_ErrorBodyLeavesCacheEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"bad credentials"}`))
	}))
	defer srv.Close()

	cache := newTestCache(srv.URL)

	_, err := cache.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderAuth)
	assert.Empty(t, cache.token)
}

func TestToken_OAuthErrorInOKResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"invalid_scope","hint":"check scopes"}`))
	}))
	defer srv.Close()

	cache := newTestCache(srv.URL)

	_, err := cache.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderAuth)
	assert.Contains(t, err.Error(), "invalid_scope")
}

func TestClear(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":900}`))
	}))
	defer srv.Close()

	cache := newTestCache(srv.URL)
	_, err := cache.Token(context.Background())
	require.NoError(t, err)

	cache.Clear()
	assert.Empty(t, cache.token)
	assert.True(t, cache.expiresAt.IsZero())
}

func TestTestConnection_FoldsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	cache := newTestCache(srv.URL)
	resp, err := cache.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http_error", resp.Error)
	assert.Contains(t, resp.Message, "502")
}

func TestTestConnectionVerbose_MasksSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"token_type":"Bearer","expires_in":900,"access_token":"tok-abcdefghijklmnopqrstuvwxyz"}`))
	}))
	defer srv.Close()

	cache := newTestCache(srv.URL)
	result := cache.TestConnectionVerbose(context.Background(), true)

	assert.Equal(t, "SUCCESS", result["status"])
	req := result["request"].(map[string]interface{})
	params := req["parameters"].(map[string]string)
	assert.NotContains(t, params["client_secret"], "client-secret-value")
	assert.Contains(t, params["client_secret"], "****")
}
