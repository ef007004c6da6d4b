package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gatherspace/server/internal/config"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, path, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitThrottlesPerClient(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{PublicPerMinute: 3})(okHandler())

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, doRequest(handler, "/events", "10.0.0.1:1234"))
	}
	require.Equal(t, http.StatusTooManyRequests, doRequest(handler, "/events", "10.0.0.1:1234"))

	// A different client has its own bucket.
	require.Equal(t, http.StatusOK, doRequest(handler, "/events", "10.0.0.2:1234"))
}

func TestRateLimitSetsRetryAfter(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{PublicPerMinute: 1})(okHandler())

	require.Equal(t, http.StatusOK, doRequest(handler, "/events", "10.0.0.1:1234"))

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimitExemptsHealth(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{PublicPerMinute: 1})(okHandler())

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, doRequest(handler, "/health", "10.0.0.1:1234"))
	}
}

func TestRateLimitTierBuckets(t *testing.T) {
	cfg := config.RateLimitConfig{PublicPerMinute: 1, LoginPerMinute: 2}
	rl := RateLimit(cfg)

	public := rl(okHandler())
	login := WithRateLimitTier(TierLogin)(rl(okHandler()))

	require.Equal(t, http.StatusOK, doRequest(public, "/events", "10.0.0.1:1234"))
	require.Equal(t, http.StatusTooManyRequests, doRequest(public, "/events", "10.0.0.1:1234"))

	// Login tier counts separately from public.
	require.Equal(t, http.StatusOK, doRequest(login, "/auth/login", "10.0.0.1:1234"))
	require.Equal(t, http.StatusOK, doRequest(login, "/auth/login", "10.0.0.1:1234"))
	require.Equal(t, http.StatusTooManyRequests, doRequest(login, "/auth/login", "10.0.0.1:1234"))
}

func TestRateLimitDisabledTier(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{})(okHandler())

	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusOK, doRequest(handler, "/events", "10.0.0.1:1234"))
	}
}
