package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func doFrom(h http.Handler, remote string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(RateLimitConfig{PerMinute: 1, Burst: 2}, newTestLogger())
	defer rl.Close()
	h := rl.Handler(okHandler)

	assert.Equal(t, http.StatusOK, doFrom(h, "10.0.0.1:1234", nil).Code)
	assert.Equal(t, http.StatusOK, doFrom(h, "10.0.0.1:1234", nil).Code)

	rec := doFrom(h, "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Other clients have their own bucket.
	assert.Equal(t, http.StatusOK, doFrom(h, "10.0.0.2:1234", nil).Code)
}

func TestRateLimiter_ProxyHeaders(t *testing.T) {
	defer goleak.VerifyNone(t)

	trusting := NewRateLimiter(RateLimitConfig{PerMinute: 1, Burst: 1, TrustProxy: true}, newTestLogger())
	defer trusting.Close()
	h := trusting.Handler(okHandler)

	xff := map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}
	assert.Equal(t, http.StatusOK, doFrom(h, "10.0.0.1:1", xff).Code)
	assert.Equal(t, http.StatusTooManyRequests, doFrom(h, "10.0.0.9:1", xff).Code)

	direct := NewRateLimiter(RateLimitConfig{PerMinute: 1, Burst: 1}, newTestLogger())
	defer direct.Close()
	h = direct.Handler(okHandler)

	assert.Equal(t, http.StatusOK, doFrom(h, "10.0.0.1:1", xff).Code)
	assert.Equal(t, http.StatusOK, doFrom(h, "10.0.0.9:1", xff).Code)
}

func TestRateLimiter_EvictsIdleVisitors(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(RateLimitConfig{PerMinute: 60, IdleTTL: time.Hour}, newTestLogger())
	defer rl.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.mu.Lock()
	rl.now = func() time.Time { return now }
	rl.mu.Unlock()

	rl.limiter("10.0.0.1")
	rl.limiter("10.0.0.2")
	require.Equal(t, 2, rl.size())

	now = now.Add(30 * time.Minute)
	rl.limiter("10.0.0.2")

	now = now.Add(45 * time.Minute)
	rl.evictIdle()
	assert.Equal(t, 1, rl.size())
}

func TestRateLimiter_CloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(RateLimitConfig{PerMinute: 10}, newTestLogger())
	rl.Close()
	rl.Close()
}
