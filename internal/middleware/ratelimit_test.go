package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan-vats/tubescribe-backend/internal/metrics"
)

func TestSlidingWindowMinuteCap(t *testing.T) {
	l := NewSlidingWindowLimiter(3, 100)

	for i := 0; i < 3; i++ {
		ok, _, _ := l.Allow("1.2.3.4")
		require.True(t, ok, "request %d should be admitted", i)
	}
	ok, remaining, retryAfter := l.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Zero(t, remaining)
	assert.Greater(t, retryAfter, time.Duration(0))

	// Another IP has an independent window.
	ok, _, _ = l.Allow("5.6.7.8")
	assert.True(t, ok)
}

func TestSlidingWindowEviction(t *testing.T) {
	l := NewSlidingWindowLimiter(2, 100)
	current := time.Unix(1700000000, 0)
	l.now = func() time.Time { return current }

	ok, _, _ := l.Allow("ip")
	require.True(t, ok)
	ok, _, _ = l.Allow("ip")
	require.True(t, ok)
	ok, _, _ = l.Allow("ip")
	require.False(t, ok)

	// Advance past the minute window; the old stamps are evicted.
	current = current.Add(61 * time.Second)
	ok, remaining, _ := l.Allow("ip")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
}

func TestSlidingWindowHourCap(t *testing.T) {
	l := NewSlidingWindowLimiter(100, 5)
	current := time.Unix(1700000000, 0)
	l.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		// Spread out so the minute window never fills.
		current = current.Add(2 * time.Minute)
		ok, _, _ := l.Allow("ip")
		require.True(t, ok)
	}
	current = current.Add(2 * time.Minute)
	ok, _, retryAfter := l.Allow("ip")
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestRateLimitMiddleware(t *testing.T) {
	metrics.Init()
	l := NewSlidingWindowLimiter(1, 10)
	handler := RateLimit(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.RemoteAddr = "9.9.9.9:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
}

func TestRateLimitExemptPaths(t *testing.T) {
	metrics.Init()
	l := NewSlidingWindowLimiter(1, 1)
	handler := RateLimit(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "7.7.7.7:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
