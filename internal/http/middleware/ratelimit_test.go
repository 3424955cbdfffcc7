package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	t.Run("Should allow up to max requests per window", func(t *testing.T) {
		l := newRateLimiter(2, time.Minute)
		now := time.Now()

		assert.True(t, l.allow("10.0.0.1", now))
		assert.True(t, l.allow("10.0.0.1", now))
		assert.False(t, l.allow("10.0.0.1", now))
	})

	t.Run("Should reset the count after the window", func(t *testing.T) {
		l := newRateLimiter(1, time.Minute)
		now := time.Now()

		assert.True(t, l.allow("10.0.0.1", now))
		assert.False(t, l.allow("10.0.0.1", now))
		assert.True(t, l.allow("10.0.0.1", now.Add(2*time.Minute)))
	})

	t.Run("Should track clients independently", func(t *testing.T) {
		l := newRateLimiter(1, time.Minute)
		now := time.Now()

		assert.True(t, l.allow("10.0.0.1", now))
		assert.True(t, l.allow("10.0.0.2", now))
		assert.False(t, l.allow("10.0.0.1", now))
	})

	t.Run("Should evict expired buckets for one-off clients", func(t *testing.T) {
		l := newRateLimiter(100, time.Minute)
		now := time.Now()

		for i := 0; i < 10_000; i++ {
			l.allow(fmt.Sprintf("10.%d.%d.%d", i>>16, (i>>8)&0xff, i&0xff), now)
		}
		assert.Len(t, l.buckets, 10_000)

		// The first call after every window has expired sweeps them all.
		l.allow("10.0.0.1", now.Add(2*time.Minute))
		assert.Len(t, l.buckets, 1)
	})
}

func TestClientIP(t *testing.T) {
	newRequest := func(remoteAddr, forwardedFor string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = remoteAddr
		if forwardedFor != "" {
			r.Header.Set("X-Forwarded-For", forwardedFor)
		}
		return r
	}

	t.Run("Should ignore forwarded header without a trusted proxy", func(t *testing.T) {
		r := newRequest("192.0.2.1:4000", "198.51.100.7")
		assert.Equal(t, "192.0.2.1", clientIP(r, false))
	})

	t.Run("Should use the first forwarded hop behind a trusted proxy", func(t *testing.T) {
		r := newRequest("10.0.0.1:4000", "198.51.100.7, 203.0.113.9")
		assert.Equal(t, "198.51.100.7", clientIP(r, true))
	})

	t.Run("Should fall back to remote address behind a trusted proxy", func(t *testing.T) {
		r := newRequest("192.0.2.1:4000", "")
		assert.Equal(t, "192.0.2.1", clientIP(r, true))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Should return 429 beyond the limit", func(t *testing.T) {
		handler := RateLimit(2, time.Minute, false)(next)

		for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.1:4000"
			resp := httptest.NewRecorder()

			handler.ServeHTTP(resp, req)
			assert.Equal(t, want, resp.Code, "request %d", i+1)
		}
	})

	t.Run("Should not be bypassable by rotating the forwarded header", func(t *testing.T) {
		handler := RateLimit(1, time.Minute, false)(next)

		codes := make([]int, 0, 2)
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.1:4000"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
			resp := httptest.NewRecorder()

			handler.ServeHTTP(resp, req)
			codes = append(codes, resp.Code)
		}

		assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("Should pass everything through when disabled", func(t *testing.T) {
		handler := RateLimit(0, time.Minute, false)(next)

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			resp := httptest.NewRecorder()

			handler.ServeHTTP(resp, req)
			assert.Equal(t, http.StatusOK, resp.Code)
		}
	})
}
