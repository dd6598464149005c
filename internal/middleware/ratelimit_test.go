package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/workshophq/workshop-backend/internal/middleware"
)

func newLimitedHandler(t *testing.T, conf middleware.LimiterConfig, key middleware.KeySelector) http.Handler {
	t.Helper()
	rl := middleware.NewRateLimiter(conf)
	t.Cleanup(rl.Stop)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return rl.Middleware(key)(ok)
}

func TestRateLimiterBurstThenReject(t *testing.T) {
	h := newLimitedHandler(t, middleware.LimiterConfig{
		RPS: 0.001, Burst: 2, IdleTTL: time.Minute,
	}, middleware.KeyByIP)

	req := httptest.NewRequest(http.MethodGet, "/workshops", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "too many requests")
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	h := newLimitedHandler(t, middleware.LimiterConfig{
		RPS: 0.001, Burst: 1, IdleTTL: time.Minute,
	}, middleware.KeyByIP)

	first := httptest.NewRequest(http.MethodGet, "/workshops", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	second := httptest.NewRequest(http.MethodGet, "/workshops", nil)
	second.RemoteAddr = "10.0.0.2:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)

	// First client is out of tokens, second still has its own bucket.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestKeyByIPStripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:55123"
	assert.Equal(t, "192.168.1.9", middleware.KeyByIP(req))

	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", middleware.KeyByIP(req))
}
