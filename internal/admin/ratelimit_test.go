package admin

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emperorhan/incentives-indexer/internal/metrics"
)

func newTestRateLimiter(t *testing.T, rps float64, burst int) *RateLimitMiddleware {
	t.Helper()
	rl := NewRateLimitMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)), rps, burst)
	t.Cleanup(rl.Stop)
	return rl
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func get(h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitMiddleware_AllowsWithinBurst(t *testing.T) {
	rl := newTestRateLimiter(t, 20, 40)
	handler := rl.Wrap(okHandler())

	for i := 0; i < 40; i++ {
		rec := get(handler, "/v1/users/0x00000000000000000000000000000000000000f1", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimitMiddleware_RejectsOverBudget(t *testing.T) {
	rl := newTestRateLimiter(t, 0.001, 2)
	handler := rl.Wrap(okHandler())
	before := testutil.ToFloat64(metrics.AdminRateLimited.WithLabelValues("lookup"))

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, get(handler, "/v1/reserves/x", nil).Code)
	}

	rec := get(handler, "/v1/reserves/x", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate limit exceeded", body["error"])
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AdminRateLimited.WithLabelValues("lookup")))
}

func TestRateLimitMiddleware_LookupsShareOneBudget(t *testing.T) {
	rl := newTestRateLimiter(t, 0.001, 1)
	handler := rl.Wrap(okHandler())

	require.Equal(t, http.StatusOK, get(handler, "/v1/reserves/x", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(handler, "/v1/users/x", nil).Code)
	assert.Equal(t, http.StatusOK, get(handler, "/v1/status", nil).Code, "status has its own budget")
}

func TestRateLimitMiddleware_PerClientIP(t *testing.T) {
	rl := newTestRateLimiter(t, 0.001, 1)
	handler := rl.Wrap(okHandler())

	require.Equal(t, http.StatusOK, get(handler, "/v1/users/x", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}).Code)
	assert.Equal(t, http.StatusOK, get(handler, "/v1/users/x", map[string]string{"X-Real-IP": "10.0.0.9"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(handler, "/v1/users/x", map[string]string{"X-Forwarded-For": "10.0.0.1"}).Code)
}

func TestRateLimitMiddleware_Classification(t *testing.T) {
	rl := newTestRateLimiter(t, 0, 0)

	tests := []struct {
		method string
		path   string
		want   routeClass
	}{
		{http.MethodGet, "/v1/status", classStatus},
		{http.MethodGet, "/v1/reserves/abc", classLookup},
		{http.MethodGet, "/v1/users/0xf1/reserves/abc", classLookup},
		{http.MethodPost, "/v1/users/0xf1", classDefault},
		{http.MethodGet, "/metrics", classDefault},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, rl.ruleFor(tt.method, tt.path).class)
		})
	}

	lookup := rl.ruleFor(http.MethodGet, "/v1/users/x")
	assert.Equal(t, defaultBurst, lookup.burst, "invalid limits fall back to defaults")
}

func TestRateLimitMiddleware_EvictsStaleLimiters(t *testing.T) {
	rl := newTestRateLimiter(t, 20, 40)
	now := time.Now()
	rl.nowFunc = func() time.Time { return now }

	handler := rl.Wrap(okHandler())
	get(handler, "/v1/status", nil)
	get(handler, "/v1/users/x", nil)
	require.Equal(t, 2, rl.LimiterCount())

	rl.nowFunc = func() time.Time { return now.Add(staleLimiterTTL + time.Second) }
	rl.evictStale()
	assert.Zero(t, rl.LimiterCount())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	assert.Equal(t, "192.0.2.7", clientIP(req))

	req.RemoteAddr = "192.0.2.7"
	assert.Equal(t, "192.0.2.7", clientIP(req))

	req.Header.Set("X-Real-IP", " 198.51.100.1 ")
	assert.Equal(t, "198.51.100.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5,198.51.100.1")
	assert.Equal(t, "203.0.113.5", clientIP(req))
}
