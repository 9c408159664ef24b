package admin

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/emperorhan/incentives-indexer/internal/metrics"
)

const (
	// staleLimiterTTL is how long a client limiter may sit idle before the
	// sweeper drops it.
	staleLimiterTTL = 10 * time.Minute
	cleanupInterval = time.Minute

	defaultRPS   = 20
	defaultBurst = 40
)

// routeClass groups routes that share one budget per client.
type routeClass string

const (
	classStatus  routeClass = "status"
	classLookup  routeClass = "lookup"
	classDefault routeClass = "default"
)

type classRule struct {
	class    routeClass
	prefixes []string
	limit    rate.Limit
	burst    int
}

type clientKey struct {
	class routeClass
	ip    string
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware limits each client IP per route class. Lookups share
// the configured budget; /v1/status scans every stream so it gets a fixed
// tighter one, as does anything unrouted.
type RateLimitMiddleware struct {
	rules    []classRule
	fallback classRule
	logger   *slog.Logger
	nowFunc  func() time.Time

	mu      sync.Mutex
	clients map[clientKey]*clientLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimitMiddleware starts a sweeper for idle client limiters; call Stop
// to release it. Non-positive rps or burst fall back to the defaults.
func NewRateLimitMiddleware(logger *slog.Logger, rps float64, burst int) *RateLimitMiddleware {
	if rps <= 0 {
		rps = defaultRPS
	}
	if burst < 1 {
		burst = defaultBurst
	}
	rl := &RateLimitMiddleware{
		rules: []classRule{
			{class: classStatus, prefixes: []string{"/v1/status"}, limit: 1, burst: 5},
			{class: classLookup, prefixes: []string{"/v1/reserves/", "/v1/users/"}, limit: rate.Limit(rps), burst: burst},
		},
		fallback: classRule{class: classDefault, limit: 1, burst: 5},
		logger:   logger.With("component", "admin_ratelimit"),
		nowFunc:  time.Now,
		clients:  make(map[clientKey]*clientLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Stop is idempotent.
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimitMiddleware) sweep() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.evictStale()
		}
	}
}

func (rl *RateLimitMiddleware) evictStale() {
	cutoff := rl.nowFunc().Add(-staleLimiterTTL)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// LimiterCount returns the number of tracked client limiters.
func (rl *RateLimitMiddleware) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimitMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule := rl.ruleFor(r.Method, r.URL.Path)
		key := clientKey{class: rule.class, ip: clientIP(r)}

		if !rl.limiterFor(key, rule).Allow() {
			metrics.AdminRateLimited.WithLabelValues(string(rule.class)).Inc()
			rl.logger.Warn("query API rate limit exceeded",
				"class", rule.class,
				"path", r.URL.Path,
				"client_ip", key.ip,
			)
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ruleFor classifies a request. Only GETs reach a named class.
func (rl *RateLimitMiddleware) ruleFor(method, path string) classRule {
	if method != http.MethodGet {
		return rl.fallback
	}
	for _, rule := range rl.rules {
		for _, prefix := range rule.prefixes {
			if strings.HasPrefix(path, prefix) {
				return rule
			}
		}
	}
	return rl.fallback
}

func (rl *RateLimitMiddleware) limiterFor(key clientKey, rule classRule) *rate.Limiter {
	now := rl.nowFunc()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rule.limit, rule.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
