package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/steady/internal/metrics"
)

// RealIP extracts the client address, preferring X-Real-IP, then the first
// hop of X-Forwarded-For, and falling back to RemoteAddr.
func RealIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	return RemoteIP(r)
}

// RemoteIP is the host part of the connection's peer address. Unlike
// RealIP it cannot be set by the client.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Bucket is a named request budget. Each bucket counts separately, so a
// client locked out of login can still sign up.
type Bucket struct {
	Name   string
	Limit  int
	Window time.Duration
}

var (
	LoginBucket  = Bucket{Name: "login", Limit: 10, Window: time.Minute}
	SignupBucket = Bucket{Name: "signup", Limit: 10, Window: time.Minute}
)

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter counts requests per bucket and client in fixed windows.
type RateLimiter struct {
	mu         sync.Mutex
	windows    map[string]*window
	now        func() time.Time
	trustProxy bool
}

// NewRateLimiter creates a limiter keyed on the peer address. With
// trustProxy set, clients are identified by RealIP instead; only enable it
// behind a proxy that overwrites the forwarding headers.
func NewRateLimiter(trustProxy bool) *RateLimiter {
	return &RateLimiter{
		windows:    make(map[string]*window),
		now:        time.Now,
		trustProxy: trustProxy,
	}
}

// ClientKey identifies the client r is counted against.
func (rl *RateLimiter) ClientKey(r *http.Request) string {
	if rl.trustProxy {
		return RealIP(r)
	}
	return RemoteIP(r)
}

// Allow records one request for key in b. When the budget is spent it
// returns false and the time left until the window resets.
func (rl *RateLimiter) Allow(b Bucket, key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	k := b.Name + "|" + key
	w, ok := rl.windows[k]
	if !ok || !now.Before(w.resetAt) {
		rl.windows[k] = &window{count: 1, resetAt: now.Add(b.Window)}
		return true, 0
	}
	w.count++
	if w.count > b.Limit {
		return false, w.resetAt.Sub(now)
	}
	return true, 0
}

// Cleanup drops windows that have already reset.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for k, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, k)
		}
	}
}

// RateLimit limits requests per client within bucket b.
func RateLimit(limiter *RateLimiter, b Bucket) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry := limiter.Allow(b, limiter.ClientKey(r))
			if !ok {
				metrics.RateLimited(b.Name)
				secs := int(retry.Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
