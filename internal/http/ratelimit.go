package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a fixed-window counter keyed by caller identity. State
// lives in process memory; restarting the server resets all windows.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string]*windowCount
}

type windowCount struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		hits:   map[string]*windowCount{},
	}
}

func (l *RateLimiter) Allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.hits[key]
	if !ok || now.After(entry.resetAt) {
		l.hits[key] = &windowCount{count: 1, resetAt: now.Add(l.window)}
		l.pruneLocked(now)
		return true
	}
	entry.count++
	return entry.count <= l.limit
}

// pruneLocked drops expired windows so the map cannot grow without
// bound. Called with the mutex held.
func (l *RateLimiter) pruneLocked(now time.Time) {
	if len(l.hits) < 10000 {
		return
	}
	for key, entry := range l.hits {
		if now.After(entry.resetAt) {
			delete(l.hits, key)
		}
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LimitByIP rejects requests over the per-IP budget with 429.
func LimitByIP(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				WriteError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LimitByUser budgets authenticated traffic per account. It must run
// after WithAuth; requests without a user fall back to the IP key.
func LimitByUser(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := CurrentUserID(r)
			if key == "" {
				key = clientIP(r)
			}
			if !limiter.Allow(key) {
				WriteError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
