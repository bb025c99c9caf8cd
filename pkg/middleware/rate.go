// Package middleware provides the HTTP middleware of the vendo API.
package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/vendo/pkg/response"
)

// bucket counts requests from one client in a fixed window.
type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

func (b *bucket) allow(max int, window time.Duration, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(window)
	}

	b.count++
	return b.count <= max
}

func (b *bucket) expired(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.After(b.resetAt)
}

// RateLimiter limits each client IP to max requests per window. It is
// separate from the dispense cooldown: this protects the API, the
// cooldown models the machine.
type RateLimiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter starts a limiter and its eviction loop. Call Stop when done.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		max:     max,
		window:  window,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	go rl.evictLoop()
	return rl
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if b.expired(now) {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) bucket(ip string) *bucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if b, ok := rl.buckets[ip]; ok {
		return b
	}

	b := &bucket{resetAt: time.Now().Add(rl.window)}
	rl.buckets[ip] = b
	return b
}

// Stop ends the eviction loop. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.bucket(clientIP(r)).allow(rl.max, rl.window, time.Now()) {
			response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
