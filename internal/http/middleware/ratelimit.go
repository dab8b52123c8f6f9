// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a lightweight, in-memory, fixed-window rate limiter
// with per-client buckets and opportunistic garbage collection. Each client
// may make at most Max requests per Window; the counter resets when the
// window that began with the client's first request elapses.
//
// Features:
//   - Per-key buckets backed by golang.org/x/time/rate (zero refill, burst=Max)
//   - Pluggable identity function (client IP by default)
//   - Best-effort cleanup of idle buckets to bound memory
//   - Plain-text 429 with a Retry-After hint
//
// Notes:
//   - This limiter is process-local. For horizontally scaled deployments,
//     prefer a distributed limiter (e.g., Redis-backed) to enforce global limits.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMessage is the plain-text body sent with 429 responses.
const RateLimitMessage = "Too many requests, please try again later."

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByIP returns a keyFunc keyed on gin's resolved client address.
func KeyByIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

// visitor holds the limiter for the current window and the last time the key
// was seen. Used to opportunistically evict idle buckets.
type visitor struct {
	limiter     *rate.Limiter
	windowStart time.Time
	lastSeen    time.Time
}

// RateLimiter implements a per-key fixed-window limiter.
//
// This type is safe for concurrent use.
type RateLimiter struct {
	window   time.Duration
	max      int
	keyFn    keyFunc
	now      func() time.Time
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter constructs a RateLimiter allowing max requests per window,
// keyed by keyFn. max <= 0 is coerced to 1 and window <= 0 to one minute.
func NewRateLimiter(window time.Duration, max int, keyFn keyFunc) *RateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	ttl := 10 * time.Minute
	if window > ttl {
		ttl = window
	}
	return &RateLimiter{
		window:   window,
		max:      max,
		keyFn:    keyFn,
		now:      time.Now,
		visitors: make(map[string]*visitor),
		ttl:      ttl, // evict idle entries after TTL
	}
}

// getVisitor returns the limiter for key's current window, starting a new
// window when the previous one has elapsed. It also performs opportunistic GC
// of idle entries after ~5000 lookups.
//
// The second return value is when the current window ends.
func (rl *RateLimiter) getVisitor(key string) (*rate.Limiter, time.Time) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Run GC before touching the requested visitor so an idle bucket can be
	// evicted even when it is the one being fetched.
	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, vv := range rl.visitors {
			if now.Sub(vv.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	v, ok := rl.visitors[key]
	if !ok || now.Sub(v.windowStart) >= rl.window {
		// Zero refill: exactly max events until the window is replaced.
		v = &visitor{limiter: rate.NewLimiter(0, rl.max), windowStart: now}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter, v.windowStart.Add(rl.window)
}

// Handler returns a Gin middleware that enforces the per-key limit.
//
// Rejected requests receive:
//
//	HTTP/1.1 429 Too Many Requests
//	Content-Type: text/plain; charset=utf-8
//	Retry-After: <seconds until the window resets>
//
//	Too many requests, please try again later.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		lim, resetAt := rl.getVisitor(rl.keyFn(c))
		if lim.Allow() {
			c.Next()
			return
		}

		wait := resetAt.Sub(rl.now()).Seconds()
		retry := int(math.Ceil(wait))
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		httpThrottled.WithLabelValues(routeLabel(c)).Inc()
		c.String(http.StatusTooManyRequests, RateLimitMessage)
		c.Abort()
	}
}
