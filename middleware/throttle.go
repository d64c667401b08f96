package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// Throttle is a per-client-IP token bucket, used to slow down credential
// guessing on the auth endpoints.
type Throttle struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	burst   float64
	refill  float64 // tokens per second
}

// NewThrottle allows bursts of maxRequests, refilling over window.
func NewThrottle(maxRequests int, window time.Duration) *Throttle {
	t := &Throttle{
		buckets: make(map[string]*bucket),
		burst:   float64(maxRequests),
		refill:  float64(maxRequests) / window.Seconds(),
	}
	go t.evictStale()
	return t
}

func (t *Throttle) evictStale() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		t.mu.Lock()
		now := time.Now()
		for ip, b := range t.buckets {
			if now.Sub(b.lastSeen) > 10*time.Minute {
				delete(t.buckets, ip)
			}
		}
		t.mu.Unlock()
	}
}

func (t *Throttle) allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	b, ok := t.buckets[ip]
	if !ok {
		t.buckets[ip] = &bucket{tokens: t.burst - 1, lastSeen: now}
		return true
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * t.refill
	if b.tokens > t.burst {
		b.tokens = t.burst
	}
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (t *Throttle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !t.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later."})
			c.Abort()
			return
		}
		c.Next()
	}
}
