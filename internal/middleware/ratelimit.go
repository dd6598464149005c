package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/workshophq/workshop-backend/internal/model"
)

// LimiterConfig tunes the token-bucket limiter.
type LimiterConfig struct {
	RPS     float64       // steady refill rate per key
	Burst   int           // bucket capacity
	IdleTTL time.Duration // drop a key's bucket after this much inactivity
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key, in memory.
type RateLimiter struct {
	conf    LimiterConfig
	mu      sync.Mutex
	buckets map[string]*keyLimiter
	done    chan struct{}
}

// NewRateLimiter constructs a RateLimiter and starts the background
// sweep that evicts idle buckets.
func NewRateLimiter(conf LimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		conf:    conf,
		buckets: make(map[string]*keyLimiter),
		done:    make(chan struct{}),
	}

	go func() {
		interval := conf.IdleTTL / 2
		if interval <= 0 {
			interval = time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-rl.done:
				return
			case <-ticker.C:
				now := time.Now()
				rl.mu.Lock()
				for k, v := range rl.buckets {
					if now.Sub(v.lastSeen) > rl.conf.IdleTTL {
						delete(rl.buckets, k)
					}
				}
				rl.mu.Unlock()
			}
		}
	}()

	return rl
}

// Stop ends the background sweep.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}

	lim := rate.NewLimiter(rate.Limit(rl.conf.RPS), rl.conf.Burst)
	rl.buckets[key] = &keyLimiter{limiter: lim, lastSeen: now}
	return lim
}

// KeySelector decides what to limit on, e.g. client IP.
type KeySelector func(r *http.Request) string

// KeyByIP keys buckets on the client address without the port.
func KeyByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects requests whose bucket has no tokens left with
// 429 and a Retry-After hint.
func (rl *RateLimiter) Middleware(selectKey KeySelector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lim := rl.getLimiter(selectKey(r))
			if !lim.Allow() {
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(model.ErrorResponse{
					Error: "too many requests, try again later",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
