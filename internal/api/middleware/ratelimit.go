package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/maumercado/anticaptcha-go/internal/logger"
)

const (
	defaultRPS   = 10
	visitorTTL   = 5 * time.Minute
	cleanupEvery = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter maintains per-client token buckets
type ClientRateLimiter struct {
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	now      func() time.Time
}

// NewClientRateLimiter creates a per-client limiter allowing rps requests
// per second with the given burst. Non-positive values fall back to
// defaults.
func NewClientRateLimiter(rps float64, burst int) *ClientRateLimiter {
	if rps <= 0 {
		rps = defaultRPS
	}
	if burst <= 0 {
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	return &ClientRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// GetLimiter returns the rate limiter for a client
func (crl *ClientRateLimiter) GetLimiter(clientID string) *rate.Limiter {
	crl.mu.Lock()
	defer crl.mu.Unlock()

	v, ok := crl.visitors[clientID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(crl.limit, crl.burst)}
		crl.visitors[clientID] = v
	}
	v.lastSeen = crl.now()
	return v.limiter
}

// Cleanup forgets clients not seen for the visitor TTL.
func (crl *ClientRateLimiter) Cleanup() {
	crl.mu.Lock()
	defer crl.mu.Unlock()

	cutoff := crl.now().Add(-visitorTTL)
	for id, v := range crl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(crl.visitors, id)
		}
	}
}

func (crl *ClientRateLimiter) cleanupLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(cleanupEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			crl.Cleanup()
		}
	}
}

// ClientRateLimit returns a middleware that enforces per-client rate
// limiting. Stale clients are evicted until stop is closed.
func ClientRateLimit(rps float64, burst int, stop <-chan struct{}) func(next http.Handler) http.Handler {
	limiter := NewClientRateLimiter(rps, burst)
	go limiter.cleanupLoop(stop)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := clientIP(r)

			if !limiter.GetLimiter(clientID).Allow() {
				logger.Warn().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("client", clientID).
					Msg("client rate limit exceeded")

				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP keys visitors on the connection address. RealIP has already
// replaced RemoteAddr when the request came through a trusted proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
