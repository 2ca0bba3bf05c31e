package http

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/fwojciec/citydir"
	"golang.org/x/time/rate"
)

// DefaultIdleTimeout is how long a client must stay quiet before its
// limiter becomes eligible for eviction.
const DefaultIdleTimeout = 10 * time.Minute

// ClientLimiter provides per-client rate limiting using token buckets.
// Each client key gets its own limiter so one busy client cannot starve
// the others. Limiters of clients idle for IdleTimeout with a full bucket
// are evicted, so the map stays bounded by the recently active clients.
type ClientLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientBucket
	rps       float64
	burst     int
	lastSweep time.Time

	// IdleTimeout is the minimum idle time before a limiter is evicted.
	IdleTimeout time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter creates a new ClientLimiter allowing rps requests per
// second per client with the given burst. A burst below 1 is raised to 1.
func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ClientLimiter{
		limiters:    make(map[string]*clientBucket),
		rps:         rps,
		burst:       burst,
		IdleTimeout: DefaultIdleTimeout,
		Now:         time.Now,
	}
}

// Allow reports whether a request from key may proceed now.
func (l *ClientLimiter) Allow(key string) bool {
	l.mu.Lock()
	now := l.Now()
	if now.Sub(l.lastSweep) >= l.IdleTimeout {
		l.sweep(now)
	}
	b, ok := l.limiters[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.limiters[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// Len returns the number of clients currently tracked.
func (l *ClientLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// sweep drops limiters that have been idle long enough to refill completely,
// since a fresh limiter behaves the same. Must be called with mu held.
func (l *ClientLimiter) sweep(now time.Time) {
	for key, b := range l.limiters {
		if now.Sub(b.lastSeen) >= l.IdleTimeout && b.limiter.TokensAt(now) >= float64(l.burst) {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

// limitMutations rejects requests over the per-client limit with 429.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(clientKey(r)) {
			s.metrics.IncrementRateLimited()
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, citydir.Errorf(citydir.EUNAVAILABLE, "too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller by remote IP.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
