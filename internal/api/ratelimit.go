package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/vytor/flashgenius/internal/errors"
	"github.com/vytor/flashgenius/internal/metrics"
	"golang.org/x/time/rate"
)

// rateLimiter allows max requests per window for each client IP, refilling
// continuously. Clients idle for a whole window are forgotten since their
// bucket would be full again anyway.
type rateLimiter struct {
	name  string
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(name string, max int, window time.Duration) *rateLimiter {
	if max < 1 {
		max = 1
	}
	return &rateLimiter{
		name:    name,
		limit:   rate.Limit(float64(max) / window.Seconds()),
		burst:   max,
		idle:    window,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// reserve takes a token for key and returns how long the caller must wait
// when none is available.
func (l *rateLimiter) reserve(key string) time.Duration {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	res := c.limiter.ReserveN(now, 1)
	if !res.OK() {
		return l.idle
	}
	if d := res.DelayFrom(now); d > 0 {
		res.CancelAt(now)
		return d
	}
	return 0
}

func (l *rateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idle {
		return
	}
	l.lastSweep = now
	for k, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idle {
			delete(l.clients, k)
		}
	}
}

func (l *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wait := l.reserve(clientIP(r)); wait > 0 {
			metrics.RateLimited.WithLabelValues(l.name).Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			handleError(w, r, errors.NewTooManyRequestsError("too many requests, please try again later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP expects RemoteAddr to have been rewritten by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
