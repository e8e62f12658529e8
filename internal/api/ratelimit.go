package api

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimit is a fixed-window per-client request counter: each remote host
// gets perMinute requests per wall-clock minute. Counters are in-memory and
// reset on process restart.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	l := &limiter{
		perWindow: perMinute,
		window:    time.Minute,
		counts:    make(map[string]*counter),
		now:       time.Now,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientKey(r)) {
				httpError(w, http.StatusTooManyRequests, "rate_limit_error", "too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type counter struct {
	windowStart time.Time
	n           int
}

type limiter struct {
	perWindow int
	window    time.Duration

	mu     sync.Mutex
	counts map[string]*counter
	now    func() time.Time
}

func (l *limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c := l.counts[key]
	if c == nil || now.Sub(c.windowStart) >= l.window {
		l.counts[key] = &counter{windowStart: now, n: 1}
		return true
	}
	if c.n >= l.perWindow {
		return false
	}
	c.n++
	return true
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
