// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key (client IP, email). It is safe for
// concurrent use. Buckets idle for longer than idleTTL are dropped.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	stop    chan struct{}
	once    sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter allowing rps requests per second with the given burst.
func New(rps float64, burst int) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: 5 * time.Minute,
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop(3 * time.Minute)
	return l
}

// Allow reports whether one more event for key may happen now.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Reset forgets key's bucket.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-t.C:
			l.mu.Lock()
			for k, b := range l.buckets {
				if time.Since(b.lastSeen) > l.idleTTL {
					delete(l.buckets, k)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Middleware enforces the limit per client IP and answers 429 with a JSON
// body when exceeded.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r)) {
			TooMany(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TooMany writes the 429 response.
func TooMany(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"kind":    "rate_limited",
			"message": "too many requests, please try again later",
		},
	})
}

// ClientIP extracts the client IP, honoring X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter throttles login attempts by IP and by target email, so one
// client cannot spray many accounts and many clients cannot hammer one.
type LoginLimiter struct {
	ip    *Limiter
	email *Limiter
}

// NewLoginLimiter builds a LoginLimiter. ipRPS/ipBurst apply per client IP;
// the per-email bucket allows a burst of 5 refilled once every 12 seconds.
func NewLoginLimiter(ipRPS float64, ipBurst int) *LoginLimiter {
	return &LoginLimiter{
		ip:    New(ipRPS, ipBurst),
		email: New(1.0/12, 5),
	}
}

// Check reports whether the attempt is allowed and, if not, which limit hit.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.ip.Allow(ClientIP(r)) {
		return false, "ip"
	}
	if email != "" && !ll.email.Allow(strings.ToLower(email)) {
		return false, "email"
	}
	return true, ""
}

// ResetEmail clears the per-email bucket after a successful login.
func (ll *LoginLimiter) ResetEmail(email string) {
	ll.email.Reset(strings.ToLower(email))
}

// Close stops both limiters' cleanup goroutines.
func (ll *LoginLimiter) Close() {
	ll.ip.Close()
	ll.email.Close()
}
