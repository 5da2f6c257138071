package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"onehr/internal/transport/http/api"
	"onehr/internal/transport/http/shared"
)

// KeyFunc names the bucket a request is counted in.
type KeyFunc func(r *http.Request) string

type bucket struct {
	count int
	reset time.Time
}

// limiter is a fixed-window counter per key. Expired buckets are swept once
// per window so idle clients do not accumulate.
type limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	key     KeyFunc
	now     func() time.Time
	buckets map[string]*bucket
	swept   time.Time
}

func newLimiter(limit int, window time.Duration, key KeyFunc) *limiter {
	return &limiter{limit: limit, window: window, key: key, now: time.Now, buckets: map[string]*bucket{}}
}

// RateLimit caps every request per signed-in user, or per client IP before
// authentication has run.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	l := newLimiter(limit, window, userOrIP)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.allow(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit adds tighter limits to the routes that guess
// passwords or fan out into bulk writes: login is capped per IP and per
// email at a quarter of base, holiday initialization and alert generation
// per user at half of base. Every other route passes through.
func SensitiveMutationRateLimit(base int, window time.Duration) func(http.Handler) http.Handler {
	login := []*limiter{
		newLimiter(max(base/4, 1), window, shared.ClientIP),
		newLimiter(max(base/4, 1), window, loginEmailOrIP),
	}
	bulk := []*limiter{newLimiter(max(base/2, 1), window, userOrIP)}
	routes := map[string][]*limiter{
		"/auth/login":                             login,
		"/hr-calendar/initialize-us-holidays":     bulk,
		"/notifications/generate-calendar-alerts": bulk,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				for _, l := range routes[strings.TrimPrefix(r.URL.Path, "/api/v1")] {
					if !l.allow(w, r) {
						return
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func userOrIP(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.TenantID + ":" + user.UserID
	}
	return shared.ClientIP(r)
}

// loginEmailOrIP reads the email of a login body and restores the body for
// the handler.
func loginEmailOrIP(r *http.Request) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return shared.ClientIP(r)
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return shared.ClientIP(r)
	}
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &body) != nil || strings.TrimSpace(body.Email) == "" {
		return shared.ClientIP(r)
	}
	return "email:" + strings.ToLower(strings.TrimSpace(body.Email))
}

// allow counts r and writes the 429 response when the key is over its limit.
func (l *limiter) allow(w http.ResponseWriter, r *http.Request) bool {
	if l.limit <= 0 {
		return true
	}
	key := l.key(r)
	if key == "" {
		key = shared.ClientIP(r)
	}

	l.mu.Lock()
	now := l.now()
	if now.Sub(l.swept) >= l.window {
		for k, b := range l.buckets {
			if now.After(b.reset) {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}
	b, ok := l.buckets[key]
	if !ok || now.After(b.reset) {
		b = &bucket{reset: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	count, reset := b.count, b.reset
	l.mu.Unlock()

	resetIn := int(reset.Sub(now).Round(time.Second) / time.Second)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(l.limit-count, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(max(resetIn, 0)))
	if count <= l.limit {
		return true
	}

	w.Header().Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
	slog.Warn("rate limit exceeded", "key", key, "path", r.URL.Path, "method", r.Method, "limit", l.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}
