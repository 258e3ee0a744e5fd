package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aussiebroadwan/frontdoor/pkg/slogx"
)

// RateLimitConfig is a token bucket: RequestsPerWindow tokens refill over
// Window, and at most Burst can be spent at once.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// Route profiles. Each can be tuned with RATELIMIT_<NAME>_REQUESTS,
// RATELIMIT_<NAME>_WINDOW_SEC and RATELIMIT_<NAME>_BURST.
var (
	// StrictLimit guards credential submits, keyed by IP and email, and the
	// continue confirm that spends a refresh token.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit covers renew, portal handoff, cancel and logout.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit covers the dashboard and the status poll.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}

	// PublicLimit covers the entry page and liveness.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	for name, profile := range map[string]*RateLimitConfig{
		"STRICT":   &StrictLimit,
		"MODERATE": &ModerateLimit,
		"LENIENT":  &LenientLimit,
		"PUBLIC":   &PublicLimit,
	} {
		*profile = ParseRateLimitFromEnv(name, *profile)
	}
}

// ParseRateLimitFromEnv overlays RATELIMIT_<prefix>_REQUESTS, _WINDOW_SEC and
// _BURST on base. Unset, non-numeric or non-positive values keep base.
func ParseRateLimitFromEnv(prefix string, base RateLimitConfig) RateLimitConfig {
	cfg := base
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

func positiveEnv(name string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(name))
	return n, err == nil && n > 0
}

// KeyExtractor names the client a request is counted against. An empty key
// is not limited.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor uses the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's address.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep, so
// CompositeKeyExtractor(":", IPKeyExtractor, BodyFieldKeyExtractor("email"))
// counts "10.0.0.7:ada@example.edu".
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if k := extract(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}

// FormFieldKeyExtractor reads fieldName from the query or a form body.
func FormFieldKeyExtractor(fieldName string) KeyExtractor {
	return func(r *http.Request) string {
		if r.ParseForm() != nil {
			return ""
		}
		return r.FormValue(fieldName)
	}
}

// maxPeekBytes bounds how much of a JSON body a key extractor will buffer.
const maxPeekBytes = 64 << 10

// BodyFieldKeyExtractor reads fieldName from a JSON body, or from the form
// for any other content type. The body is restored for the next handler.
// Keys are case folded so "Ada@" and "ada@" share a bucket.
func BodyFieldKeyExtractor(fieldName string) KeyExtractor {
	form := FormFieldKeyExtractor(fieldName)
	return func(r *http.Request) string {
		if !IsJSON(r) || r.Body == nil {
			return strings.ToLower(strings.TrimSpace(form(r)))
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil {
			return ""
		}

		var fields map[string]any
		if json.Unmarshal(body, &fields) != nil {
			return ""
		}
		v, _ := fields[fieldName].(string)
		return strings.ToLower(strings.TrimSpace(v))
	}
}

// sweepEvery is how often a bucket set drops its idle clients.
const sweepEvery = 5 * time.Minute

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

// buckets holds one token bucket per client key. A client idle for longer
// than a full refill is forgotten, since a fresh bucket behaves the same.
type buckets struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex
	clients map[string]*client
	swept   time.Time
}

func newBuckets(cfg RateLimitConfig, now time.Time) *buckets {
	limit := rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds())
	return &buckets{
		limit:   limit,
		burst:   cfg.Burst,
		idle:    time.Duration(float64(cfg.Burst) / float64(limit) * float64(time.Second)),
		clients: map[string]*client{},
		swept:   now,
	}
}

func (b *buckets) get(key string, now time.Time) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.swept) >= sweepEvery {
		for k, c := range b.clients {
			if now.Sub(c.seen) > b.idle {
				delete(b.clients, k)
			}
		}
		b.swept = now
	}

	c, ok := b.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.clients[key] = c
	}
	c.seen = now
	return c.limiter
}

// retryAfter is the whole seconds until l holds a token again, at least 1.
func (b *buckets) retryAfter(l *rate.Limiter, now time.Time) int {
	missing := 1 - l.TokensAt(now)
	return max(int(math.Ceil(missing/float64(b.limit))), 1)
}

// RateLimitMiddleware answers 429 once the client named by keyExtractor has
// spent its bucket. Requests without a key pass through with a warning.
func RateLimitMiddleware(cfg RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	set := newBuckets(cfg, time.Now())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: no client key, not limiting", "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			limiter := set.get(key, now)
			if limiter.AllowN(now, 1) {
				next.ServeHTTP(w, r)
				return
			}

			wait := set.retryAfter(limiter, now)
			w.Header().Set("Retry-After", strconv.Itoa(wait))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", cfg.Window.String())
			log.Warn("rate limit exceeded", "key", key, "path", r.URL.Path, "retry_after", wait)
			WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
		})
	}
}

// RateLimitByIP limits each client address.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, IPKeyExtractor)
}

// RateLimitByIPAndBodyField limits each address and body field pair, so a
// login is counted per IP and email.
func RateLimitByIPAndBodyField(cfg RateLimitConfig, fieldName string) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", IPKeyExtractor, BodyFieldKeyExtractor(fieldName)))
}
