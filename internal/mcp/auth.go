package mcp

import (
	"crypto/subtle"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	defaultMCPMaxBodyBytes int64 = 1 << 20 // 1MiB
	limiterIdleTTL               = 10 * time.Minute
)

type HTTPHandlerConfig struct {
	AuthToken       string
	RateLimitPerMin int
	MaxBodyBytes    int64
}

// httpGuard fronts the streamable transport: bearer auth first, then a
// per-client rate limit, then a request body cap.
type httpGuard struct {
	next     http.Handler
	token    []byte
	limiter  *clientLimiter
	maxBytes int64
}

func wrapHTTPHandler(base http.Handler, cfg HTTPHandlerConfig) http.Handler {
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = defaultMCPMaxBodyBytes
	}
	return &httpGuard{
		next:     base,
		token:    []byte(strings.TrimSpace(cfg.AuthToken)),
		limiter:  newClientLimiter(cfg.RateLimitPerMin),
		maxBytes: maxBytes,
	}
}

func (g *httpGuard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	provided, ok := bearerToken(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if len(g.token) == 0 || subtle.ConstantTimeCompare([]byte(provided), g.token) != 1 {
		log.Warn().Str("remote", r.RemoteAddr).Msg("mcp request with invalid bearer token")
		writeJSONError(w, http.StatusForbidden, "invalid bearer token")
		return
	}

	if wait, ok := g.limiter.allow(clientHost(r)); !ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, g.maxBytes)
	}
	g.next.ServeHTTP(w, r)
}

func bearerToken(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func clientHost(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client host, refilled at
// perMin/60 tokens a second with a burst of perMin. Buckets idle for
// limiterIdleTTL are swept on access.
type clientLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	entries   map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiter(perMin int) *clientLimiter {
	if perMin <= 0 {
		perMin = 60
	}
	return &clientLimiter{
		limit:   rate.Limit(float64(perMin) / 60.0),
		burst:   perMin,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

// allow reports whether the client may proceed and, when it may not, how
// long until the next token.
func (l *clientLimiter) allow(key string) (time.Duration, bool) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now

	res := e.lim.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return delay, false
	}
	return 0, true
}

func (l *clientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
