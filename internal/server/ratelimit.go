package server

import (
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"talentsearch/internal/config"
	"talentsearch/internal/errors"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL       = 10 * time.Minute
	limiterSweepInterval = time.Minute
)

// bucket is the token bucket of one client and when it was last used
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key ("api:<key>" or
// "ip:<addr>"). Buckets idle for longer than limiterIdleTTL are swept.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	logger   *errors.Logger
}

// NewRateLimiter allows cfg.RequestsPerMin requests per cfg.Window (one
// minute when unset) with bursts of cfg.BurstCapacity.
func NewRateLimiter(cfg config.RateLimitConfig, logger *errors.Logger) *RateLimiter {
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	burst := max(cfg.BurstCapacity, 1)

	rl := &RateLimiter{
		limit:   rate.Limit(float64(cfg.RequestsPerMin) / window.Seconds()),
		burst:   burst,
		buckets: make(map[string]*bucket),
		now:     time.Now,
		stop:    make(chan struct{}),
		logger:  logger,
	}
	go rl.sweepLoop()
	return rl
}

// Reserve takes a token for key. When none is available it returns false and
// how long the client should wait before retrying.
func (rl *RateLimiter) Reserve(key string) (bool, time.Duration) {
	rl.mu.Lock()
	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	rl.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Stats reports the bucket settings and how many clients are tracked
func (rl *RateLimiter) Stats() map[string]any {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]any{
		"enabled":         true,
		"active_clients":  len(rl.buckets),
		"rate_per_minute": float64(rl.limit) * 60,
		"burst_capacity":  rl.burst,
	}
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep(limiterIdleTTL)
		case <-rl.stop:
			return
		}
	}
}

// sweep drops buckets not used within idle
func (rl *RateLimiter) sweep(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	removed := 0
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
			removed++
		}
	}
	if removed > 0 && rl.logger != nil {
		rl.logger.Debug("Evicted idle rate limit buckets", "removed", removed, "remaining", len(rl.buckets))
	}
	return removed
}

// Close stops the sweep loop. Calling it twice is harmless.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// rateLimitMiddleware rejects requests over the client's budget with 429 and
// a Retry-After header. Refusals are counted by limiter type.
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimiter == nil || s.RateLimit == nil || !s.RateLimit.Enabled {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP, s.isValidAPIKey)
			if key == "" {
				next(w, r)
				return
			}

			allowed, retryAfter := s.RateLimiter.Reserve(key)
			if allowed {
				next(w, r)
				return
			}

			kind, _, _ := strings.Cut(key, ":")
			s.recorder.RecordRateLimitHit(r.Context(), kind)
			s.Logger.Info("Rate limit exceeded",
				"key", maskRateLimitKey(key),
				"endpoint", r.URL.Path,
				"retry_after", retryAfter)

			if retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			}
			writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
		}
	}
}

// rateLimitKey returns the bucket key for r. A sent API key gets its own
// bucket only when byAPIKey is set and verified accepts it. Any other key is
// ignored, and a request carrying one is limited by address even when byIP
// is off, so rotating made-up keys cannot escape the address limit.
func rateLimitKey(r *http.Request, byAPIKey, byIP bool, verified func(string) bool) string {
	apiKey := extractAPIKey(r)
	if byAPIKey && apiKey != "" && verified(apiKey) {
		return "api:" + apiKey
	}
	if byIP || apiKey != "" {
		return "ip:" + getClientIP(r)
	}
	return ""
}

func maskRateLimitKey(key string) string {
	if apiKey, ok := strings.CutPrefix(key, "api:"); ok {
		return "api:" + maskAPIKey(apiKey)
	}
	return key
}

// getClientIP returns the connection's remote address. Forwarding headers
// are only honoured when that peer is a loopback or private address, i.e. a
// proxy in front of the service. X-Forwarded-For is then read right to left
// and the first address outside those ranges wins, since entries on the left
// are whatever the client chose to send. X-Real-IP is the fallback.
func getClientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		peer = host
	}

	peerAddr, err := netip.ParseAddr(peer)
	if err != nil || !isProxyAddr(peerAddr) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			continue
		}
		if !isProxyAddr(addr) {
			return addr.Unmap().String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.Unmap().String()
	}
	return peer
}

func isProxyAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate()
}
