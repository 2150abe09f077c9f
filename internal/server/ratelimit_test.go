package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentsearch/internal/config"
)

func newTestLimiter(t *testing.T, perMin, burst int) (*RateLimiter, *time.Time) {
	t.Helper()

	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerMin: perMin, BurstCapacity: burst}, nil)
	rl.now = func() time.Time { return now }
	t.Cleanup(rl.Close)
	return rl, &now
}

func TestRateLimiterReserve(t *testing.T) {
	rl, now := newTestLimiter(t, 60, 2)

	for range 2 {
		ok, _ := rl.Reserve("ip:10.0.0.1")
		require.True(t, ok)
	}

	ok, retryAfter := rl.Reserve("ip:10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, time.Second, retryAfter)

	ok, _ = rl.Reserve("ip:10.0.0.2")
	assert.True(t, ok, "buckets are per client")

	*now = now.Add(time.Second)
	ok, _ = rl.Reserve("ip:10.0.0.1")
	assert.True(t, ok, "one token refills per second at 60/min")
}

func TestRateLimiterRefusalDoesNotSpendToken(t *testing.T) {
	rl, now := newTestLimiter(t, 60, 1)

	ok, _ := rl.Reserve("k")
	require.True(t, ok)
	for range 5 {
		ok, _ = rl.Reserve("k")
		require.False(t, ok)
	}

	*now = now.Add(time.Second)
	ok, _ = rl.Reserve("k")
	assert.True(t, ok)
}

func TestRateLimiterSweep(t *testing.T) {
	rl, now := newTestLimiter(t, 60, 1)

	rl.Reserve("old")
	*now = now.Add(5 * time.Minute)
	rl.Reserve("fresh")
	*now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, rl.sweep(limiterIdleTTL))
	assert.Equal(t, 1, rl.Stats()["active_clients"])
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerMin: 30, Window: 30 * time.Second}, nil)
	defer rl.Close()

	stats := rl.Stats()
	assert.InDelta(t, 60.0, stats["rate_per_minute"], 0.001)
	assert.Equal(t, 1, stats["burst_capacity"])
}

func TestRateLimitKey(t *testing.T) {
	verified := func(key string) bool { return key == "key-123" }

	tests := []struct {
		name     string
		apiKey   string
		byAPIKey bool
		byIP     bool
		want     string
	}{
		{"verified key", "key-123", true, true, "api:key-123"},
		{"verified key without key limiting", "key-123", false, true, "ip:192.0.2.1"},
		{"unknown key falls back to address", "made-up", true, true, "ip:192.0.2.1"},
		{"unknown key limited by address when ip limiting is off", "made-up", true, false, "ip:192.0.2.1"},
		{"no key", "", true, true, "ip:192.0.2.1"},
		{"no key and no ip limiting", "", true, false, ""},
		{"nothing enabled", "", false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.1:1234"
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			assert.Equal(t, tt.want, rateLimitKey(req, tt.byAPIKey, tt.byIP, verified))
		})
	}
}
