package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(window time.Duration) (*rateLimiter, *time.Time) {
	clock := time.Now()
	limiter := &rateLimiter{
		window:        window,
		last:          make(map[string]time.Time),
		sweepInterval: window * 10,
		now:           func() time.Time { return clock },
	}
	return limiter, &clock
}

func authAttempt(t *testing.T, limiter *rateLimiter, path string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", path, nil)
	limiter.handle(c)
	return c
}

func TestRateLimitSecondAttemptInWindowBlocked(t *testing.T) {
	limiter, _ := newTestLimiter(10 * time.Second)

	first := authAttempt(t, limiter, "/api/v1/auth/login")
	require.False(t, first.IsAborted())

	second := authAttempt(t, limiter, "/api/v1/auth/login")
	require.True(t, second.IsAborted())
}

func TestRateLimitAllowsAfterWindowElapsed(t *testing.T) {
	limiter, clock := newTestLimiter(10 * time.Second)

	require.False(t, authAttempt(t, limiter, "/api/v1/auth/login").IsAborted())
	*clock = clock.Add(11 * time.Second)
	require.False(t, authAttempt(t, limiter, "/api/v1/auth/login").IsAborted())
}

func TestRateLimitKeysPathsIndependently(t *testing.T) {
	limiter, _ := newTestLimiter(10 * time.Second)

	// register then an immediate login is the normal signup flow
	require.False(t, authAttempt(t, limiter, "/api/v1/auth/register").IsAborted())
	require.False(t, authAttempt(t, limiter, "/api/v1/auth/login").IsAborted())
}

func TestRateLimitZeroWindowDisabled(t *testing.T) {
	limiter, _ := newTestLimiter(0)
	for i := 0; i < 3; i++ {
		require.False(t, authAttempt(t, limiter, "/api/v1/auth/login").IsAborted())
	}
}

func TestRateLimitSweepDropsStaleEntries(t *testing.T) {
	limiter, clock := newTestLimiter(10 * time.Second)
	limiter.last["stale"] = clock.Add(-20 * time.Second)
	limiter.last["fresh"] = clock.Add(-2 * time.Second)

	limiter.mu.Lock()
	limiter.cleanupExpiredLocked(*clock)
	limiter.mu.Unlock()

	require.NotContains(t, limiter.last, "stale")
	require.Contains(t, limiter.last, "fresh")
	require.Equal(t, *clock, limiter.lastSweep)
}
