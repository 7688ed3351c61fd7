package service

import (
	"context"
	"testing"
	"time"

	"eventmaster/internal/domain"
	"eventmaster/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRateLimiter_FixedWindow(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	limit := domain.RateLimit{Requests: 10, Window: time.Minute}
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		info, err := limiter.Allow(ctx, ScopeSubmit, "ip1", limit)
		require.NoError(t, err)
		assert.True(t, info.Allowed, "request %d", i)
		assert.Equal(t, 10-i, info.Remaining)
	}

	info, err := limiter.Allow(ctx, ScopeSubmit, "ip1", limit)
	require.NoError(t, err)
	assert.False(t, info.Allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, int64(11), info.Count)
	assert.Greater(t, info.RetryAfter(time.Now()), 0)
	assert.LessOrEqual(t, info.RetryAfter(time.Now()), 60)

	assert.Equal(t, "test:ratelimit:submit:ip1", info.Key)
	assert.True(t, mr.Exists("test:ratelimit:submit:ip1"))

	// Other subjects and scopes have their own windows
	other, err := limiter.Allow(ctx, ScopeSubmit, "ip2", limit)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
	scoped, err := limiter.Allow(ctx, ScopeForm, "ip1", limit)
	require.NoError(t, err)
	assert.True(t, scoped.Allowed)

	mr.FastForward(61 * time.Second)
	info, err = limiter.Allow(ctx, ScopeSubmit, "ip1", limit)
	require.NoError(t, err)
	assert.True(t, info.Allowed)
	assert.Equal(t, int64(1), info.Count)
}

func TestRedisRateLimiter_LaterHitsKeepTheWindow(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	limit := domain.RateLimit{Requests: 5, Window: time.Minute}
	ctx := context.Background()

	_, err := limiter.Allow(ctx, ScopeForm, "ip1", limit)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("test:ratelimit:form:ip1"))

	mr.FastForward(40 * time.Second)
	info, err := limiter.Allow(ctx, ScopeForm, "ip1", limit)
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Count)
	assert.Equal(t, 20*time.Second, mr.TTL("test:ratelimit:form:ip1"))
	assert.LessOrEqual(t, info.RetryAfter(time.Now()), 20)
}

func TestRedisRateLimiter_RepairsMissingExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	require.NoError(t, mr.Set("test:ratelimit:form:abc", "3"))

	info, err := NewRedisRateLimiter(client).Allow(context.Background(), ScopeForm, "abc", domain.RateLimit{Requests: 5, Window: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Count)
	assert.Equal(t, time.Minute, mr.TTL("test:ratelimit:form:abc"))
}

func TestRedisRateLimiter_BackendDown(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Close()

	_, err := NewRedisRateLimiter(client).Allow(context.Background(), ScopeSubmit, "ip", domain.RateLimit{Requests: 1, Window: time.Second})
	assert.Error(t, err)
}

func TestMemoryRateLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryRateLimiter().(*memoryRateLimiter)
	l.now = func() time.Time { return now }
	limit := domain.RateLimit{Requests: 5, Window: time.Minute}

	for i := 0; i < 5; i++ {
		info, err := l.Allow(context.Background(), ScopeForm, "k", limit)
		require.NoError(t, err)
		assert.True(t, info.Allowed)
	}

	now = now.Add(30 * time.Second)
	info, _ := l.Allow(context.Background(), ScopeForm, "k", limit)
	assert.False(t, info.Allowed)
	assert.Equal(t, 30, info.RetryAfter(now))

	now = now.Add(30 * time.Second)
	info, _ = l.Allow(context.Background(), ScopeForm, "k", limit)
	assert.True(t, info.Allowed)
	assert.Equal(t, int64(1), info.Count)
}

func TestMemoryRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryRateLimiter().(*memoryRateLimiter)
	l.now = func() time.Time { return now }
	limit := domain.RateLimit{Requests: 1, Window: time.Second}

	_, _ = l.Allow(context.Background(), ScopeSubmit, "a", limit)
	_, _ = l.Allow(context.Background(), ScopeSubmit, "b", limit)
	assert.Len(t, l.windows, 2)

	now = now.Add(2 * time.Minute)
	_, _ = l.Allow(context.Background(), ScopeSubmit, "c", limit)
	assert.Len(t, l.windows, 1)
}

func TestHashSubject(t *testing.T) {
	a := HashSubject("203.0.113.7")
	assert.Len(t, a, 16)
	assert.Equal(t, a, HashSubject("203.0.113.7"))
	assert.NotEqual(t, HashSubject("203.0.113.7", "form1"), HashSubject("203.0.113.7", "form2"))
}
