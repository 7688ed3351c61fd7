package service

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"eventmaster/internal/domain"
	"eventmaster/pkg/redis"
)

// Limiter scopes
const (
	ScopeSubmit = "submit"
	ScopeForm   = "form"
)

// HashSubject hashes a client identity before it becomes part of a key
func HashSubject(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{'|'})
		}
		h.Write([]byte(p))
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

func newRateLimitInfo(key string, limit domain.RateLimit, count int64, resetAt time.Time) *domain.RateLimitInfo {
	remaining := limit.Requests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return &domain.RateLimitInfo{
		Key:       key,
		Limit:     limit.Requests,
		Count:     count,
		Remaining: remaining,
		ResetAt:   resetAt,
		Allowed:   count <= int64(limit.Requests),
	}
}

// redisRateLimiter shares fixed-window counters between instances
type redisRateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRateLimiter creates a limiter backed by Redis INCR/EXPIRE
func NewRedisRateLimiter(client *redis.Client) RateLimiter {
	return &redisRateLimiter{client: client, now: time.Now}
}

func (l *redisRateLimiter) Allow(ctx context.Context, scope, subject string, limit domain.RateLimit) (*domain.RateLimitInfo, error) {
	key := l.client.KeyBuilder.KeyRateLimit(scope, subject)

	count, ttl, err := l.client.IncrWindow(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("rate limit incr: %w", err)
	}

	// The first hit opens the window. A key left without expiry by a crash
	// between INCR and EXPIRE is given one as well.
	if ttl < 0 {
		if err := l.client.Expire(ctx, key, limit.Window); err != nil {
			return nil, fmt.Errorf("rate limit expire: %w", err)
		}
		ttl = limit.Window
	}

	return newRateLimitInfo(key, limit, count, l.now().Add(ttl)), nil
}

// memoryRateLimiter keeps per-process fixed windows
type memoryRateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*memoryWindow
	now       func() time.Time
	nextSweep time.Time
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

const memorySweepInterval = time.Minute

// NewMemoryRateLimiter creates a limiter for single-instance deployments
func NewMemoryRateLimiter() RateLimiter {
	return &memoryRateLimiter{windows: make(map[string]*memoryWindow), now: time.Now}
}

func (l *memoryRateLimiter) Allow(_ context.Context, scope, subject string, limit domain.RateLimit) (*domain.RateLimitInfo, error) {
	key := fmt.Sprintf(redis.KeyRateLimit, scope, subject)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &memoryWindow{resetAt: now.Add(limit.Window)}
		l.windows[key] = w
	}
	w.count++

	return newRateLimitInfo(key, limit, w.count, w.resetAt), nil
}

// sweep drops expired windows at most once per interval. Caller holds mu.
func (l *memoryRateLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
	l.nextSweep = now.Add(memorySweepInterval)
}
