package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eventmaster/internal/domain"
	"eventmaster/pkg/redis"

	"go.uber.org/zap"
)

// CacheService provides cache-aside reads for public QR landings. A nil
// *CacheService, or one without Redis, always reads through.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

func (c *CacheService) enabled() bool {
	return c != nil && c.redis != nil
}

// GetLandingWithCache returns the landing for code, loading it with dbFallback on a miss
func (c *CacheService) GetLandingWithCache(ctx context.Context, code string, dbFallback func(ctx context.Context, code string) (*domain.QRLanding, error)) (*domain.QRLanding, error) {
	if !c.enabled() {
		return dbFallback(ctx, code)
	}

	cacheKey := c.redis.KeyBuilder.KeyQRCodeLanding(code)

	cached, err := c.redis.Get(ctx, cacheKey)
	switch {
	case err == nil && cached != "":
		var landing domain.QRLanding
		unmarshalErr := json.Unmarshal([]byte(cached), &landing)
		if unmarshalErr == nil {
			c.logger.Debug("Landing cache hit", zap.String("code", code))
			return &landing, nil
		}
		c.logger.Warn("Landing cache corrupted, falling back to database",
			zap.String("code", code),
			zap.Error(unmarshalErr))
	case err != nil && err != redis.Nil:
		c.logger.Warn("Landing cache error, falling back to database",
			zap.String("code", code),
			zap.Error(err))
	}

	landing, err := dbFallback(ctx, code)
	if err != nil {
		return nil, err
	}

	if landing != nil {
		c.cacheLanding(ctx, cacheKey, landing)
	}
	return landing, nil
}

// InvalidateLandings drops cached landings, logging failures
func (c *CacheService) InvalidateLandings(ctx context.Context, codes ...string) {
	if !c.enabled() || len(codes) == 0 {
		return
	}

	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = c.redis.KeyBuilder.KeyQRCodeLanding(code)
	}
	if err := c.redis.Delete(ctx, keys...); err != nil {
		c.logger.Warn("Failed to invalidate landing cache", zap.Int("keys", len(keys)), zap.Error(err))
	}
}

// HealthCheck performs a health check on the cache system
func (c *CacheService) HealthCheck(ctx context.Context) error {
	if !c.enabled() {
		return fmt.Errorf("cache not configured")
	}

	start := time.Now()
	err := c.redis.Health(ctx)
	if err != nil {
		c.logger.Error("Cache health check failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return err
	}
	return nil
}

func (c *CacheService) cacheLanding(ctx context.Context, key string, landing *domain.QRLanding) {
	data, err := json.Marshal(landing)
	if err != nil {
		c.logger.Error("Failed to marshal landing for caching", zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, key, string(data), redis.TTLQRCodeLanding); err != nil {
		c.logger.Warn("Failed to cache landing", zap.Error(err))
	}
}
