package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/trendduel/trendduel-ai-go/internal/models"
)

// PackCacheStats tracks cache performance metrics
type PackCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	mu     sync.RWMutex
}

// RedisPackCache caches computed forecast packs keyed by the request content
// hash. Because the forecast pipeline is deterministic, a hash hit is always
// safe to serve for the TTL window.
type RedisPackCache struct {
	redis  *redis.Client
	logger *logrus.Logger
	ttl    time.Duration
	stats  *PackCacheStats
	prefix string
}

// NewRedisPackCache creates a new Redis-based forecast pack cache.
func NewRedisPackCache(redisClient *redis.Client, logger *logrus.Logger, ttl time.Duration) *RedisPackCache {
	return &RedisPackCache{
		redis:  redisClient,
		logger: logger,
		ttl:    ttl,
		stats:  &PackCacheStats{},
		prefix: "forecast_pack:",
	}
}

// Get retrieves a cached pack by input hash. Cache errors degrade to a miss;
// the caller recomputes.
func (c *RedisPackCache) Get(ctx context.Context, inputHash string) (*models.ForecastPack, bool) {
	data, err := c.redis.Get(ctx, c.prefix+inputHash).Result()
	if err == redis.Nil {
		c.recordMiss()
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Warn("Redis error getting forecast pack")
		c.recordMiss()
		return nil, false
	}

	var pack models.ForecastPack
	if err := json.Unmarshal([]byte(data), &pack); err != nil {
		c.logger.WithError(err).Warn("Error deserializing cached forecast pack")
		c.recordMiss()
		return nil, false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()

	return &pack, true
}

// Set stores a pack under its input hash. Failures are logged and swallowed;
// caching is best effort.
func (c *RedisPackCache) Set(ctx context.Context, pack *models.ForecastPack) {
	data, err := json.Marshal(pack)
	if err != nil {
		c.logger.WithError(err).Warn("Error serializing forecast pack")
		return
	}

	if err := c.redis.Set(ctx, c.prefix+pack.InputHash, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis error setting forecast pack")
		return
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
}

// Stats returns a snapshot of hit/miss/set counters.
func (c *RedisPackCache) Stats() (hits, misses, sets int64) {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return c.stats.Hits, c.stats.Misses, c.stats.Sets
}

func (c *RedisPackCache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}
