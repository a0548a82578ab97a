package travel

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dispatchlab/fieldsched/core/logger"
	coretravel "github.com/dispatchlab/fieldsched/core/travel"
)

const (
	cachePrefix  = "fieldsched:travel:"
	cacheTTL     = 24 * time.Hour
	cacheTimeout = 500 * time.Millisecond
)

// RedisCache shares travel estimates between runs and processes. Redis
// errors degrade to cache misses; the estimator then falls through its
// tiers as usual.
type RedisCache struct {
	client *redis.Client
	log    logger.Logger
}

// NewRedisCache creates a cache against the given redis address.
func NewRedisCache(addr, password string, db int, log logger.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &RedisCache{client: client, log: log}
}

func (c *RedisCache) Get(key string) (coretravel.Estimate, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	raw, err := c.client.Get(ctx, cachePrefix+key).Result()
	if err != nil {
		return coretravel.Estimate{}, false
	}
	var e coretravel.Estimate
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return coretravel.Estimate{}, false
	}
	return e, true
}

func (c *RedisCache) Put(key string, e coretravel.Estimate) {
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	if err := c.client.Set(ctx, cachePrefix+key, b, cacheTTL).Err(); err != nil && c.log != nil {
		c.log.Debugf("travel cache write failed: %v", err)
	}
}

// Clear drops all cached estimates under the travel prefix.
func (c *RedisCache) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	iter := c.client.Scan(ctx, 0, cachePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
}

// Close releases the redis connection.
func (c *RedisCache) Close() error { return c.client.Close() }
