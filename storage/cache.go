package storage

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache stores short-lived serialized responses. A nil *RedisCache is a
// valid no-op cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache accepts "host:port" or a redis:// URL.
func NewRedisCache(redisURL string) *RedisCache {
	var opts *redis.Options
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Printf("⚠️  invalid REDIS_URL, live-search cache disabled: %v", err)
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: redisURL}
	}

	log.Println("🔧 Redis cache initialized with address:", opts.Addr)
	return &RedisCache{client: redis.NewClient(opts)}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("redis get %s: %v", key, err)
		}
		return nil, false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("redis set %s: %v", key, err)
	}
}

func (c *RedisCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
