package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "_pathway_ytcache_"

// RedisCache 多实例部署时共享的缓存，条目不过期
type RedisCache struct {
	cli *redis.Client
}

func NewRedisCache(cli *redis.Client) *RedisCache {
	return &RedisCache{cli: cli}
}

func (c *RedisCache) Lookup(ctx context.Context, query string) (string, bool, error) {
	v, err := c.cli.Get(ctx, redisKey(query)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *RedisCache) Store(ctx context.Context, query, value string) error {
	return c.cli.Set(ctx, redisKey(query), value, 0).Err()
}

func redisKey(query string) string {
	return redisKeyPrefix + query
}
