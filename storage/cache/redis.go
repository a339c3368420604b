package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trezcool/shulesite/core"
)

type redisCache struct {
	client *redis.Client
	log    core.Logger
}

var _ core.Cache = (*redisCache)(nil) // interface compliance check

// NewRedisCache connects to redis per conf and fronts it as a core.Cache.
// Cache failures are logged and treated as misses; the site keeps serving
// from the database.
func NewRedisCache(conf *core.Config, log core.Logger) (core.Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &redisCache{client: client, log: log}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Error("cache: get "+key, err)
		}
		return nil, false
	}
	return val, true
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Error("cache: set "+key, err)
	}
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Error("cache: delete", err)
	}
}
