package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/config"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
)

// RedisQueryCache is an alternate QueryCache implementation for multi-
// instance deployments, where an in-process TTL map can't be shared across
// replicas. Grounded on the teacher's internal/workspaces/redis_cache.go
// (single-node redis.Options construction, Ping-on-connect).
type RedisQueryCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisQueryCache builds a Redis-backed cache when enabled in config;
// returns nil, nil when disabled so callers can fall back to QueryCache.
func NewRedisQueryCache(cfg config.CacheConfig) (*RedisQueryCache, error) {
	if !cfg.Enabled || cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisQueryCache{client: client, ttl: ttl}, nil
}

func (c *RedisQueryCache) Get(ctx context.Context, key string) (model.RetrievalOutput, bool) {
	raw, err := c.client.Get(ctx, "retrieval:query:"+key).Bytes()
	if err != nil {
		return model.RetrievalOutput{}, false
	}
	var out model.RetrievalOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.RetrievalOutput{}, false
	}
	return out, true
}

func (c *RedisQueryCache) Put(ctx context.Context, key string, output model.RetrievalOutput) error {
	raw, err := json.Marshal(output)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "retrieval:query:"+key, raw, c.ttl).Err()
}
