package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"companydocs/internal/config"
	"companydocs/internal/model"
)

const defaultTTL = 5 * time.Minute

// redisClient is the subset of *redis.Client the cache needs.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisCache stores documents as JSON under "document:<id>".
type RedisCache struct {
	client redisClient
	ttl    time.Duration
}

var _ DocumentCache = (*RedisCache)(nil)

// NewRedisClient opens a client for cfg. It does not dial until first use.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedis wraps client. A non-positive ttl falls back to five minutes.
func NewRedis(client redisClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, id string) (*model.Document, bool, error) {
	val, err := c.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}

	var doc model.Document
	if err := json.Unmarshal(val, &doc); err != nil {
		return nil, false, errors.Wrap(err, "decode cached document")
	}
	return &doc, true, nil
}

func (c *RedisCache) Set(ctx context.Context, doc *model.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encode document")
	}
	if err := c.client.Set(ctx, key(doc.ID), data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

func key(id string) string {
	return "document:" + id
}
