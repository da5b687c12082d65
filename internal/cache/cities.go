package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hetulpatel/lotbidder/internal/bidding"
	"github.com/hetulpatel/lotbidder/internal/hashutil"
)

// CityCache remembers successful address resolutions between cycles.
type CityCache interface {
	Get(ctx context.Context, address string) (bidding.Resolution, bool, error)
	Set(ctx context.Context, address string, res bidding.Resolution) error
	Close() error
}

type redisCityCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisOptions configures the redis connection backing the cache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// NewRedisCityCache builds a cache with the given addr/password/db.
func NewRedisCityCache(opts RedisOptions) (CityCache, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	return newRedisCityCache(redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), opts.TTL, opts.Prefix), nil
}

func newRedisCityCache(client *redis.Client, ttl time.Duration, prefix string) *redisCityCache {
	if ttl <= 0 {
		ttl = 240 * time.Hour // 10 days
	}
	if prefix == "" {
		prefix = "city"
	}
	return &redisCityCache{client: client, ttl: ttl, prefix: prefix}
}

// Addresses are hashed so whitespace and non-ASCII text stay out of the key space.
func (c *redisCityCache) key(address string) string {
	return fmt.Sprintf("%s:%s", c.prefix, hashutil.HashStrings(address))
}

func (c *redisCityCache) Get(ctx context.Context, address string) (bidding.Resolution, bool, error) {
	if c == nil || c.client == nil {
		return bidding.Resolution{}, false, nil
	}
	data, err := c.client.Get(ctx, c.key(address)).Bytes()
	if err == redis.Nil {
		return bidding.Resolution{}, false, nil
	}
	if err != nil {
		return bidding.Resolution{}, false, err
	}
	var out bidding.Resolution
	if err := json.Unmarshal(data, &out); err != nil {
		return bidding.Resolution{}, false, err
	}
	return out, true, nil
}

func (c *redisCityCache) Set(ctx context.Context, address string, res bidding.Resolution) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(address), data, c.ttl).Err()
}

func (c *redisCityCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
