// Package cache keeps recent single-row predictions in redis so repeated
// scoring of the same vector skips the pipeline replay.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/valyala/fastrand"
)

type Config struct {
	Addr     string        `envconfig:"MELD_CACHE_ADDR"`
	Password string        `envconfig:"MELD_CACHE_PASSWORD"`
	DB       int           `envconfig:"MELD_CACHE_DB" default:"0"`
	TTL      time.Duration `envconfig:"MELD_CACHE_TTL" default:"10m"`
}

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFromEnv connects to redis using the environment config. TTLs are
// jittered by up to a tenth of the configured value so a burst of writes
// does not expire at once.
func NewFromEnv(ctx context.Context, cfg *Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return &Cache{client: client, ttl: cfg.TTL}, nil
}

// Get returns the cached entry for a key, or nil on a miss.
func (c *Cache) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return decodeEntry(data)
}

// Set stores an entry under a jittered TTL.
func (c *Cache) Set(ctx context.Context, key string, e *Entry) error {
	data, err := encodeEntry(e)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, data, c.jitteredTTL()).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) jitteredTTL() time.Duration {
	spread := uint32(c.ttl / 10)
	if spread == 0 {
		return c.ttl
	}
	return c.ttl + time.Duration(fastrand.Uint32n(spread))
}
