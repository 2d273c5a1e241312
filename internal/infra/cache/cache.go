// Package cache keeps rendered layout markup between page views.
//
// Entries are never deleted one by one. Each layout has a generation number
// that is part of every key; invalidating a layout bumps the generation and
// lets the old entries expire.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key identifies one rendered region. Gen is the layout generation the
// entry belongs to; an empty Gen means the current one.
type Key struct {
	LayoutID string
	Location string
	Page     int
	Gen      string
}

// RenderCache stores rendered markup per layout region.
//
// A caller that renders on a miss pins the key before reading, then writes
// under the same key. Markup rendered while the layout was invalidated is
// then stored under the old generation, where nothing reads it.
type RenderCache interface {
	Pin(ctx context.Context, k Key) (Key, error)
	Get(ctx context.Context, k Key) (string, bool, error)
	Set(ctx context.Context, k Key, markup string) error
	Invalidate(ctx context.Context, layoutID string) error
}

// RedisClient is the subset of go-redis the cache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

type RedisCache struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps a client. A zero ttl keeps entries until the layout
// is invalidated.
func NewRedisCache(client RedisClient, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (c *RedisCache) genKey(layoutID string) string {
	return c.prefix + "render:gen:" + layoutID
}

func (c *RedisCache) generation(ctx context.Context, layoutID string) (string, error) {
	gen, err := c.client.Get(ctx, c.genKey(layoutID)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (c *RedisCache) entryKey(k Key) string {
	return c.prefix + "render:" + k.LayoutID + ":" + k.Gen + ":" + k.Location + ":" + strconv.Itoa(k.Page)
}

// Pin sets k.Gen to the layout's current generation.
func (c *RedisCache) Pin(ctx context.Context, k Key) (Key, error) {
	gen, err := c.generation(ctx, k.LayoutID)
	if err != nil {
		return k, err
	}
	k.Gen = gen
	return k, nil
}

func (c *RedisCache) pinned(ctx context.Context, k Key) (Key, error) {
	if k.Gen != "" {
		return k, nil
	}
	return c.Pin(ctx, k)
}

func (c *RedisCache) Get(ctx context.Context, k Key) (string, bool, error) {
	k, err := c.pinned(ctx, k)
	if err != nil {
		return "", false, err
	}
	val, err := c.client.Get(ctx, c.entryKey(k)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, k Key, markup string) error {
	k, err := c.pinned(ctx, k)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.entryKey(k), markup, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, layoutID string) error {
	return c.client.Incr(ctx, c.genKey(layoutID)).Err()
}

// NullCache never stores anything. It is used when no redis is configured.
type NullCache struct{}

func (NullCache) Pin(_ context.Context, k Key) (Key, error)      { return k, nil }
func (NullCache) Get(context.Context, Key) (string, bool, error) { return "", false, nil }
func (NullCache) Set(context.Context, Key, string) error         { return nil }
func (NullCache) Invalidate(context.Context, string) error       { return nil }
