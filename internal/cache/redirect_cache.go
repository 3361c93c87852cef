package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "shortmark:code:"
	DefaultTTL = 10 * time.Minute
)

// RedirectCache maps short codes to URLs in Redis.
type RedirectCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedirectCache wraps client. A non-positive ttl means DefaultTTL.
func NewRedirectCache(client redis.Cmdable, ttl time.Duration) *RedirectCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedirectCache{client: client, ttl: ttl}
}

func key(code string) string { return keyPrefix + code }

// Get returns the cached URL for code. ok is false on a miss.
func (c *RedirectCache) Get(ctx context.Context, code string) (url string, ok bool, err error) {
	url, err = c.client.Get(ctx, key(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return url, true, nil
}

func (c *RedirectCache) Set(ctx context.Context, code, url string) error {
	return c.client.Set(ctx, key(code), url, c.ttl).Err()
}

func (c *RedirectCache) Delete(ctx context.Context, code string) error {
	return c.client.Del(ctx, key(code)).Err()
}
