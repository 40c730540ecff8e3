package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"produce-lens/internal/calorie"
)

// CalorieCache is a read-through Redis cache in front of a calorie.Lookup. Only hits are
// stored; a failed lookup is retried on the next request for the same label.
type CalorieCache struct {
	client redisv9.Cmdable
	inner  calorie.Lookup
	ttl    time.Duration
}

func NewCalorieCache(client redisv9.Cmdable, inner calorie.Lookup, ttl time.Duration) *CalorieCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CalorieCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
	}
}

func (c *CalorieCache) Lookup(ctx context.Context, name string) (string, bool) {
	text, found, err := c.Get(ctx, name)
	if err != nil {
		slog.Warn("calorie cache read failed", slog.String("label", name), slog.String("error", err.Error()))
	}
	if found {
		return text, true
	}

	text, ok := c.inner.Lookup(ctx, name)
	if !ok {
		return "", false
	}
	if err := c.Set(ctx, name, text); err != nil {
		slog.Warn("calorie cache write failed", slog.String("label", name), slog.String("error", err.Error()))
	}
	return text, true
}

func (c *CalorieCache) Get(ctx context.Context, name string) (string, bool, error) {
	raw, err := c.client.Get(ctx, c.key(name)).Result()
	if errors.Is(err, redisv9.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get calories failed: %w", err)
	}
	return raw, true, nil
}

func (c *CalorieCache) Set(ctx context.Context, name, text string) error {
	if err := c.client.Set(ctx, c.key(name), text, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set calories failed: %w", err)
	}
	return nil
}

func (c *CalorieCache) Delete(ctx context.Context, name string) error {
	if err := c.client.Del(ctx, c.key(name)).Err(); err != nil {
		return fmt.Errorf("redis delete calories failed: %w", err)
	}
	return nil
}

func (c *CalorieCache) key(name string) string {
	return fmt.Sprintf("produce:calories:%s", strings.ToLower(strings.TrimSpace(name)))
}
