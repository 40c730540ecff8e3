package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// memRedis implements the subset of redis commands the cache uses.
type memRedis struct {
	redisv9.Cmdable
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMemRedis() *memRedis {
	return &memRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memRedis) Get(_ context.Context, key string) *redisv9.StringCmd {
	if m.err != nil {
		return redisv9.NewStringResult("", m.err)
	}
	v, ok := m.data[key]
	if !ok {
		return redisv9.NewStringResult("", redisv9.Nil)
	}
	return redisv9.NewStringResult(v, nil)
}

func (m *memRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redisv9.StatusCmd {
	if m.err != nil {
		return redisv9.NewStatusResult("", m.err)
	}
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return redisv9.NewStatusResult("OK", nil)
}

func (m *memRedis) Del(_ context.Context, keys ...string) *redisv9.IntCmd {
	for _, k := range keys {
		delete(m.data, k)
	}
	return redisv9.NewIntResult(int64(len(keys)), nil)
}

type countingLookup struct {
	text  string
	ok    bool
	calls int
}

func (l *countingLookup) Lookup(_ context.Context, _ string) (string, bool) {
	l.calls++
	return l.text, l.ok
}

func TestCalorieCacheReadThrough(t *testing.T) {
	ctx := context.Background()
	rdb := newMemRedis()
	inner := &countingLookup{text: "52 calories", ok: true}
	c := NewCalorieCache(rdb, inner, time.Hour)

	for i := 0; i < 3; i++ {
		text, ok := c.Lookup(ctx, "Apple")
		if !ok || text != "52 calories" {
			t.Fatalf("lookup %d: got %q %v", i, text, ok)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner lookup called %d times, want 1", inner.calls)
	}
	if rdb.ttls["produce:calories:apple"] != time.Hour {
		t.Errorf("ttl = %v", rdb.ttls["produce:calories:apple"])
	}

	if err := c.Delete(ctx, "APPLE"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	c.Lookup(ctx, "apple")
	if inner.calls != 2 {
		t.Errorf("expected a miss after delete, inner calls = %d", inner.calls)
	}
}

func TestCalorieCacheDoesNotStoreMisses(t *testing.T) {
	rdb := newMemRedis()
	inner := &countingLookup{}
	c := NewCalorieCache(rdb, inner, 0)

	if _, ok := c.Lookup(context.Background(), "Kiwi"); ok {
		t.Fatal("expected no value")
	}
	if len(rdb.data) != 0 {
		t.Errorf("miss was cached: %v", rdb.data)
	}
}

func TestCalorieCacheRedisDown(t *testing.T) {
	rdb := newMemRedis()
	rdb.err = errors.New("connection refused")
	inner := &countingLookup{text: "41 calories", ok: true}
	c := NewCalorieCache(rdb, inner, time.Minute)

	text, ok := c.Lookup(context.Background(), "Carrot")
	if !ok || text != "41 calories" {
		t.Fatalf("expected fallthrough to inner lookup, got %q %v", text, ok)
	}
}
