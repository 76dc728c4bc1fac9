package fxrate

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type memItem struct {
	table     *Table
	expiresAt time.Time
}

type memoryCache struct {
	mu    sync.RWMutex
	items map[string]memItem
	now   func() time.Time
}

// NewMemoryCache keeps tables in process. now defaults to time.Now.
func NewMemoryCache(now func() time.Time) Cache {
	if now == nil {
		now = time.Now
	}
	return &memoryCache{items: make(map[string]memItem), now: now}
}

func (c *memoryCache) Get(_ context.Context, key string) (*Table, bool, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return item.table, true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, t *Table, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = memItem{table: t, expiresAt: c.now().Add(ttl)}
	return nil
}

type redisCache struct {
	client redis.Cmdable
}

// NewRedisCache shares tables between instances through Redis.
func NewRedisCache(client redis.Cmdable) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) (*Table, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var t Table
	if err := json.Unmarshal([]byte(value), &t); err != nil {
		return nil, false, err
	}
	return &t, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, t *Table, ttl time.Duration) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, string(payload), ttl).Err()
}
