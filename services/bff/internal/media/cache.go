package media

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Cache stores resolved sources. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisCache{Client: redis.NewClient(opt), TTL: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key, b, c.TTL).Err()
}

func (c *RedisCache) Close() error { return c.Client.Close() }

type cacheItem struct {
	val       []byte
	expiresAt time.Time
}

// TTLCache is an in-process Cache with per-entry expiry and optional NATS
// invalidation: a message carrying a key drops it, "ALL" or empty drops all.
type TTLCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	ttl   time.Duration
	now   func() time.Time
}

func NewTTLCache(ttl time.Duration, nc *nats.Conn, subj string) *TTLCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &TTLCache{
		items: make(map[string]cacheItem),
		ttl:   ttl,
		now:   time.Now,
	}
	if nc != nil && subj != "" {
		_, _ = nc.Subscribe(subj, func(m *nats.Msg) { c.Invalidate(string(m.Data)) })
	}
	return c
}

// Invalidate drops key, or every entry for "" and "ALL".
func (c *TTLCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key == "" || strings.EqualFold(key, "ALL") {
		c.items = make(map[string]cacheItem)
		return
	}
	delete(c.items, key)
}

func (c *TTLCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if c.now().After(it.expiresAt) {
		c.mu.Lock()
		if cur, ok2 := c.items[key]; ok2 && c.now().After(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(it.val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *TTLCache) Set(_ context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items[key] = cacheItem{val: b, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}
