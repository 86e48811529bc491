package algorithm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"mpi-linkage/internal/infrastructure/database/redis"
)

// ErrNotFound is returned when a label has no stored Config.
var ErrNotFound = errors.New("algorithm: label not found")

const cacheKeyPrefix = "mpi:algorithm:"

// Store persists validated Config values, keyed by label, and never allows
// mutation of an already-stored label (§4.8: "immutable once stored;
// updating is a create-new-label operation").
type Store interface {
	Save(ctx context.Context, cfg *Config) error
	Load(ctx context.Context, label string) (*Config, error)
}

// Cache is a read-mostly, Redis-backed Store: Save writes through to Redis
// and the in-process snapshot; Load checks the in-process snapshot first
// and falls back to Redis on miss, so the shared mutable state the
// concurrency model allows (§5 "a read-only algorithm cache, refreshed on
// miss") never requires a lock on the hot read path.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration

	snapshot sync.Map // label -> *Config
}

// NewCache wires a Redis-backed algorithm cache. ttl of zero means entries
// never expire in Redis (the in-process snapshot has no expiry either way).
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{redis: client, ttl: ttl}
}

func (c *Cache) Save(ctx context.Context, cfg *Config) error {
	if _, exists := c.snapshot.Load(cfg.Label); exists {
		return fmt.Errorf("algorithm: label %q already exists and is immutable", cfg.Label)
	}
	if existing, err := c.loadFromRedis(ctx, cfg.Label); err == nil && existing != nil {
		return fmt.Errorf("algorithm: label %q already exists and is immutable", cfg.Label)
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("algorithm: marshal config: %w", err)
	}
	if err := c.redis.Set(ctx, cacheKeyPrefix+cfg.Label, payload, c.ttl); err != nil {
		return fmt.Errorf("algorithm: store config: %w", err)
	}

	c.snapshot.Store(cfg.Label, cfg)
	return nil
}

func (c *Cache) Load(ctx context.Context, label string) (*Config, error) {
	if cached, ok := c.snapshot.Load(label); ok {
		return cached.(*Config), nil
	}

	cfg, err := c.loadFromRedis(ctx, label)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrNotFound
	}

	c.snapshot.Store(label, cfg)
	return cfg, nil
}

func (c *Cache) loadFromRedis(ctx context.Context, label string) (*Config, error) {
	payload, err := c.redis.Get(ctx, cacheKeyPrefix+label)
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("algorithm: load config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, fmt.Errorf("algorithm: unmarshal config %q: %w", label, err)
	}
	return &cfg, nil
}

// Labels lists every algorithm label stored in Redis under the cache's key
// prefix, by whichever process saved it — used by operational tooling,
// never by the linkage hot path.
func (c *Cache) Labels(ctx context.Context) ([]string, error) {
	keys, err := c.redis.Keys(ctx, cacheKeyPrefix+"*")
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(keys))
	for _, k := range keys {
		labels = append(labels, k[len(cacheKeyPrefix):])
	}
	return labels, nil
}
