package disambiguation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/models"
)

// EntityCache remembers which canonical entity a match key resolved to.
type EntityCache interface {
	Get(ctx context.Context, key graph.EntityKey) (*models.CanonicalEntity, error)
	Set(ctx context.Context, key graph.EntityKey, entity models.CanonicalEntity) error
}

// KeyValueStore is the subset of the redis client the cache uses.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// RedisEntityCache stores resolved entities as JSON under fern:entity:{tenant}:{type}:{match key}.
type RedisEntityCache struct {
	store KeyValueStore
	ttl   time.Duration
}

// NewRedisEntityCache creates a cache whose entries expire after ttl. Zero ttl keeps entries forever.
func NewRedisEntityCache(store KeyValueStore, ttl time.Duration) *RedisEntityCache {
	return &RedisEntityCache{store: store, ttl: ttl}
}

func cacheKey(key graph.EntityKey) string {
	return fmt.Sprintf("fern:entity:%s:%s:%s", key.TenantID, key.Type, key.MatchKey)
}

// Get returns nil when key is not cached.
func (c *RedisEntityCache) Get(ctx context.Context, key graph.EntityKey) (*models.CanonicalEntity, error) {
	raw, found, err := c.store.Get(ctx, cacheKey(key))
	if err != nil {
		return nil, fmt.Errorf("failed to read entity cache: %w", err)
	}
	if !found {
		return nil, nil
	}
	var entity models.CanonicalEntity
	if err := json.Unmarshal([]byte(raw), &entity); err != nil {
		return nil, fmt.Errorf("failed to decode cached entity: %w", err)
	}
	return &entity, nil
}

func (c *RedisEntityCache) Set(ctx context.Context, key graph.EntityKey, entity models.CanonicalEntity) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, cacheKey(key), string(data), c.ttl); err != nil {
		return fmt.Errorf("failed to write entity cache: %w", err)
	}
	return nil
}
