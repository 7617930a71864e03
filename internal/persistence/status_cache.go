package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tickethelp/repair-service/internal/domain"
)

const statusCacheKey = "catalog:statuses"

// StatusCache keeps the status catalog in Redis for a fixed TTL.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusCache builds a cache over client.
func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	return &StatusCache{client: client, ttl: ttl}
}

// Get returns the cached catalog; ok is false on a miss.
func (c *StatusCache) Get(ctx context.Context) ([]domain.Status, bool, error) {
	raw, err := c.client.Get(ctx, statusCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var statuses []domain.Status
	if err := json.Unmarshal(raw, &statuses); err != nil {
		return nil, false, err
	}
	return statuses, true, nil
}

// Set stores the catalog.
func (c *StatusCache) Set(ctx context.Context, statuses []domain.Status) error {
	raw, err := json.Marshal(statuses)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statusCacheKey, raw, c.ttl).Err()
}

// Invalidate drops the cached catalog.
func (c *StatusCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, statusCacheKey).Err()
}
