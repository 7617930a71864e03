package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickethelp/repair-service/internal/domain"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})
	return client
}

func TestStatusCache_RoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	cache := NewStatusCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, domain.DefaultStatuses()))
	statuses, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, statuses, 6)
	assert.Equal(t, domain.StatusCodeClosed, statuses[5].Code)

	require.NoError(t, cache.Invalidate(ctx))
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisPublish(t *testing.T) {
	client := setupTestRedis(t)
	r := &Redis{Client: client}
	ctx := context.Background()

	sub := client.Subscribe(ctx, "tickets:test")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, r.Publish(ctx, "tickets:test", []byte(`{"type":"ticket_created"}`)))
	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ticket_created"}`, msg.Payload)
}
