package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weekplanner/core/internal/domain/entities"
	"github.com/weekplanner/core/internal/infrastructure/logger"
)

func newTestCache(t *testing.T) (*TaskCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, 5*time.Minute, logger.NewNop()), mr
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	date := "2026-01-06"
	tasks := []entities.Task{
		{ID: uuid.New(), Title: "cached", DayOfWeek: entities.DayTuesday, ScheduledDate: &date, Position: 3},
	}

	_, ok := c.Get(ctx, "alice")
	assert.False(t, ok)

	c.Set(ctx, "alice", tasks)

	got, ok := c.Get(ctx, "alice")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, tasks[0].ID, got[0].ID)
	assert.Equal(t, 3, got[0].Position)
}

func TestCacheIsPerPrincipal(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "alice", []entities.Task{{ID: uuid.New(), DayOfWeek: entities.DayInbox}})

	_, ok := c.Get(ctx, "bob")
	assert.False(t, ok)
}

func TestCacheInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "alice", []entities.Task{{ID: uuid.New(), DayOfWeek: entities.DayInbox}})
	c.Invalidate(ctx, "alice")

	_, ok := c.Get(ctx, "alice")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "alice", []entities.Task{{ID: uuid.New(), DayOfWeek: entities.DayInbox}})
	mr.FastForward(6 * time.Minute)

	_, ok := c.Get(ctx, "alice")
	assert.False(t, ok)
}

func TestCacheDropsCorruptPayload(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(keyPrefix+"alice", "{not json"))

	_, ok := c.Get(ctx, "alice")
	assert.False(t, ok)
	assert.False(t, mr.Exists(keyPrefix+"alice"))
}

func TestNoopCache(t *testing.T) {
	var c Noop
	ctx := context.Background()

	c.Set(ctx, "alice", []entities.Task{{ID: uuid.New()}})
	_, ok := c.Get(ctx, "alice")
	assert.False(t, ok)
	c.Invalidate(ctx, "alice")
}
