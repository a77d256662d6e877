// Package cache provides an optional redis read-through cache for task lists.
// A cache miss or a redis failure degrades to the durable store; the cache is
// never authoritative.
package cache

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/weekplanner/core/internal/domain/entities"
	"github.com/weekplanner/core/internal/infrastructure/logger"
	"github.com/weekplanner/core/internal/ports"
)

const keyPrefix = "planner:tasks:"

// TaskCache caches per-principal task lists in redis.
type TaskCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// New creates a task cache over an established redis client.
func New(client *redis.Client, ttl time.Duration, log *logger.Logger) *TaskCache {
	return &TaskCache{client: client, ttl: ttl, logger: log}
}

func (c *TaskCache) Get(ctx context.Context, userID string) ([]entities.Task, bool) {
	raw, err := c.client.Get(ctx, keyPrefix+userID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debugw("task cache read failed", "user_id", userID, "error", err)
		}
		return nil, false
	}

	var tasks []entities.Task
	if err := sonic.Unmarshal(raw, &tasks); err != nil {
		c.logger.Warnw("task cache held undecodable payload", "user_id", userID, "error", err)
		c.Invalidate(ctx, userID)
		return nil, false
	}

	return tasks, true
}

func (c *TaskCache) Set(ctx context.Context, userID string, tasks []entities.Task) {
	raw, err := sonic.Marshal(tasks)
	if err != nil {
		c.logger.Warnw("task cache encode failed", "user_id", userID, "error", err)
		return
	}

	if err := c.client.Set(ctx, keyPrefix+userID, raw, c.ttl).Err(); err != nil {
		c.logger.Debugw("task cache write failed", "user_id", userID, "error", err)
	}
}

func (c *TaskCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, keyPrefix+userID).Err(); err != nil {
		c.logger.Debugw("task cache invalidate failed", "user_id", userID, "error", err)
	}
}

// Noop is the cache used when redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]entities.Task, bool) { return nil, false }
func (Noop) Set(context.Context, string, []entities.Task)        {}
func (Noop) Invalidate(context.Context, string)                  {}

var _ ports.TaskCache = (*TaskCache)(nil)
var _ ports.TaskCache = Noop{}
