package services

import (
	"context"
	"time"

	"github.com/weekplanner/core/internal/application/state"
	"github.com/weekplanner/core/internal/infrastructure/logger"
	"github.com/weekplanner/core/internal/ports"
)

// RetentionService drops completed tasks once their completion age reaches the
// retention window. It sweeps every known board and purges the durable store
// so evicted tasks do not come back on the next load.
type RetentionService struct {
	taskRepo ports.TaskRepository
	cache    ports.TaskCache
	boards   *state.Manager
	window   time.Duration
	interval time.Duration
	logger   *logger.Logger
}

// NewRetentionService creates a new retention service
func NewRetentionService(
	taskRepo ports.TaskRepository,
	cache ports.TaskCache,
	boards *state.Manager,
	window, interval time.Duration,
	log *logger.Logger,
) *RetentionService {
	return &RetentionService{
		taskRepo: taskRepo,
		cache:    cache,
		boards:   boards,
		window:   window,
		interval: interval,
		logger:   log,
	}
}

// Run sweeps once immediately and then on every tick until the context ends.
func (s *RetentionService) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep evicts expired tasks from every board and purges them from the store.
func (s *RetentionService) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	cutoff := now.Add(-s.window)

	s.boards.Range(func(userID string, b *state.Board) {
		if !b.Loaded() {
			return
		}

		evicted := b.Sweep(now, s.window)
		purged, err := s.taskRepo.PurgeCompletedBefore(ctx, userID, cutoff)
		if err != nil {
			s.logger.Errorw("retention purge failed", "user_id", userID, "error", err)
			return
		}

		if len(evicted) > 0 || purged > 0 {
			s.cache.Invalidate(ctx, userID)
			s.logger.Infow("retention sweep",
				"user_id", userID,
				"evicted", len(evicted),
				"purged", purged,
			)
		}
	})
}
