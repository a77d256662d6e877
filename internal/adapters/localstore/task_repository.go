package localstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weekplanner/core/internal/domain/entities"
	"github.com/weekplanner/core/internal/ports"
)

// TaskRepository implements ports.TaskRepository on the local store. The
// principal id is accepted for interface compatibility and ignored.
type TaskRepository struct {
	store *Store
	mu    sync.Mutex
}

// NewTaskRepository creates a task repository over the store.
func NewTaskRepository(store *Store) *TaskRepository {
	return &TaskRepository{store: store}
}

func (r *TaskRepository) List(ctx context.Context, _ string) ([]entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.store.loadTasks(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Position < tasks[j].Position
	})

	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, _ string, task *entities.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.store.loadTasks(ctx)
	if err != nil {
		return err
	}

	tasks = append(tasks, *task)
	return r.store.saveTasks(ctx, tasks)
}

func (r *TaskRepository) Update(ctx context.Context, _ string, id uuid.UUID, upd ports.TaskUpdate) (*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.store.loadTasks(ctx)
	if err != nil {
		return nil, err
	}

	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		upd.Apply(&tasks[i])
		tasks[i].UpdatedAt = time.Now().UTC()
		if err := r.store.saveTasks(ctx, tasks); err != nil {
			return nil, err
		}
		merged := tasks[i]
		return &merged, nil
	}

	return nil, entities.ErrTaskNotFound
}

func (r *TaskRepository) Delete(ctx context.Context, _ string, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.store.loadTasks(ctx)
	if err != nil {
		return false, err
	}

	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		tasks = append(tasks[:i], tasks[i+1:]...)
		if err := r.store.saveTasks(ctx, tasks); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

func (r *TaskRepository) PurgeCompletedBefore(ctx context.Context, _ string, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.store.loadTasks(ctx)
	if err != nil {
		return 0, err
	}

	kept := tasks[:0]
	var purged int64
	for _, t := range tasks {
		if t.IsCompleted && t.CompletedAt != nil && !t.CompletedAt.After(cutoff) {
			purged++
			continue
		}
		kept = append(kept, t)
	}

	if purged == 0 {
		return 0, nil
	}

	if err := r.store.saveTasks(ctx, kept); err != nil {
		return 0, err
	}

	return purged, nil
}

func (r *TaskRepository) UpdatePositions(ctx context.Context, _ string, changed []entities.Task) error {
	if len(changed) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.store.loadTasks(ctx)
	if err != nil {
		return err
	}

	byID := make(map[uuid.UUID]entities.Task, len(changed))
	for _, t := range changed {
		byID[t.ID] = t
	}

	now := time.Now().UTC()
	for i := range tasks {
		c, ok := byID[tasks[i].ID]
		if !ok {
			continue
		}
		tasks[i].DayOfWeek = c.DayOfWeek
		tasks[i].ScheduledDate = c.ScheduledDate
		tasks[i].Position = c.Position
		tasks[i].UpdatedAt = now
	}

	return r.store.saveTasks(ctx, tasks)
}
