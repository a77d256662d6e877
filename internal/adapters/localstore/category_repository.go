package localstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weekplanner/core/internal/domain/entities"
)

// CategoryRepository implements ports.CategoryRepository on the local store.
type CategoryRepository struct {
	store *Store
	tasks *TaskRepository
	mu    sync.Mutex
}

// NewCategoryRepository creates a category repository over the store. The task
// repository is needed for reassignment on delete.
func NewCategoryRepository(store *Store, tasks *TaskRepository) *CategoryRepository {
	return &CategoryRepository{store: store, tasks: tasks}
}

func (r *CategoryRepository) List(ctx context.Context, _ string) ([]entities.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.loadCategories(ctx)
}

func (r *CategoryRepository) Create(ctx context.Context, _ string, category *entities.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	categories, err := r.store.loadCategories(ctx)
	if err != nil {
		return err
	}

	categories = append(categories, *category)
	return r.store.saveCategories(ctx, categories)
}

func (r *CategoryRepository) Delete(ctx context.Context, _ string, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	categories, err := r.store.loadCategories(ctx)
	if err != nil {
		return false, err
	}

	for i := range categories {
		if categories[i].ID != id {
			continue
		}
		categories = append(categories[:i], categories[i+1:]...)
		if err := r.store.saveCategories(ctx, categories); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

func (r *CategoryRepository) ReassignTasks(ctx context.Context, userID string, from, to uuid.UUID) (int64, error) {
	r.tasks.mu.Lock()
	defer r.tasks.mu.Unlock()

	tasks, err := r.store.loadTasks(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	var moved int64
	for i := range tasks {
		if tasks[i].CategoryID != from {
			continue
		}
		tasks[i].CategoryID = to
		tasks[i].UpdatedAt = now
		moved++
	}

	if moved == 0 {
		return 0, nil
	}

	if err := r.store.saveTasks(ctx, tasks); err != nil {
		return 0, err
	}

	return moved, nil
}
