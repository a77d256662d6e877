package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/weekplanner/core/internal/application/state"
	"github.com/weekplanner/core/internal/domain/entities"
	"github.com/weekplanner/core/internal/infrastructure/logger"
	"github.com/weekplanner/core/internal/ports"
)

// CategoryService implements the category operations, including the built-in
// seeding of a fresh store.
type CategoryService struct {
	categoryRepo ports.CategoryRepository
	taskRepo     ports.TaskRepository
	cache        ports.TaskCache
	boards       *state.Manager
	validator    *validator.Validate
	logger       *logger.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(
	categoryRepo ports.CategoryRepository,
	taskRepo ports.TaskRepository,
	cache ports.TaskCache,
	boards *state.Manager,
	log *logger.Logger,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		taskRepo:     taskRepo,
		cache:        cache,
		boards:       boards,
		validator:    validator.New(),
		logger:       log,
	}
}

// List returns the principal's categories, seeding the defaults when the store
// is empty.
func (s *CategoryService) List(ctx context.Context, userID string) ([]entities.Category, error) {
	categories, err := s.categoryRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if len(categories) > 0 {
		return categories, nil
	}

	for _, c := range entities.DefaultCategories() {
		c := c
		if err := s.categoryRepo.Create(ctx, userID, &c); err != nil {
			return nil, fmt.Errorf("seed default categories: %w", err)
		}
		categories = append(categories, c)
	}

	s.logger.Infow("seeded default categories", "user_id", userID, "count", len(categories))
	return categories, nil
}

// Create adds a category.
func (s *CategoryService) Create(ctx context.Context, userID string, req ports.CreateCategoryRequest) (*entities.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	category := entities.Category{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		Color:     req.Color,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.categoryRepo.Create(ctx, userID, &category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.Infow("category created", "user_id", userID, "category_id", category.ID)
	return &category, nil
}

// Delete removes a category and reassigns its tasks to the first remaining
// one. The last category cannot be deleted.
func (s *CategoryService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	categories, err := s.categoryRepo.List(ctx, userID)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}

	var found bool
	var fallback *entities.Category
	for i := range categories {
		if categories[i].ID == id {
			found = true
			continue
		}
		if fallback == nil {
			fallback = &categories[i]
		}
	}
	if !found {
		return entities.ErrCategoryNotFound
	}
	if fallback == nil {
		return entities.ErrLastCategory
	}

	moved, err := s.categoryRepo.ReassignTasks(ctx, userID, id, fallback.ID)
	if err != nil {
		return fmt.Errorf("reassign tasks: %w", err)
	}

	if _, err := s.categoryRepo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	// The board's copies still point at the deleted category.
	if moved > 0 {
		if tasks, err := s.taskRepo.List(ctx, userID); err == nil {
			s.boards.Board(userID).Replace(tasks)
		}
		s.cache.Invalidate(ctx, userID)
	}

	s.logger.Infow("category deleted", "user_id", userID, "category_id", id, "tasks_reassigned", moved)
	return nil
}
