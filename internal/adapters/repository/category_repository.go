package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/weekplanner/core/internal/domain/entities"
	"github.com/weekplanner/core/internal/ports"
)

// CategoryRepositoryImpl implements the CategoryRepository interface on
// postgres.
type CategoryRepositoryImpl struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sqlx.DB) ports.CategoryRepository {
	return &CategoryRepositoryImpl{db: db}
}

func (r *CategoryRepositoryImpl) List(ctx context.Context, userID string) ([]entities.Category, error) {
	query := `
		SELECT id, name, color, created_at
		FROM categories
		WHERE user_id = $1
		ORDER BY created_at ASC`

	categories := []entities.Category{}
	if err := r.db.SelectContext(ctx, &categories, query, userID); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return categories, nil
}

func (r *CategoryRepositoryImpl) Create(ctx context.Context, userID string, category *entities.Category) error {
	query := `
		INSERT INTO categories (id, user_id, name, color, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		category.ID, userID, category.Name, category.Color, category.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}

	return nil
}

func (r *CategoryRepositoryImpl) Delete(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	query := `DELETE FROM categories WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete category rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *CategoryRepositoryImpl) ReassignTasks(ctx context.Context, userID string, from, to uuid.UUID) (int64, error) {
	query := `
		UPDATE tasks
		SET category_id = $1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $2 AND category_id = $3`

	result, err := r.db.ExecContext(ctx, query, to, userID, from)
	if err != nil {
		return 0, fmt.Errorf("reassign tasks: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reassign rows affected: %w", err)
	}

	return rows, nil
}
