package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/weekplanner/core/internal/domain/entities"
	"github.com/weekplanner/core/internal/ports"
)

const taskColumns = `id, title, description, urgency, category_id, day_of_week,
	scheduled_date, position, notes, attachments, is_completed, completed_at,
	deleted_at, created_at, updated_at`

// TaskRepositoryImpl implements the TaskRepository interface on postgres.
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) List(ctx context.Context, userID string) ([]entities.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY position ASC, created_at ASC`

	tasks := []entities.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, userID); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, userID string, task *entities.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, title, description, urgency, category_id,
			day_of_week, scheduled_date, position, notes, attachments,
			is_completed, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.ExecContext(ctx, query,
		task.ID, userID, task.Title, task.Description, task.Urgency,
		task.CategoryID, task.DayOfWeek, task.ScheduledDate, task.Position,
		task.Notes, task.Attachments, task.IsCompleted, task.CompletedAt,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

// Update merges the partial mutation inside a transaction so two concurrent
// edits never interleave their read-modify-write cycles on the same row.
func (r *TaskRepositoryImpl) Update(ctx context.Context, userID string, id uuid.UUID, upd ports.TaskUpdate) (*entities.Task, error) {
	var merged entities.Task

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			SELECT ` + taskColumns + `
			FROM tasks
			WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
			FOR UPDATE`

		if err := tx.GetContext(ctx, &merged, query, id, userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return entities.ErrTaskNotFound
			}
			return fmt.Errorf("get task for update: %w", err)
		}

		upd.Apply(&merged)
		merged.UpdatedAt = time.Now().UTC()

		update := `
			UPDATE tasks
			SET title = $1, description = $2, urgency = $3, category_id = $4,
				day_of_week = $5, scheduled_date = $6, position = $7, notes = $8,
				attachments = $9, is_completed = $10, completed_at = $11,
				updated_at = $12
			WHERE id = $13 AND user_id = $14`

		_, err := tx.ExecContext(ctx, update,
			merged.Title, merged.Description, merged.Urgency, merged.CategoryID,
			merged.DayOfWeek, merged.ScheduledDate, merged.Position, merged.Notes,
			merged.Attachments, merged.IsCompleted, merged.CompletedAt,
			merged.UpdatedAt, id, userID,
		)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &merged, nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete task rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *TaskRepositoryImpl) PurgeCompletedBefore(ctx context.Context, userID string, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM tasks
		WHERE user_id = $1 AND is_completed = TRUE
			AND completed_at IS NOT NULL AND completed_at <= $2`

	result, err := r.db.ExecContext(ctx, query, userID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge completed tasks: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge rows affected: %w", err)
	}

	return rows, nil
}

// UpdatePositions rewrites the column placement of several tasks in one
// transaction. Used to persist the outcome of a move.
func (r *TaskRepositoryImpl) UpdatePositions(ctx context.Context, userID string, tasks []entities.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE tasks
			SET day_of_week = $1, scheduled_date = $2, position = $3, updated_at = $4
			WHERE id = $5 AND user_id = $6`

		now := time.Now().UTC()
		for i := range tasks {
			t := &tasks[i]
			if _, err := tx.ExecContext(ctx, query,
				t.DayOfWeek, t.ScheduledDate, t.Position, now, t.ID, userID,
			); err != nil {
				return fmt.Errorf("update position for task %s: %w", t.ID, err)
			}
		}

		return nil
	})
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("rollback transaction: %v (original error: %w)", rollbackErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
