package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/weekplanner/core/internal/application/state"
	"github.com/weekplanner/core/internal/domain/board"
	"github.com/weekplanner/core/internal/domain/entities"
	"github.com/weekplanner/core/internal/infrastructure/logger"
	"github.com/weekplanner/core/internal/ports"
)

// workNotesSeparator joins an existing notes body with an appended work note.
const workNotesSeparator = "\n\n---\n"

// persistTimeout bounds the background write that follows an optimistic move.
const persistTimeout = 10 * time.Second

// TaskService implements the task operations. Reads serve from the in-memory
// board once primed; writes update the board first and the durable store
// second.
type TaskService struct {
	taskRepo     ports.TaskRepository
	categoryRepo ports.CategoryRepository
	cache        ports.TaskCache
	boards       *state.Manager
	validator    *validator.Validate
	logger       *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(
	taskRepo ports.TaskRepository,
	categoryRepo ports.CategoryRepository,
	cache ports.TaskCache,
	boards *state.Manager,
	log *logger.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		categoryRepo: categoryRepo,
		cache:        cache,
		boards:       boards,
		validator:    validator.New(),
		logger:       log,
	}
}

// List returns the principal's tasks, priming the board from cache or store on
// first access.
func (s *TaskService) List(ctx context.Context, userID string) ([]entities.Task, error) {
	b := s.boards.Board(userID)
	if b.Loaded() {
		return b.Snapshot(), nil
	}

	if tasks, ok := s.cache.Get(ctx, userID); ok {
		b.Replace(tasks)
		return b.Snapshot(), nil
	}

	tasks, err := s.taskRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	b.Replace(tasks)
	s.cache.Set(ctx, userID, tasks)
	return b.Snapshot(), nil
}

// ListFiltered returns the principal's tasks narrowed by the filter.
func (s *TaskService) ListFiltered(ctx context.Context, userID string, f ports.TaskFilter) ([]entities.Task, error) {
	tasks, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if f.Empty() {
		return tasks, nil
	}

	matched := []entities.Task{}
	for i := range tasks {
		if f.Match(&tasks[i]) {
			matched = append(matched, tasks[i])
		}
	}
	return matched, nil
}

// Get returns a single task by id.
func (s *TaskService) Get(ctx context.Context, userID string, id uuid.UUID) (*entities.Task, error) {
	tasks, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], nil
		}
	}

	return nil, entities.ErrTaskNotFound
}

// Create adds a task. Unspecified urgency defaults to medium, an unspecified
// category to the first existing one, and the task lands at the end of its
// column.
func (s *TaskService) Create(ctx context.Context, userID string, req ports.CreateTaskRequest) (*entities.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, entities.ErrEmptyTitle
	}

	tasks, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := entities.Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Urgency:     req.Urgency,
		DayOfWeek:   entities.DayInbox,
		Notes:       req.Notes,
		Attachments: req.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Urgency == "" {
		task.Urgency = entities.UrgencyMedium
	}

	categoryID, err := s.resolveCategory(ctx, userID, req.Category)
	if err != nil {
		return nil, err
	}
	task.CategoryID = categoryID

	switch {
	case req.ScheduledDate != nil:
		if err := task.Schedule(*req.ScheduledDate); err != nil {
			return nil, err
		}
	case req.DayOfWeek != "" && req.DayOfWeek != entities.DayInbox:
		// A weekday without a date pins the task to that day of the current
		// week.
		week := board.WeekOf(now)
		for _, col := range week.Columns {
			if col.Day == req.DayOfWeek {
				if err := task.Schedule(col.ID); err != nil {
					return nil, err
				}
				break
			}
		}
	}
	task.Position = board.EndPosition(tasks, task.ColumnID())

	if err := s.taskRepo.Create(ctx, userID, &task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.boards.Board(userID).Upsert(task)
	s.cache.Invalidate(ctx, userID)

	s.logger.Infow("task created", "user_id", userID, "task_id", task.ID, "column", task.ColumnID())
	return &task, nil
}

// Update applies a partial edit to a task. A missing id is reported as
// entities.ErrTaskNotFound; an edit never creates.
func (s *TaskService) Update(ctx context.Context, userID string, id uuid.UUID, req ports.UpdateTaskRequest) (*entities.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, entities.ErrEmptyTitle
	}

	upd := ports.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Urgency:     req.Urgency,
		Notes:       req.Notes,
		Attachments: req.Attachments,
	}
	if req.Category != nil {
		categoryID, err := uuid.Parse(*req.Category)
		if err != nil {
			return nil, fmt.Errorf("invalid category id: %w", err)
		}
		upd.CategoryID = &categoryID
	}
	switch {
	case req.ToInbox:
		inbox := entities.DayInbox
		upd.DayOfWeek = &inbox
		upd.ClearScheduledDate = true
	case req.ScheduledDate != nil:
		day, err := entities.WeekdayOf(*req.ScheduledDate)
		if err != nil {
			return nil, err
		}
		upd.DayOfWeek = &day
		upd.ScheduledDate = req.ScheduledDate
	}

	return s.applyUpdate(ctx, userID, id, upd)
}

// Complete marks a task done, stamping the completion time.
func (s *TaskService) Complete(ctx context.Context, userID string, id uuid.UUID) (*entities.Task, error) {
	done := true
	now := time.Now().UTC()
	return s.applyUpdate(ctx, userID, id, ports.TaskUpdate{
		IsCompleted: &done,
		CompletedAt: &now,
	})
}

// Restore brings a completed task back to the active set, clearing the
// completion timestamp so the retention clock stops.
func (s *TaskService) Restore(ctx context.Context, userID string, id uuid.UUID) (*entities.Task, error) {
	done := false
	return s.applyUpdate(ctx, userID, id, ports.TaskUpdate{
		IsCompleted:      &done,
		ClearCompletedAt: true,
	})
}

// AppendWorkNotes merges a work-session note into the task's notes, separated
// from the existing body by a rule.
func (s *TaskService) AppendWorkNotes(ctx context.Context, userID string, id uuid.UUID, req ports.WorkNotesRequest) (*entities.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	task, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	merged := req.Notes
	if task.Notes != "" {
		merged = task.Notes + workNotesSeparator + req.Notes
	}

	return s.applyUpdate(ctx, userID, id, ports.TaskUpdate{Notes: &merged})
}

// Delete removes a task permanently, reporting whether it existed.
func (s *TaskService) Delete(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	deleted, err := s.taskRepo.Delete(ctx, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}

	s.boards.Board(userID).Remove(id)
	s.cache.Invalidate(ctx, userID)

	if deleted {
		s.logger.Infow("task deleted", "user_id", userID, "task_id", id)
	}
	return deleted, nil
}

// History returns the completed tasks still inside the retention window,
// newest completion first.
func (s *TaskService) History(ctx context.Context, userID string) ([]entities.Task, error) {
	tasks, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	done := []entities.Task{}
	for _, t := range tasks {
		if t.IsCompleted {
			done = append(done, t)
		}
	}
	sort.SliceStable(done, func(i, j int) bool { return later(done[i], done[j]) })

	return done, nil
}

func later(a, b entities.Task) bool {
	switch {
	case a.CompletedAt == nil:
		return false
	case b.CompletedAt == nil:
		return true
	default:
		return a.CompletedAt.After(*b.CompletedAt)
	}
}

// Move relocates a task to a column and index. The board is updated
// immediately; the durable write runs in the background and its outcome is
// reported through the returned mutation. A failed write never rolls the board
// back.
func (s *TaskService) Move(ctx context.Context, userID string, id uuid.UUID, req ports.MoveTaskRequest) ([]entities.Task, *state.Mutation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, fmt.Errorf("validation failed: %w", err)
	}

	tasks, err := s.List(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	week := board.WeekOf(time.Now().UTC())
	if req.WeekStart != nil {
		week, err = board.WeekStarting(*req.WeekStart)
		if err != nil {
			return nil, nil, err
		}
	}

	result, err := board.Move(tasks, id, req.ColumnID, req.Index, week)
	if err != nil {
		return nil, nil, err
	}

	mut := state.NewMutation("move")
	if result.NoOp {
		mut.Confirm()
		return result.Tasks, mut, nil
	}

	b := s.boards.Board(userID)
	if err := b.Apply(result.Tasks); err != nil {
		return nil, nil, err
	}
	s.cache.Invalidate(ctx, userID)

	go s.persistMove(userID, result.Changed, mut)

	return result.Tasks, mut, nil
}

func (s *TaskService) persistMove(userID string, changed []entities.Task, mut *state.Mutation) {
	mut.Persisting()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.taskRepo.UpdatePositions(ctx, userID, changed); err != nil {
		mut.Fail()
		s.logger.LogMutation(userID, mut.Op, mut.Phase().String(), err)
		return
	}

	mut.Confirm()
	s.logger.LogMutation(userID, mut.Op, mut.Phase().String(), nil)
}

func (s *TaskService) applyUpdate(ctx context.Context, userID string, id uuid.UUID, upd ports.TaskUpdate) (*entities.Task, error) {
	merged, err := s.taskRepo.Update(ctx, userID, id, upd)
	if err != nil {
		return nil, err
	}

	s.boards.Board(userID).Upsert(*merged)
	s.cache.Invalidate(ctx, userID)
	return merged, nil
}

func (s *TaskService) resolveCategory(ctx context.Context, userID, raw string) (uuid.UUID, error) {
	if raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid category id: %w", err)
		}
		return id, nil
	}

	categories, err := s.categoryRepo.List(ctx, userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve default category: %w", err)
	}
	if len(categories) == 0 {
		return uuid.Nil, entities.ErrCategoryNotFound
	}

	return categories[0].ID, nil
}
