package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/weekplanner/core/internal/application/services"
	"github.com/weekplanner/core/internal/domain/board"
	"github.com/weekplanner/core/internal/domain/entities"
	"github.com/weekplanner/core/internal/infrastructure/logger"
	"github.com/weekplanner/core/internal/ports"
)

// DeleteResponse reports whether a delete removed anything.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// MoveResponse returns the full task set after a move together with the
// persistence phase of the mutation at response time.
type MoveResponse struct {
	Tasks []entities.Task `json:"tasks"`
	Phase string          `json:"phase"`
}

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService *services.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// List returns the principal's tasks, optionally narrowed by the urgency,
// category, q, week and nav query parameters
func (h *TaskHandler) List(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	filter := ports.TaskFilter{Search: c.QueryParam("q")}
	if u := c.QueryParam("urgency"); u != "" {
		filter.Urgency = entities.Urgency(u)
		if !filter.Urgency.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid urgency filter")
		}
	}
	if raw := c.QueryParam("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid category filter")
		}
		filter.Category = id
	}
	if raw, nav := c.QueryParam("week"), c.QueryParam("nav"); raw != "" || nav != "" {
		week := board.WeekOf(time.Now().UTC())
		if raw != "" {
			parsed, err := board.WeekStarting(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid week filter")
			}
			week = parsed
		}
		switch nav {
		case "":
		case "next":
			week = week.Next()
		case "prev":
			week = week.Prev()
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid week navigation")
		}
		filter.Week = &week
	}

	tasks, err := h.taskService.ListFiltered(c.Request().Context(), userID, filter)
	if err != nil {
		h.logger.Error("List tasks failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load tasks")
	}

	return c.JSON(http.StatusOK, tasks)
}

// Get returns a single task
func (h *TaskHandler) Get(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.Get(c.Request().Context(), userID, id)
	if err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		h.logger.Error("Get task failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load task")
	}

	return c.JSON(http.StatusOK, task)
}

// Create adds a task
func (h *TaskHandler) Create(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.Create(c.Request().Context(), userID, req)
	if err != nil {
		if errors.Is(err, entities.ErrEmptyTitle) {
			return echo.NewHTTPError(http.StatusBadRequest, "Title must not be empty")
		}
		h.logger.Error("Create task failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, task)
}

// Update applies a partial edit. Editing a missing task is a silent no-op.
func (h *TaskHandler) Update(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.Update(c.Request().Context(), userID, id, req)
	if err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return c.NoContent(http.StatusNoContent)
		}
		if errors.Is(err, entities.ErrEmptyTitle) {
			return echo.NewHTTPError(http.StatusBadRequest, "Title must not be empty")
		}
		h.logger.Error("Update task failed", "error", err, "user_id", userID, "task_id", id)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, task)
}

// Delete removes a task permanently
func (h *TaskHandler) Delete(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	deleted, err := h.taskService.Delete(c.Request().Context(), userID, id)
	if err != nil {
		h.logger.Error("Delete task failed", "error", err, "user_id", userID, "task_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete task")
	}

	return c.JSON(http.StatusOK, DeleteResponse{Deleted: deleted})
}

// Move relocates a task to a column and index
func (h *TaskHandler) Move(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	var req ports.MoveTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tasks, mut, err := h.taskService.Move(c.Request().Context(), userID, id, req)
	if err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		if errors.Is(err, board.ErrUnknownColumn) {
			return echo.NewHTTPError(http.StatusBadRequest, "Unknown column")
		}
		h.logger.Error("Move task failed", "error", err, "user_id", userID, "task_id", id)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, MoveResponse{Tasks: tasks, Phase: mut.Phase().String()})
}

// Complete marks a task done
func (h *TaskHandler) Complete(c echo.Context) error {
	return h.completion(c, true)
}

// Restore brings a completed task back
func (h *TaskHandler) Restore(c echo.Context) error {
	return h.completion(c, false)
}

func (h *TaskHandler) completion(c echo.Context, done bool) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	var task *entities.Task
	if done {
		task, err = h.taskService.Complete(c.Request().Context(), userID, id)
	} else {
		task, err = h.taskService.Restore(c.Request().Context(), userID, id)
	}
	if err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		h.logger.Error("Completion toggle failed", "error", err, "user_id", userID, "task_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task")
	}

	return c.JSON(http.StatusOK, task)
}

// WorkNotes appends a work-session note to the task
func (h *TaskHandler) WorkNotes(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	var req ports.WorkNotesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.AppendWorkNotes(c.Request().Context(), userID, id, req)
	if err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		h.logger.Error("Work notes append failed", "error", err, "user_id", userID, "task_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task")
	}

	return c.JSON(http.StatusOK, task)
}

// History returns completed tasks inside the retention window
func (h *TaskHandler) History(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	tasks, err := h.taskService.History(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("History failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load history")
	}

	return c.JSON(http.StatusOK, tasks)
}

func parseTaskID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}
	return id, nil
}
