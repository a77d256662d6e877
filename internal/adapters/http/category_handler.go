package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/weekplanner/core/internal/application/services"
	"github.com/weekplanner/core/internal/domain/entities"
	"github.com/weekplanner/core/internal/infrastructure/logger"
	"github.com/weekplanner/core/internal/ports"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService *services.CategoryService
	logger          *logger.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService *services.CategoryService, logger *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// List returns all categories, seeding defaults on first use
func (h *CategoryHandler) List(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	categories, err := h.categoryService.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("List categories failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load categories")
	}

	return c.JSON(http.StatusOK, categories)
}

// Create adds a category
func (h *CategoryHandler) Create(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req ports.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	category, err := h.categoryService.Create(c.Request().Context(), userID, req)
	if err != nil {
		h.logger.Error("Create category failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, category)
}

// Delete removes a category, reassigning its tasks
func (h *CategoryHandler) Delete(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid category ID")
	}

	if err := h.categoryService.Delete(c.Request().Context(), userID, id); err != nil {
		switch {
		case errors.Is(err, entities.ErrCategoryNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Category not found")
		case errors.Is(err, entities.ErrLastCategory):
			return echo.NewHTTPError(http.StatusConflict, "The last category cannot be deleted")
		default:
			h.logger.Error("Delete category failed", "error", err, "user_id", userID, "category_id", id)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete category")
		}
	}

	return c.NoContent(http.StatusNoContent)
}
