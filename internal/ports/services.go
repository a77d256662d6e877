package ports

import (
	"strings"

	"github.com/google/uuid"

	"github.com/weekplanner/core/internal/domain/board"
	"github.com/weekplanner/core/internal/domain/entities"
)

// TaskFilter narrows a task listing. Zero values match everything.
type TaskFilter struct {
	Urgency  entities.Urgency
	Category uuid.UUID
	Search   string
	Week     *board.Week
}

// Empty reports whether the filter matches every task.
func (f TaskFilter) Empty() bool {
	return f.Urgency == "" && f.Category == uuid.Nil && f.Search == "" && f.Week == nil
}

// Match reports whether the task passes the filter. The search term is a
// case-insensitive substring match over title, description and notes. The week
// filter keeps tasks dated inside the week; inbox tasks are undated and show
// alongside every week, so they always pass it.
func (f TaskFilter) Match(t *entities.Task) bool {
	if f.Urgency != "" && t.Urgency != f.Urgency {
		return false
	}
	if f.Week != nil && t.DayOfWeek != entities.DayInbox {
		if t.ScheduledDate == nil {
			return false
		}
		if _, ok := f.Week.Column(*t.ScheduledDate); !ok {
			return false
		}
	}
	if f.Category != uuid.Nil && t.CategoryID != f.Category {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) &&
			!strings.Contains(strings.ToLower(t.Notes), needle) {
			return false
		}
	}
	return true
}

// CreateTaskRequest carries the fields of an explicit add operation. Identity
// and timestamps are assigned by the service.
type CreateTaskRequest struct {
	Title         string               `json:"title" validate:"required"`
	Description   string               `json:"description"`
	Urgency       entities.Urgency     `json:"urgency" validate:"omitempty,oneof=P0 P1 P2 P3"`
	Category      string               `json:"category" validate:"omitempty,uuid"`
	DayOfWeek     entities.DayOfWeek   `json:"dayOfWeek" validate:"omitempty,oneof=inbox monday tuesday wednesday thursday friday saturday sunday"`
	ScheduledDate *string              `json:"scheduledDate" validate:"omitempty,datetime=2006-01-02"`
	Notes         string               `json:"notes"`
	Attachments   entities.Attachments `json:"attachments" validate:"omitempty,dive"`
}

// UpdateTaskRequest carries a partial edit. Absent fields keep their stored
// values.
type UpdateTaskRequest struct {
	Title         *string               `json:"title" validate:"omitempty,min=1"`
	Description   *string               `json:"description"`
	Urgency       *entities.Urgency     `json:"urgency" validate:"omitempty,oneof=P0 P1 P2 P3"`
	Category      *string               `json:"category" validate:"omitempty,uuid"`
	ScheduledDate *string               `json:"scheduledDate" validate:"omitempty,datetime=2006-01-02"`
	ToInbox       bool                  `json:"toInbox"`
	Notes         *string               `json:"notes"`
	Attachments   *entities.Attachments `json:"attachments" validate:"omitempty,dive"`
}

// MoveTaskRequest describes a drag-end: destination column and index within
// it. WeekStart anchors date columns to the week the client is displaying;
// when absent the current week is assumed.
type MoveTaskRequest struct {
	ColumnID  string  `json:"columnId" validate:"required"`
	Index     int     `json:"index"`
	WeekStart *string `json:"weekStart" validate:"omitempty,datetime=2006-01-02"`
}

// WorkNotesRequest appends a work-session note to the task's notes.
type WorkNotesRequest struct {
	Notes string `json:"notes" validate:"required"`
}

// CreateCategoryRequest names a new label.
type CreateCategoryRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"required,hexcolor"`
}

// RegisterRequest signs up an email/password account (remote backend).
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest authenticates an email/password account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PINSetupRequest configures the local backend's PIN. Digits only, at least
// four of them.
type PINSetupRequest struct {
	PIN     string `json:"pin" validate:"required,numeric,min=4,max=6"`
	Confirm string `json:"confirm" validate:"required,eqfield=PIN"`
}

// PINLoginRequest authenticates against the stored PIN.
type PINLoginRequest struct {
	PIN string `json:"pin" validate:"required,numeric"`
}

// AuthResponse is returned by every successful authentication path. The local
// PIN strategy issues no refresh token.
type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *entities.User `json:"user,omitempty"`
}

// Claims is the authenticated principal extracted from an access token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}
