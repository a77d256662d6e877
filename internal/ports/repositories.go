package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/weekplanner/core/internal/domain/entities"
)

// TaskRepository defines durable CRUD over tasks. Both backends implement it;
// the local backend ignores the principal id and keeps one global list.
type TaskRepository interface {
	// List returns all tasks sorted by position ascending. The ordering
	// guarantee is scoped within each column; cross-column order is
	// implementation-defined.
	List(ctx context.Context, userID string) ([]entities.Task, error)
	// Create persists a task whose id and timestamps were already assigned.
	Create(ctx context.Context, userID string, task *entities.Task) error
	// Update merges the supplied fields into the stored task, refreshes the
	// update timestamp and returns the merged task. Returns
	// entities.ErrTaskNotFound when no such id exists; it never creates.
	Update(ctx context.Context, userID string, id uuid.UUID, upd TaskUpdate) (*entities.Task, error)
	// Delete removes permanently. Deleting a missing id reports false, not an
	// error.
	Delete(ctx context.Context, userID string, id uuid.UUID) (bool, error)
	// PurgeCompletedBefore permanently removes completed tasks whose
	// completion timestamp is older than the cutoff, returning how many rows
	// went away.
	PurgeCompletedBefore(ctx context.Context, userID string, cutoff time.Time) (int64, error)
	// UpdatePositions rewrites column placement and position for the supplied
	// tasks in one shot. Used to persist the changed set of a move.
	UpdatePositions(ctx context.Context, userID string, tasks []entities.Task) error
}

// CategoryRepository defines durable CRUD over categories.
type CategoryRepository interface {
	List(ctx context.Context, userID string) ([]entities.Category, error)
	Create(ctx context.Context, userID string, category *entities.Category) error
	// Delete removes the category; missing ids report false.
	Delete(ctx context.Context, userID string, id uuid.UUID) (bool, error)
	// ReassignTasks points every task referencing the from category at the to
	// category, returning the number of tasks touched.
	ReassignTasks(ctx context.Context, userID string, from, to uuid.UUID) (int64, error)
}

// UserRepository stores accounts for the remote backend.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
}

// AuthRepository stores refresh tokens for the remote backend.
type AuthRepository interface {
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// CredentialRepository stores the single PIN of the local backend. The value
// is a hash, never the raw PIN.
type CredentialRepository interface {
	GetPINHash(ctx context.Context) (string, error)
	SetPINHash(ctx context.Context, hash string) error
}

// TaskCache is an optional read-through cache for per-principal task lists.
type TaskCache interface {
	Get(ctx context.Context, userID string) ([]entities.Task, bool)
	Set(ctx context.Context, userID string, tasks []entities.Task)
	Invalidate(ctx context.Context, userID string)
}

// TaskUpdate carries a partial task mutation. Nil fields are left untouched;
// the Clear flags express "set to empty" for the two nullable timestamps.
type TaskUpdate struct {
	Title              *string
	Description        *string
	Urgency            *entities.Urgency
	CategoryID         *uuid.UUID
	DayOfWeek          *entities.DayOfWeek
	ScheduledDate      *string
	ClearScheduledDate bool
	Position           *int
	Notes              *string
	Attachments        *entities.Attachments
	IsCompleted        *bool
	CompletedAt        *time.Time
	ClearCompletedAt   bool
}

// Apply merges the update into the task. The id is immutable; the update
// timestamp is the caller's responsibility.
func (u TaskUpdate) Apply(t *entities.Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Urgency != nil {
		t.Urgency = *u.Urgency
	}
	if u.CategoryID != nil {
		t.CategoryID = *u.CategoryID
	}
	if u.DayOfWeek != nil {
		t.DayOfWeek = *u.DayOfWeek
	}
	if u.ClearScheduledDate {
		t.ScheduledDate = nil
	} else if u.ScheduledDate != nil {
		t.ScheduledDate = u.ScheduledDate
	}
	if u.Position != nil {
		t.Position = *u.Position
	}
	if u.Notes != nil {
		t.Notes = *u.Notes
	}
	if u.Attachments != nil {
		t.Attachments = *u.Attachments
	}
	if u.IsCompleted != nil {
		t.IsCompleted = *u.IsCompleted
	}
	if u.ClearCompletedAt {
		t.CompletedAt = nil
	} else if u.CompletedAt != nil {
		t.CompletedAt = u.CompletedAt
	}
}

// Empty reports whether the update carries no fields at all.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Urgency == nil &&
		u.CategoryID == nil && u.DayOfWeek == nil && u.ScheduledDate == nil &&
		!u.ClearScheduledDate && u.Position == nil && u.Notes == nil &&
		u.Attachments == nil && u.IsCompleted == nil && u.CompletedAt == nil &&
		!u.ClearCompletedAt
}

// RefreshToken represents a refresh token record
type RefreshToken struct {
	ID        int        `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash string     `json:"token_hash" db:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	RevokedAt *time.Time `json:"revoked_at" db:"revoked_at"`
}

// IsExpired checks if the refresh token is expired
func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// IsRevoked checks if the refresh token is revoked
func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

// IsValid checks if the refresh token is valid
func (rt *RefreshToken) IsValid() bool {
	return !rt.IsExpired() && !rt.IsRevoked()
}
