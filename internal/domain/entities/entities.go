package entities

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrLastCategory       = errors.New("cannot delete the last category")
	ErrEmptyTitle         = errors.New("task title must not be empty")
	ErrInvalidPlacement   = errors.New("task placement is inconsistent")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrPINNotSet          = errors.New("no PIN configured")
	ErrUnauthorized       = errors.New("unauthorized")
)

// DateLayout is the wire format for scheduled dates.
const DateLayout = "2006-01-02"

// Urgency is one of four ordered priority levels.
type Urgency string

const (
	UrgencyCritical Urgency = "P0"
	UrgencyHigh     Urgency = "P1"
	UrgencyMedium   Urgency = "P2"
	UrgencyLow      Urgency = "P3"
)

// DayOfWeek is a task's column label: the unscheduled inbox or a weekday.
type DayOfWeek string

const (
	DayInbox     DayOfWeek = "inbox"
	DayMonday    DayOfWeek = "monday"
	DayTuesday   DayOfWeek = "tuesday"
	DayWednesday DayOfWeek = "wednesday"
	DayThursday  DayOfWeek = "thursday"
	DayFriday    DayOfWeek = "friday"
	DaySaturday  DayOfWeek = "saturday"
	DaySunday    DayOfWeek = "sunday"
)

// AttachmentKind classifies embedded file content.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentPDF   AttachmentKind = "pdf"
	AttachmentOther AttachmentKind = "other"
)

// Attachment is binary file content embedded as a data-URI string.
// There is no separate blob store.
type Attachment struct {
	ID      string         `json:"id"`
	Content string         `json:"content"`
	Name    string         `json:"name"`
	Kind    AttachmentKind `json:"kind"`
	Size    *int64         `json:"size,omitempty"`
}

// Attachments is stored as a single JSON column on the task row.
type Attachments []Attachment

// Value implements driver.Valuer so attachments serialize into a JSONB/TEXT column.
func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal attachments: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner for the JSONB/TEXT attachments column.
func (a *Attachments) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = Attachments{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported attachments source type %T", src)
	}
}

// Task represents a unit of work on the board.
type Task struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	Title         string      `json:"title" db:"title"`
	Description   string      `json:"description" db:"description"`
	Urgency       Urgency     `json:"urgency" db:"urgency"`
	CategoryID    uuid.UUID   `json:"category" db:"category_id"`
	DayOfWeek     DayOfWeek   `json:"dayOfWeek" db:"day_of_week"`
	ScheduledDate *string     `json:"scheduledDate,omitempty" db:"scheduled_date"`
	Position      int         `json:"position" db:"position"`
	Notes         string      `json:"notes" db:"notes"`
	Attachments   Attachments `json:"attachments" db:"attachments"`
	IsCompleted   bool        `json:"isCompleted" db:"is_completed"`
	CompletedAt   *time.Time  `json:"completedAt,omitempty" db:"completed_at"`
	DeletedAt     *time.Time  `json:"deletedAt,omitempty" db:"deleted_at"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"`
}

// Category is a user-defined label. Color is a visual tag only.
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// User represents an account on the remote backend. The local backend has no
// user concept beyond a single PIN.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultCategories is seeded whenever no categories are persisted.
func DefaultCategories() []Category {
	now := time.Now()
	return []Category{
		{ID: uuid.New(), Name: "Personal", Color: "#3b82f6", CreatedAt: now},
		{ID: uuid.New(), Name: "Work", Color: "#8b5cf6", CreatedAt: now},
		{ID: uuid.New(), Name: "Errands", Color: "#10b981", CreatedAt: now},
		{ID: uuid.New(), Name: "Ideas", Color: "#f59e0b", CreatedAt: now},
	}
}

// ColumnID returns the column the task belongs to: the inbox sentinel or the
// ISO date of its scheduled day.
func (t *Task) ColumnID() string {
	if t.DayOfWeek == DayInbox || t.ScheduledDate == nil {
		return string(DayInbox)
	}
	return *t.ScheduledDate
}

// PlacementConsistent reports whether dayOfWeek matches scheduledDate: a set
// date requires the weekday derived from it, an unset date requires inbox.
func (t *Task) PlacementConsistent() bool {
	if t.ScheduledDate == nil {
		return t.DayOfWeek == DayInbox
	}
	day, err := WeekdayOf(*t.ScheduledDate)
	if err != nil {
		return false
	}
	return t.DayOfWeek == day
}

// Schedule places the task on a concrete date, deriving the weekday label.
func (t *Task) Schedule(date string) error {
	day, err := WeekdayOf(date)
	if err != nil {
		return err
	}
	d := date
	t.ScheduledDate = &d
	t.DayOfWeek = day
	return nil
}

// Unschedule moves the task back to the inbox.
func (t *Task) Unschedule() {
	t.ScheduledDate = nil
	t.DayOfWeek = DayInbox
}

// Complete marks the task done at the given time.
func (t *Task) Complete(now time.Time) {
	t.IsCompleted = true
	t.CompletedAt = &now
}

// Restore clears completion state.
func (t *Task) Restore() {
	t.IsCompleted = false
	t.CompletedAt = nil
}

// WeekdayOf derives the weekday label from an ISO date string.
func WeekdayOf(date string) (DayOfWeek, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	switch d.Weekday() {
	case time.Monday:
		return DayMonday, nil
	case time.Tuesday:
		return DayTuesday, nil
	case time.Wednesday:
		return DayWednesday, nil
	case time.Thursday:
		return DayThursday, nil
	case time.Friday:
		return DayFriday, nil
	case time.Saturday:
		return DaySaturday, nil
	default:
		return DaySunday, nil
	}
}

// Label returns the human-readable name of the urgency level.
func (u Urgency) Label() string {
	switch u {
	case UrgencyCritical:
		return "Critical"
	case UrgencyHigh:
		return "High"
	case UrgencyMedium:
		return "Medium"
	case UrgencyLow:
		return "Low"
	default:
		return string(u)
	}
}

func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	default:
		return false
	}
}

func (d DayOfWeek) IsValid() bool {
	switch d {
	case DayInbox, DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday, DaySaturday, DaySunday:
		return true
	default:
		return false
	}
}

func (k AttachmentKind) IsValid() bool {
	switch k {
	case AttachmentImage, AttachmentPDF, AttachmentOther:
		return true
	default:
		return false
	}
}
