package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Possible task status values. Transitions only go active <-> completed.
const (
	TaskStatusActive    TaskStatus = "active"
	TaskStatusCompleted TaskStatus = "completed"
)

// Common validation errors for Task
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID   = errors.New("task user ID cannot be empty")
	ErrEmptyTaskTitle    = errors.New("task title cannot be empty")
	ErrInvalidTaskStatus = errors.New("invalid task status")
)

// Task is a single to-do item owned by a user. A nil Deadline means the
// task has no schedule and is never touched by the deadline sweeper.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Priority    bool       `json:"priority"`
	Status      TaskStatus `json:"status"`
	Pinned      bool       `json:"pinned"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates an active, unpinned task for the given user.
// Empty descriptions are stored as nil.
func NewTask(
	userID uuid.UUID,
	title string,
	description string,
	deadline *time.Time,
	priority bool,
) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: optionalString(description),
		Deadline:    normalizeDeadline(deadline),
		Priority:    priority,
		Status:      TaskStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTaskUserID
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTaskTitle
	}

	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}

	return nil
}

// Edit replaces the user-editable fields and bumps UpdatedAt.
func (t *Task) Edit(title, description string, deadline *time.Time, priority bool) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTaskTitle
	}

	t.Title = strings.TrimSpace(title)
	t.Description = optionalString(description)
	t.Deadline = normalizeDeadline(deadline)
	t.Priority = priority
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Snapshot captures the fields that drive category membership.
func (t *Task) Snapshot() Snapshot {
	return Snapshot{
		HasDeadline: t.Deadline != nil,
		Priority:    t.Priority,
		Status:      t.Status,
	}
}

// IsActive reports whether the task is still open.
func (t *Task) IsActive() bool {
	return t.Status == TaskStatusActive
}

// IsValid reports whether s is a known status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusActive, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// Toggled returns the opposite status.
func (s TaskStatus) Toggled() TaskStatus {
	if s == TaskStatusCompleted {
		return TaskStatusActive
	}
	return TaskStatusCompleted
}

// ParseTaskStatus converts s into a TaskStatus. An empty string maps to active.
func ParseTaskStatus(s string) (TaskStatus, error) {
	if s == "" {
		return TaskStatusActive, nil
	}
	status := TaskStatus(s)
	if !status.IsValid() {
		return "", ErrInvalidTaskStatus
	}
	return status, nil
}

func optionalString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func normalizeDeadline(d *time.Time) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	utc := d.UTC()
	return &utc
}
