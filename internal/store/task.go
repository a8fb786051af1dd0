package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// TaskSort selects the ordering of a task listing.
type TaskSort string

const (
	// SortBoard orders pinned first, then important, then newest.
	SortBoard TaskSort = "board"
	// SortRelevance orders important first, then newest.
	SortRelevance   TaskSort = "relevance"
	SortCreatedDesc TaskSort = "created_desc"
	SortCreatedAsc  TaskSort = "created_asc"
	SortDeadlineAsc TaskSort = "deadline_asc"
	// SortDeadlineDesc orders latest deadline first.
	SortDeadlineDesc TaskSort = "deadline_desc"
)

// TaskFilter narrows a task listing. UserID is mandatory; every other
// field is optional and combined with AND.
type TaskFilter struct {
	UserID      uuid.UUID
	CategoryID  *int64
	Status      *domain.TaskStatus
	Priority    *bool
	PinnedOnly  bool
	HasDeadline bool
	// Query is matched case-insensitively against title and description.
	Query string
	Sort  TaskSort
}

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// Create saves a new task.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task owned by userID.
	// Returns ErrTaskNotFound if the task does not exist or belongs to someone else.
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error)

	// GetByIDForUpdate is GetByID that also locks the row against concurrent
	// writers, including the sweeper, until the surrounding transaction ends.
	// Read-modify-write sequences must load through it on a WithTx store.
	GetByIDForUpdate(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error)

	// Update saves title, description, deadline, priority, status and pinned.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// UpdateStatus sets the status of a task unconditionally.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error

	// CompleteIfActive transitions the task to completed only if it is
	// currently active. It reports whether the transition happened, which
	// makes repeated sweeps over the same task harmless.
	CompleteIfActive(ctx context.Context, id uuid.UUID) (bool, error)

	// Delete removes a task owned by userID.
	// Returns ErrTaskNotFound if no such task exists.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// DeleteAllForUser removes every task of userID and returns how many were removed.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int, error)

	// DeleteMany removes the listed tasks that belong to userID and
	// returns how many were removed.
	DeleteMany(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error)

	// List returns the tasks matching filter.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// FindActiveWithDeadlineBefore returns active tasks whose deadline is at or before t.
	FindActiveWithDeadlineBefore(ctx context.Context, t time.Time) ([]*domain.Task, error)

	// FindActiveWithDeadlineInWindow returns active tasks whose deadline is
	// in the half-open window (start, end].
	FindActiveWithDeadlineInWindow(ctx context.Context, start, end time.Time) ([]*domain.Task, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
