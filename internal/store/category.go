package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// CategoryStore defines the interface for categories and task memberships.
type CategoryStore interface {
	// List returns every category ordered by id.
	List(ctx context.Context) ([]domain.Category, error)

	// GetByID returns the category with the given id.
	// Returns ErrCategoryNotFound if it does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Category, error)

	// GetIDByName resolves a category name to its id.
	// Returns ErrCategoryNotFound if the category is not seeded.
	GetIDByName(ctx context.Context, name domain.CategoryName) (int64, error)

	// AddMembership links a task to a category. Adding an existing link is a no-op.
	AddMembership(ctx context.Context, taskID uuid.UUID, categoryID int64) error

	// RemoveMembership unlinks a task from a category. Removing a missing link is a no-op.
	RemoveMembership(ctx context.Context, taskID uuid.UUID, categoryID int64) error

	// ListForTask returns the categories of a task owned by userID, ordered by id.
	ListForTask(ctx context.Context, taskID, userID uuid.UUID) ([]domain.Category, error)

	// WithTx returns a new CategoryStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) CategoryStore
}
