package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// PostgresCategoryStore implements store.CategoryStore using PostgreSQL.
type PostgresCategoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCategoryStore creates a category store on top of db.
func NewPostgresCategoryStore(db store.DBTX, logger *slog.Logger) *PostgresCategoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCategoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "category_store")),
	}
}

var _ store.CategoryStore = (*PostgresCategoryStore)(nil)

// WithTx implements store.CategoryStore.
func (s *PostgresCategoryStore) WithTx(tx *sql.Tx) store.CategoryStore {
	return &PostgresCategoryStore{db: tx, logger: s.logger}
}

// List implements store.CategoryStore.
func (s *PostgresCategoryStore) List(ctx context.Context) ([]domain.Category, error) {
	return s.queryCategories(ctx, `SELECT id, name FROM categories ORDER BY id`)
}

// GetByID implements store.CategoryStore.
func (s *PostgresCategoryStore) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	var (
		c    domain.Category
		name string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCategoryNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get category",
			slog.String("error", err.Error()),
			slog.Int64("category_id", id))
		return nil, MapError(err)
	}
	c.Name = domain.CategoryName(name)
	return &c, nil
}

// GetIDByName implements store.CategoryStore.
func (s *PostgresCategoryStore) GetIDByName(ctx context.Context, name domain.CategoryName) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = $1`, string(name)).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", store.ErrCategoryNotFound, name)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to resolve category",
			slog.String("error", err.Error()),
			slog.String("category", string(name)))
		return 0, MapError(err)
	}
	return id, nil
}

// AddMembership implements store.CategoryStore.
func (s *PostgresCategoryStore) AddMembership(ctx context.Context, taskID uuid.UUID, categoryID int64) error {
	query := `
		INSERT INTO task_categories (task_id, category_id)
		VALUES ($1, $2)
		ON CONFLICT (task_id, category_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, taskID, categoryID); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to add task category",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.Int64("category_id", categoryID))
		return MapError(err)
	}
	return nil
}

// RemoveMembership implements store.CategoryStore.
func (s *PostgresCategoryStore) RemoveMembership(ctx context.Context, taskID uuid.UUID, categoryID int64) error {
	query := `DELETE FROM task_categories WHERE task_id = $1 AND category_id = $2`
	if _, err := s.db.ExecContext(ctx, query, taskID, categoryID); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to remove task category",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.Int64("category_id", categoryID))
		return MapError(err)
	}
	return nil
}

// ListForTask implements store.CategoryStore.
func (s *PostgresCategoryStore) ListForTask(ctx context.Context, taskID, userID uuid.UUID) ([]domain.Category, error) {
	query := `
		SELECT c.id, c.name
		FROM categories c
		JOIN task_categories tc ON tc.category_id = c.id
		JOIN tasks t ON t.id = tc.task_id
		WHERE tc.task_id = $1 AND t.user_id = $2
		ORDER BY c.id
	`
	return s.queryCategories(ctx, query, taskID, userID)
}

func (s *PostgresCategoryStore) queryCategories(
	ctx context.Context,
	query string,
	args ...interface{},
) ([]domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query categories", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	categories := make([]domain.Category, 0, len(domain.AllCategories))
	for rows.Next() {
		var (
			c    domain.Category
			name string
		)
		if err := rows.Scan(&c.ID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		c.Name = domain.CategoryName(name)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}
	return categories, nil
}
