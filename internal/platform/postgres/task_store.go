package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const taskColumns = `t.id, t.user_id, t.title, t.description, t.deadline, t.priority, t.status, t.pinned, t.created_at, t.updated_at`

// taskOrderings maps a sort key to its ORDER BY clause.
var taskOrderings = map[store.TaskSort]string{
	store.SortBoard:        "t.pinned DESC, t.priority DESC, t.created_at DESC",
	store.SortRelevance:    "t.priority DESC, t.created_at DESC",
	store.SortCreatedDesc:  "t.created_at DESC",
	store.SortCreatedAsc:   "t.created_at ASC",
	store.SortDeadlineAsc:  "t.deadline ASC NULLS LAST, t.created_at DESC",
	store.SortDeadlineDesc: "t.deadline DESC NULLS LAST, t.created_at DESC",
}

// PostgresTaskStore implements store.TaskStore using PostgreSQL.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a task store on top of db.
// If logger is nil, slog.Default is used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, user_id, title, description, deadline, priority, status, pinned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Deadline,
		task.Priority,
		string(task.Status),
		task.Pinned,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return MapError(err)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// GetByID implements store.TaskStore.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	return s.get(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1 AND t.user_id = $2`, id, userID)
}

// GetByIDForUpdate implements store.TaskStore. The row lock is held until
// the transaction bound by WithTx ends.
func (s *PostgresTaskStore) GetByIDForUpdate(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	return s.get(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1 AND t.user_id = $2 FOR UPDATE`, id, userID)
}

func (s *PostgresTaskStore) get(ctx context.Context, query string, id, userID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}
	return task, nil
}

// Update implements store.TaskStore.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, deadline = $3, priority = $4, status = $5, pinned = $6, updated_at = $7
		WHERE id = $8 AND user_id = $9
	`
	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Deadline,
		task.Priority,
		string(task.Status),
		task.Pinned,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrTaskNotFound)
}

// UpdateStatus implements store.TaskStore.
func (s *PostgresTaskStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.IsValid() {
		return domain.ErrInvalidTaskStatus
	}

	query := `UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, string(status), time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrTaskNotFound)
}

// CompleteIfActive implements store.TaskStore.
func (s *PostgresTaskStore) CompleteIfActive(ctx context.Context, id uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = 'completed', updated_at = $2
		WHERE id = $1 AND status = 'active'
	`
	result, err := s.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		log.Error("failed to complete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return false, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// Delete implements store.TaskStore.
func (s *PostgresTaskStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrTaskNotFound)
}

// DeleteAllForUser implements store.TaskStore.
func (s *PostgresTaskStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = $1`, userID)
	if err != nil {
		log.Error("failed to delete tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// DeleteMany implements store.TaskStore.
func (s *PostgresTaskStore) DeleteMany(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, userID)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := `DELETE FROM tasks WHERE user_id = $1 AND id IN (` + strings.Join(placeholders, ", ") + `)`
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to delete selected tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.Int("count", len(ids)))
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// List implements store.TaskStore.
func (s *PostgresTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	query, args := buildListQuery(filter)
	return s.query(ctx, "list", query, args...)
}

// FindActiveWithDeadlineBefore implements store.TaskStore.
func (s *PostgresTaskStore) FindActiveWithDeadlineBefore(ctx context.Context, t time.Time) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t
		WHERE t.status = 'active' AND t.deadline IS NOT NULL AND t.deadline <= $1
		ORDER BY t.deadline ASC`
	return s.query(ctx, "find_expired", query, t.UTC())
}

// FindActiveWithDeadlineInWindow implements store.TaskStore.
func (s *PostgresTaskStore) FindActiveWithDeadlineInWindow(
	ctx context.Context,
	start, end time.Time,
) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t
		WHERE t.status = 'active' AND t.deadline > $1 AND t.deadline <= $2
		ORDER BY t.deadline ASC`
	return s.query(ctx, "find_in_window", query, start.UTC(), end.UTC())
}

func (s *PostgresTaskStore) query(ctx context.Context, op, query string, args ...interface{}) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("operation", op),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

// buildListQuery renders filter into a SELECT with positional arguments.
func buildListQuery(filter store.TaskFilter) (string, []interface{}) {
	var (
		where = []string{"t.user_id = $1"}
		args  = []interface{}{filter.UserID}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CategoryID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM task_categories tc WHERE tc.task_id = t.id AND tc.category_id = "+
			arg(*filter.CategoryID)+")")
	}
	if filter.Status != nil {
		where = append(where, "t.status = "+arg(string(*filter.Status)))
	}
	if filter.Priority != nil {
		where = append(where, "t.priority = "+arg(*filter.Priority))
	}
	if filter.PinnedOnly {
		where = append(where, "t.pinned")
	}
	if filter.HasDeadline {
		where = append(where, "t.deadline IS NOT NULL")
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		p := arg("%" + escapeLike(q) + "%")
		where = append(where, "(t.title ILIKE "+p+" OR t.description ILIKE "+p+")")
	}

	order, ok := taskOrderings[filter.Sort]
	if !ok {
		order = taskOrderings[store.SortBoard]
	}

	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY ` + order
	return query, args
}

// escapeLike escapes the LIKE wildcards in s.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		description sql.NullString
		deadline    sql.NullTime
		status      string
	)
	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&description,
		&deadline,
		&task.Priority,
		&status,
		&task.Pinned,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		task.Description = &description.String
	}
	if deadline.Valid {
		d := deadline.Time.UTC()
		task.Deadline = &d
	}
	task.Status = domain.TaskStatus(status)
	return &task, nil
}
