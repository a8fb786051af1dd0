package service

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
	"github.com/phrazzld/taskboard-api/internal/tagging"
)

// Sort keys accepted by TaskService.Sorted.
const (
	SortCreatedDesc     = "created_desc"
	SortCreatedAsc      = "created_asc"
	SortDeadlineAsc     = "deadline_asc"
	SortDeadlineDesc    = "deadline_desc"
	SortPriorityDesc    = "priority_desc"
	SortPriorityAsc     = "priority_asc"
	SortStatusActive    = "status_active"
	SortStatusCompleted = "status_completed"
)

// TaskNotifier records the user-facing notifications emitted by task operations.
type TaskNotifier interface {
	NotifyTaskCreated(ctx context.Context, task *domain.Task)
	NotifyTaskUpdated(ctx context.Context, task *domain.Task)
	NotifyTaskDeleted(ctx context.Context, task *domain.Task)
	NotifyBulkDeleted(ctx context.Context, userID uuid.UUID, count int, all bool)
	NotifyTasksExported(ctx context.Context, userID uuid.UUID, count int)
	NotifyTasksImported(ctx context.Context, userID uuid.UUID, count int)
}

// TaskInput carries the user-editable fields of a task.
type TaskInput struct {
	Title       string
	Description string
	Deadline    *time.Time
	Priority    bool
}

// ListOptions selects which tasks List returns. PinnedOnly wins over CategoryID.
type ListOptions struct {
	CategoryID *int64
	PinnedOnly bool
}

// ExportedTask is the portable form of a task used by Export and Import.
type ExportedTask struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Priority    bool       `json:"priority"`
	Status      string     `json:"status"`
}

// TaskService provides task-related operations. Every operation is scoped
// to the owning user; tasks of other users behave as if they did not exist.
type TaskService interface {
	Create(ctx context.Context, userID uuid.UUID, input TaskInput) (*domain.Task, error)
	Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, userID, taskID uuid.UUID, input TaskInput) (*domain.Task, error)

	// ToggleComplete flips the status and returns the updated task.
	ToggleComplete(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	// TogglePriority flips the priority flag and returns the updated task.
	TogglePriority(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	// TogglePin flips the pinned flag and returns the updated task.
	TogglePin(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	Delete(ctx context.Context, userID, taskID uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) (int, error)
	DeleteSelected(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error)

	List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*domain.Task, error)
	Search(ctx context.Context, userID uuid.UUID, query string) ([]*domain.Task, error)
	Sorted(ctx context.Context, userID uuid.UUID, sortKey, query string) ([]*domain.Task, error)
	Categories(ctx context.Context, userID, taskID uuid.UUID) ([]domain.Category, error)

	Export(ctx context.Context, userID uuid.UUID) ([]ExportedTask, error)
	Import(ctx context.Context, userID uuid.UUID, items []ExportedTask) (int, error)
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	db         *sql.DB
	tasks      store.TaskStore
	categories store.CategoryStore
	tagger     *tagging.Tagger
	notifier   TaskNotifier
	logger     *slog.Logger
}

var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	db *sql.DB,
	tasks store.TaskStore,
	categories store.CategoryStore,
	tagger *tagging.Tagger,
	notifier TaskNotifier,
	logger *slog.Logger,
) (TaskService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if categories == nil {
		return nil, domain.NewValidationError("categories", "cannot be nil", domain.ErrValidation)
	}
	if tagger == nil {
		return nil, domain.NewValidationError("tagger", "cannot be nil", domain.ErrValidation)
	}
	if notifier == nil {
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		db:         db,
		tasks:      tasks,
		categories: categories,
		tagger:     tagger,
		notifier:   notifier,
		logger:     logger.With(slog.String("component", "task_service")),
	}, nil
}

// Create stores a new task with its initial categories in one transaction.
func (s *taskServiceImpl) Create(ctx context.Context, userID uuid.UUID, input TaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(userID, input.Title, input.Description, input.Deadline, input.Priority)
	if err != nil {
		return nil, NewTaskServiceError("create_task", "invalid task", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.tasks.WithTx(tx).Create(ctx, task); err != nil {
			return err
		}
		return s.tagger.WithTx(tx).TagNew(ctx, task)
	})
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewTaskServiceError("create_task", "failed to store task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.Bool("has_deadline", task.Deadline != nil),
		slog.Bool("priority", task.Priority))

	s.notifier.NotifyTaskCreated(ctx, task)
	return task, nil
}

// Get returns a single owned task.
func (s *taskServiceImpl) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID, userID)
	if err != nil {
		return nil, NewTaskServiceError("get_task", "failed to load task", err)
	}
	return task, nil
}

// Update replaces the editable fields and reconciles Заплановані and Важливі.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	input TaskInput,
) (*domain.Task, error) {
	task, err := s.mutate(ctx, "update_task", userID, taskID, func(t *domain.Task) error {
		return t.Edit(input.Title, input.Description, input.Deadline, input.Priority)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyTaskUpdated(ctx, task)
	return task, nil
}

// ToggleComplete flips the status. task_completed or task_updated is
// recorded after the transaction commits.
func (s *taskServiceImpl) ToggleComplete(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return s.mutate(ctx, "toggle_complete", userID, taskID, func(t *domain.Task) error {
		t.Status = t.Status.Toggled()
		t.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// TogglePriority flips the priority flag and reconciles Важливі.
func (s *taskServiceImpl) TogglePriority(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return s.mutate(ctx, "toggle_priority", userID, taskID, func(t *domain.Task) error {
		t.Priority = !t.Priority
		t.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// TogglePin flips the pinned flag. Pinning has no category.
func (s *taskServiceImpl) TogglePin(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return s.mutate(ctx, "toggle_pin", userID, taskID, func(t *domain.Task) error {
		t.Pinned = !t.Pinned
		t.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// mutate applies change to an owned task inside one transaction: the row is
// loaded under a lock, so a concurrent sweep either finished before the load
// or waits for the commit, and prev always matches the stored row. Status
// notifications are recorded after commit.
func (s *taskServiceImpl) mutate(
	ctx context.Context,
	operation string,
	userID, taskID uuid.UUID,
	change func(*domain.Task) error,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		task      *domain.Task
		prev      domain.Snapshot
		deltas    []domain.MembershipDelta
		changeErr error
	)
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)

		var err error
		task, err = tasks.GetByIDForUpdate(ctx, taskID, userID)
		if err != nil {
			return err
		}

		prev = task.Snapshot()
		if changeErr = change(task); changeErr != nil {
			return changeErr
		}

		if err := tasks.Update(ctx, task); err != nil {
			return err
		}
		deltas, err = s.tagger.WithTx(tx).Reconcile(ctx, task, prev)
		return err
	})
	switch {
	case changeErr != nil:
		return nil, NewTaskServiceError(operation, "invalid task", changeErr)
	case errors.Is(err, store.ErrTaskNotFound):
		return nil, NewTaskServiceError(operation, "failed to load task", err)
	case err != nil:
		log.Error("failed to update task",
			slog.String("operation", operation),
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError(operation, "failed to store task", err)
	}

	log.Debug("task updated",
		slog.String("operation", operation),
		slog.String("task_id", taskID.String()),
		slog.Int("membership_changes", len(deltas)))

	s.tagger.AnnounceStatus(ctx, task, prev)
	return task, nil
}

// Delete removes an owned task. Its memberships cascade.
func (s *taskServiceImpl) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	task, err := s.tasks.GetByID(ctx, taskID, userID)
	if err != nil {
		return NewTaskServiceError("delete_task", "failed to load task", err)
	}

	if err := s.tasks.Delete(ctx, taskID, userID); err != nil {
		return NewTaskServiceError("delete_task", "failed to delete task", err)
	}

	s.notifier.NotifyTaskDeleted(ctx, task)
	return nil
}

// DeleteAll removes every task of the user and returns how many were removed.
func (s *taskServiceImpl) DeleteAll(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.tasks.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, NewTaskServiceError("delete_all", "failed to delete tasks", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("deleted all tasks",
		slog.String("user_id", userID.String()),
		slog.Int("count", n))

	if n > 0 {
		s.notifier.NotifyBulkDeleted(ctx, userID, n, true)
	}
	return n, nil
}

// DeleteSelected removes the owned tasks among ids. Ids of other users'
// tasks are ignored; ErrTaskNotFound is returned when nothing matched.
func (s *taskServiceImpl) DeleteSelected(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}

	n, err := s.tasks.DeleteMany(ctx, userID, ids)
	if err != nil {
		return 0, NewTaskServiceError("delete_selected", "failed to delete tasks", err)
	}
	if n == 0 {
		return 0, ErrTaskNotFound
	}

	s.notifier.NotifyBulkDeleted(ctx, userID, n, false)
	return n, nil
}

// List returns the board: pinned active tasks, the tasks of one category,
// or every task. Завершені lists completed tasks, other categories active ones.
func (s *taskServiceImpl) List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*domain.Task, error) {
	filter := store.TaskFilter{UserID: userID, Sort: store.SortBoard}

	switch {
	case opts.PinnedOnly:
		active := domain.TaskStatusActive
		filter.PinnedOnly = true
		filter.Status = &active
	case opts.CategoryID != nil:
		category, err := s.categories.GetByID(ctx, *opts.CategoryID)
		if err != nil {
			return nil, NewTaskServiceError("list_tasks", "failed to load category", err)
		}
		status := domain.TaskStatusActive
		if category.Name == domain.CategoryCompleted {
			status = domain.TaskStatusCompleted
		}
		filter.CategoryID = &category.ID
		filter.Status = &status
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

// Search matches query against title and description.
func (s *taskServiceImpl) Search(ctx context.Context, userID uuid.UUID, query string) ([]*domain.Task, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*domain.Task{}, nil
	}

	tasks, err := s.tasks.List(ctx, store.TaskFilter{UserID: userID, Query: query, Sort: store.SortRelevance})
	if err != nil {
		return nil, NewTaskServiceError("search_tasks", "failed to search tasks", err)
	}
	return tasks, nil
}

// Sorted lists tasks by one of the Sort* keys, optionally narrowed by query.
// Priority and status keys filter rather than order. Unknown keys fall back
// to newest first.
func (s *taskServiceImpl) Sorted(
	ctx context.Context,
	userID uuid.UUID,
	sortKey, query string,
) ([]*domain.Task, error) {
	if sortKey == "" {
		return []*domain.Task{}, nil
	}

	filter := sortedFilter(userID, sortKey)
	filter.Query = strings.TrimSpace(query)

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, NewTaskServiceError("sort_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

func sortedFilter(userID uuid.UUID, sortKey string) store.TaskFilter {
	filter := store.TaskFilter{UserID: userID, Sort: store.SortCreatedDesc}
	flag := func(v bool) *bool { return &v }
	status := func(v domain.TaskStatus) *domain.TaskStatus { return &v }

	switch sortKey {
	case SortCreatedAsc:
		filter.Sort = store.SortCreatedAsc
	case SortDeadlineAsc:
		filter.Sort = store.SortDeadlineAsc
		filter.HasDeadline = true
	case SortDeadlineDesc:
		filter.Sort = store.SortDeadlineDesc
		filter.HasDeadline = true
	case SortPriorityDesc:
		filter.Priority = flag(true)
	case SortPriorityAsc:
		filter.Priority = flag(false)
	case SortStatusActive:
		filter.Status = status(domain.TaskStatusActive)
	case SortStatusCompleted:
		filter.Status = status(domain.TaskStatusCompleted)
	}
	return filter
}

// Categories lists the categories of an owned task.
func (s *taskServiceImpl) Categories(ctx context.Context, userID, taskID uuid.UUID) ([]domain.Category, error) {
	if _, err := s.tasks.GetByID(ctx, taskID, userID); err != nil {
		return nil, NewTaskServiceError("task_categories", "failed to load task", err)
	}

	categories, err := s.categories.ListForTask(ctx, taskID, userID)
	if err != nil {
		return nil, NewTaskServiceError("task_categories", "failed to list categories", err)
	}
	return categories, nil
}

// Export returns every task of the user in portable form, newest first.
func (s *taskServiceImpl) Export(ctx context.Context, userID uuid.UUID) ([]ExportedTask, error) {
	tasks, err := s.tasks.List(ctx, store.TaskFilter{UserID: userID, Sort: store.SortCreatedDesc})
	if err != nil {
		return nil, NewTaskServiceError("export_tasks", "failed to list tasks", err)
	}
	if len(tasks) == 0 {
		return nil, ErrNothingToExport
	}

	exported := make([]ExportedTask, 0, len(tasks))
	for _, t := range tasks {
		exported = append(exported, ExportedTask{
			Title:       t.Title,
			Description: t.Description,
			Deadline:    t.Deadline,
			Priority:    t.Priority,
			Status:      string(t.Status),
		})
	}

	s.notifier.NotifyTasksExported(ctx, userID, len(exported))
	return exported, nil
}

// Import creates tasks from items in one transaction. Items without a title
// are skipped; an unknown status rejects the whole payload.
func (s *taskServiceImpl) Import(ctx context.Context, userID uuid.UUID, items []ExportedTask) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(items) == 0 {
		return 0, ErrInvalidImport
	}

	tasks := make([]*domain.Task, 0, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.Title) == "" {
			log.Debug("skipping import item without title", slog.Int("index", i))
			continue
		}

		status, err := domain.ParseTaskStatus(item.Status)
		if err != nil {
			return 0, fmt.Errorf("%w: item %d: %v", ErrInvalidImport, i, err)
		}

		description := ""
		if item.Description != nil {
			description = *item.Description
		}
		task, err := domain.NewTask(userID, item.Title, description, item.Deadline, item.Priority)
		if err != nil {
			return 0, fmt.Errorf("%w: item %d: %v", ErrInvalidImport, i, err)
		}
		task.Status = status
		tasks = append(tasks, task)
	}
	if len(tasks) == 0 {
		return 0, ErrInvalidImport
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)
		txTagger := s.tagger.WithTx(tx)
		for _, task := range tasks {
			if err := txTasks.Create(ctx, task); err != nil {
				return err
			}
			if err := txTagger.TagNew(ctx, task); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to import tasks",
			slog.String("error", err.Error()),
			slog.Int("count", len(tasks)))
		return 0, NewTaskServiceError("import_tasks", "failed to store tasks", err)
	}

	log.Info("tasks imported",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(tasks)),
		slog.Int("skipped", len(items)-len(tasks)))

	s.notifier.NotifyTasksImported(ctx, userID, len(tasks))
	return len(tasks), nil
}
