package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/mocks"
	"github.com/phrazzld/taskboard-api/internal/notify"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/phrazzld/taskboard-api/internal/tagging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskFixture struct {
	mem    *mocks.MemoryDB
	sql    sqlmock.Sqlmock
	svc    service.TaskService
	userID uuid.UUID
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()

	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mem := mocks.NewMemoryDB()
	notifier := notify.NewNotifier(mem.Notifications(), nil, nil)
	tagger := tagging.NewTagger(mem.Categories(), notifier, nil)

	svc, err := service.NewTaskService(sqlDB, mem.Tasks(), mem.Categories(), tagger, notifier, nil)
	require.NoError(t, err)

	return &taskFixture{mem: mem, sql: sqlMock, svc: svc, userID: uuid.New()}
}

func (f *taskFixture) expectCommit() {
	f.sql.ExpectBegin()
	f.sql.ExpectCommit()
}

func (f *taskFixture) create(t *testing.T, input service.TaskInput) *domain.Task {
	t.Helper()
	f.expectCommit()
	task, err := f.svc.Create(context.Background(), f.userID, input)
	require.NoError(t, err)
	return task
}

func deadlineIn(d time.Duration) *time.Time {
	t := time.Now().Add(d)
	return &t
}

func TestNewTaskService_NilDependencies(t *testing.T) {
	_, err := service.NewTaskService(nil, nil, nil, nil, nil, nil)
	require.Error(t, err)

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "db", validationErr.Field)
}

func TestTaskService_Create(t *testing.T) {
	t.Run("tags and notifies", func(t *testing.T) {
		f := newTaskFixture(t)

		task := f.create(t, service.TaskInput{
			Title:    "  Підготувати звіт ",
			Deadline: deadlineIn(48 * time.Hour),
			Priority: true,
		})

		assert.Equal(t, "Підготувати звіт", task.Title)
		assert.Equal(t, domain.TaskStatusActive, task.Status)
		assert.Equal(t,
			[]domain.CategoryName{domain.CategoryMine, domain.CategoryPlanned, domain.CategoryImportant},
			f.mem.CategoryNames(task.ID))

		created := f.mem.NotificationsOfType(domain.NotificationTaskCreated)
		require.Len(t, created, 1)
		assert.Equal(t, task.ID, *created[0].TaskID)
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})

	t.Run("task without deadline or priority is only mine", func(t *testing.T) {
		f := newTaskFixture(t)
		task := f.create(t, service.TaskInput{Title: "Купити хліб"})
		assert.Equal(t, []domain.CategoryName{domain.CategoryMine}, f.mem.CategoryNames(task.ID))
	})

	t.Run("empty title is rejected before the transaction", func(t *testing.T) {
		f := newTaskFixture(t)

		_, err := f.svc.Create(context.Background(), f.userID, service.TaskInput{Title: "   "})
		assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
		assert.Zero(t, f.mem.NotificationCount())
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})

	t.Run("missing category rolls back", func(t *testing.T) {
		f := newTaskFixture(t)
		f.mem.DropCategory(domain.CategoryPlanned)
		f.sql.ExpectBegin()
		f.sql.ExpectRollback()

		_, err := f.svc.Create(context.Background(), f.userID, service.TaskInput{
			Title:    "Звіт",
			Deadline: deadlineIn(time.Hour),
		})
		require.Error(t, err)
		assert.True(t, tagging.IsConfigurationError(err))
		assert.Empty(t, f.mem.NotificationsOfType(domain.NotificationTaskCreated))
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})

	t.Run("membership failure rolls back", func(t *testing.T) {
		f := newTaskFixture(t)
		f.mem.MembershipErr = errors.New("connection reset")
		f.sql.ExpectBegin()
		f.sql.ExpectRollback()

		_, err := f.svc.Create(context.Background(), f.userID, service.TaskInput{Title: "Звіт"})
		require.Error(t, err)
		var svcErr *service.TaskServiceError
		assert.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "create_task", svcErr.Operation)
	})
}

func TestTaskService_Get_OtherUser(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, service.TaskInput{Title: "Моє"})

	got, err := f.svc.Get(context.Background(), f.userID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	_, err = f.svc.Get(context.Background(), uuid.New(), task.ID)
	assert.ErrorIs(t, err, service.ErrTaskNotFound)
}

func TestTaskService_Update_ReconcilesCategories(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, service.TaskInput{Title: "Звіт", Deadline: deadlineIn(24 * time.Hour)})

	f.expectCommit()
	updated, err := f.svc.Update(context.Background(), f.userID, task.ID, service.TaskInput{
		Title:       "Звіт за квартал",
		Description: "деталі",
		Priority:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Звіт за квартал", updated.Title)
	assert.Nil(t, updated.Deadline)
	assert.Equal(t, []domain.CategoryName{domain.CategoryMine, domain.CategoryImportant}, f.mem.CategoryNames(task.ID))
	assert.Len(t, f.mem.NotificationsOfType(domain.NotificationTaskUpdated), 1)
	assert.NoError(t, f.sql.ExpectationsWereMet())
}

func TestTaskService_Update_Invalid(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, service.TaskInput{Title: "Звіт"})

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	_, err := f.svc.Update(context.Background(), f.userID, task.ID, service.TaskInput{Title: ""})
	assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
	assert.Equal(t, "Звіт", f.mem.Task(task.ID).Title)

	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	_, err = f.svc.Update(context.Background(), f.userID, uuid.New(), service.TaskInput{Title: "x"})
	assert.ErrorIs(t, err, service.ErrTaskNotFound)
	assert.NoError(t, f.sql.ExpectationsWereMet())
}

func TestTaskService_ToggleComplete(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, service.TaskInput{Title: "Звіт"})

	f.expectCommit()
	completed, err := f.svc.ToggleComplete(context.Background(), f.userID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, completed.Status)
	assert.Contains(t, f.mem.CategoryNames(task.ID), domain.CategoryCompleted)
	assert.Len(t, f.mem.NotificationsOfType(domain.NotificationTaskCompleted), 1)

	f.expectCommit()
	reopened, err := f.svc.ToggleComplete(context.Background(), f.userID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusActive, reopened.Status)
	assert.Equal(t, []domain.CategoryName{domain.CategoryMine}, f.mem.CategoryNames(task.ID))
	assert.Len(t, f.mem.NotificationsOfType(domain.NotificationTaskUpdated), 1)
	assert.NoError(t, f.sql.ExpectationsWereMet())
}

func TestTaskService_TogglePriorityAndPin(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, service.TaskInput{Title: "Звіт"})

	f.expectCommit()
	toggled, err := f.svc.TogglePriority(context.Background(), f.userID, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Priority)
	assert.Contains(t, f.mem.CategoryNames(task.ID), domain.CategoryImportant)

	f.expectCommit()
	pinned, err := f.svc.TogglePin(context.Background(), f.userID, task.ID)
	require.NoError(t, err)
	assert.True(t, pinned.Pinned)
	assert.True(t, f.mem.Task(task.ID).Pinned)
	assert.Equal(t, []domain.CategoryName{domain.CategoryMine, domain.CategoryImportant}, f.mem.CategoryNames(task.ID))

	// Only the creation notification is recorded for priority and pin toggles.
	assert.Equal(t, 1, f.mem.NotificationCount())
	assert.NoError(t, f.sql.ExpectationsWereMet())
}

func TestTaskService_Delete(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, service.TaskInput{Title: "Звіт"})

	require.NoError(t, f.svc.Delete(context.Background(), f.userID, task.ID))
	assert.Nil(t, f.mem.Task(task.ID))

	deleted := f.mem.NotificationsOfType(domain.NotificationTaskDeleted)
	require.Len(t, deleted, 1)
	assert.Nil(t, deleted[0].TaskID)
	assert.Equal(t, domain.TaskDeletedMessage("Звіт"), deleted[0].Message)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), f.userID, task.ID), service.ErrTaskNotFound)
}

func TestTaskService_DeleteAll(t *testing.T) {
	f := newTaskFixture(t)
	f.create(t, service.TaskInput{Title: "Перше"})
	f.create(t, service.TaskInput{Title: "Друге"})

	n, err := f.svc.DeleteAll(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	deleted := f.mem.NotificationsOfType(domain.NotificationTaskDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, "Видалено всі 2 завдань.", deleted[0].Message)

	n, err = f.svc.DeleteAll(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.mem.NotificationsOfType(domain.NotificationTaskDeleted), 1, "empty board is not announced")
}

func TestTaskService_DeleteSelected(t *testing.T) {
	f := newTaskFixture(t)
	mine := f.create(t, service.TaskInput{Title: "Моє"})

	other := newTaskFixture(t)
	foreign := other.create(t, service.TaskInput{Title: "Чуже"})
	f.mem.PutTask(foreign)

	_, err := f.svc.DeleteSelected(context.Background(), f.userID, nil)
	assert.ErrorIs(t, err, service.ErrEmptySelection)

	_, err = f.svc.DeleteSelected(context.Background(), f.userID, []uuid.UUID{foreign.ID})
	assert.ErrorIs(t, err, service.ErrTaskNotFound)
	assert.NotNil(t, f.mem.Task(foreign.ID))

	n, err := f.svc.DeleteSelected(context.Background(), f.userID, []uuid.UUID{mine.ID, foreign.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotNil(t, f.mem.Task(foreign.ID), "tasks of other users are ignored")

	deleted := f.mem.NotificationsOfType(domain.NotificationTaskDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, "Видалено вибрані 1 завдань.", deleted[0].Message)
}

func TestTaskService_List(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	plain := f.create(t, service.TaskInput{Title: "Звичайне"})
	urgent := f.create(t, service.TaskInput{Title: "Термінове", Priority: true})
	done := f.create(t, service.TaskInput{Title: "Готове"})
	f.expectCommit()
	_, err := f.svc.ToggleComplete(ctx, f.userID, done.ID)
	require.NoError(t, err)
	f.expectCommit()
	_, err = f.svc.TogglePin(ctx, f.userID, plain.ID)
	require.NoError(t, err)

	ids := func(tasks []*domain.Task) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(tasks))
		for _, task := range tasks {
			out = append(out, task.ID)
		}
		return out
	}

	t.Run("board order puts pinned then priority first", func(t *testing.T) {
		tasks, err := f.svc.List(ctx, f.userID, service.ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{plain.ID, urgent.ID, done.ID}, ids(tasks))
	})

	t.Run("pinned only", func(t *testing.T) {
		tasks, err := f.svc.List(ctx, f.userID, service.ListOptions{PinnedOnly: true})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{plain.ID}, ids(tasks))
	})

	t.Run("mine lists active tasks", func(t *testing.T) {
		mine := int64(1)
		tasks, err := f.svc.List(ctx, f.userID, service.ListOptions{CategoryID: &mine})
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{plain.ID, urgent.ID}, ids(tasks))
	})

	t.Run("completed category lists completed tasks", func(t *testing.T) {
		completed := int64(4)
		tasks, err := f.svc.List(ctx, f.userID, service.ListOptions{CategoryID: &completed})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{done.ID}, ids(tasks))
	})

	t.Run("unknown category", func(t *testing.T) {
		missing := int64(99)
		_, err := f.svc.List(ctx, f.userID, service.ListOptions{CategoryID: &missing})
		assert.ErrorIs(t, err, store.ErrCategoryNotFound)
	})
}

func TestTaskService_SearchAndSorted(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	soon := f.create(t, service.TaskInput{Title: "Звіт квартальний", Deadline: deadlineIn(2 * time.Hour)})
	later := f.create(t, service.TaskInput{Title: "Лист", Description: "відправити звіт", Deadline: deadlineIn(48 * time.Hour)})
	undated := f.create(t, service.TaskInput{Title: "Прибрати", Priority: true})

	t.Run("empty query returns nothing", func(t *testing.T) {
		tasks, err := f.svc.Search(ctx, f.userID, "  ")
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("search matches title and description", func(t *testing.T) {
		tasks, err := f.svc.Search(ctx, f.userID, "ЗВІТ")
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})

	tests := []struct {
		name    string
		sortKey string
		query   string
		want    []uuid.UUID
	}{
		{name: "empty sort", sortKey: "", want: []uuid.UUID{}},
		{name: "deadline ascending skips undated", sortKey: service.SortDeadlineAsc, want: []uuid.UUID{soon.ID, later.ID}},
		{name: "deadline descending", sortKey: service.SortDeadlineDesc, want: []uuid.UUID{later.ID, soon.ID}},
		{name: "priority filter", sortKey: service.SortPriorityDesc, want: []uuid.UUID{undated.ID}},
		{name: "completed filter", sortKey: service.SortStatusCompleted, want: []uuid.UUID{}},
		{name: "deadline sort narrowed by query", sortKey: service.SortDeadlineAsc, query: "лист", want: []uuid.UUID{later.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := f.svc.Sorted(ctx, f.userID, tt.sortKey, tt.query)
			require.NoError(t, err)
			got := make([]uuid.UUID, 0, len(tasks))
			for _, task := range tasks {
				got = append(got, task.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown key falls back to newest first", func(t *testing.T) {
		tasks, err := f.svc.Sorted(ctx, f.userID, "bogus", "")
		require.NoError(t, err)
		assert.Len(t, tasks, 3)
	})
}

func TestTaskService_Categories(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, service.TaskInput{Title: "Звіт", Priority: true})

	categories, err := f.svc.Categories(context.Background(), f.userID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{
		{ID: 1, Name: domain.CategoryMine},
		{ID: 3, Name: domain.CategoryImportant},
	}, categories)

	_, err = f.svc.Categories(context.Background(), uuid.New(), task.ID)
	assert.ErrorIs(t, err, service.ErrTaskNotFound)
}

func TestTaskService_ExportImport(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to export", func(t *testing.T) {
		f := newTaskFixture(t)
		_, err := f.svc.Export(ctx, f.userID)
		assert.ErrorIs(t, err, service.ErrNothingToExport)
	})

	t.Run("round trip keeps status and categories", func(t *testing.T) {
		src := newTaskFixture(t)
		task := src.create(t, service.TaskInput{Title: "Звіт", Deadline: deadlineIn(72 * time.Hour)})
		src.expectCommit()
		_, err := src.svc.ToggleComplete(ctx, src.userID, task.ID)
		require.NoError(t, err)

		exported, err := src.svc.Export(ctx, src.userID)
		require.NoError(t, err)
		require.Len(t, exported, 1)
		assert.Equal(t, "completed", exported[0].Status)
		assert.Len(t, src.mem.NotificationsOfType(domain.NotificationTasksExported), 1)

		dst := newTaskFixture(t)
		dst.expectCommit()
		n, err := dst.svc.Import(ctx, dst.userID, append(exported, service.ExportedTask{Title: "  "}))
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		imported, err := dst.svc.List(ctx, dst.userID, service.ListOptions{})
		require.NoError(t, err)
		require.Len(t, imported, 1)
		assert.Equal(t, domain.TaskStatusCompleted, imported[0].Status)
		assert.Equal(t,
			[]domain.CategoryName{domain.CategoryMine, domain.CategoryPlanned, domain.CategoryCompleted},
			dst.mem.CategoryNames(imported[0].ID))

		notes := dst.mem.NotificationsOfType(domain.NotificationTasksImported)
		require.Len(t, notes, 1)
		assert.Equal(t, "Імпортовано 1 завдань.", notes[0].Message)
		assert.NoError(t, dst.sql.ExpectationsWereMet())
	})

	t.Run("invalid payloads", func(t *testing.T) {
		f := newTaskFixture(t)

		_, err := f.svc.Import(ctx, f.userID, nil)
		assert.ErrorIs(t, err, service.ErrInvalidImport)

		_, err = f.svc.Import(ctx, f.userID, []service.ExportedTask{{Title: ""}})
		assert.ErrorIs(t, err, service.ErrInvalidImport)

		_, err = f.svc.Import(ctx, f.userID, []service.ExportedTask{{Title: "Звіт", Status: "archived"}})
		assert.ErrorIs(t, err, service.ErrInvalidImport)
		assert.NoError(t, f.sql.ExpectationsWereMet(), "invalid payloads never open a transaction")
	})
}
