//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/notify"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/phrazzld/taskboard-api/internal/sweeper"
	"github.com/phrazzld/taskboard-api/internal/tagging"
	"github.com/phrazzld/taskboard-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoriesAreSeeded(t *testing.T) {
	db := testdb.Open(t)
	categories := postgres.NewPostgresCategoryStore(db, nil)

	list, err := categories.List(context.Background())
	require.NoError(t, err)

	names := make([]domain.CategoryName, 0, len(list))
	for _, c := range list {
		names = append(names, c.Name)
	}
	assert.Equal(t, []domain.CategoryName{
		domain.CategoryMine, domain.CategoryPlanned, domain.CategoryImportant, domain.CategoryCompleted,
	}, names)
}

func TestTaskLifecycle(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		tasks := postgres.NewPostgresTaskStore(tx, nil)
		categories := postgres.NewPostgresCategoryStore(tx, nil)
		userID := uuid.New()

		deadline := time.Now().Add(2 * time.Hour)
		task, err := domain.NewTask(userID, "Здати звіт", "", &deadline, true)
		require.NoError(t, err)
		require.NoError(t, tasks.Create(ctx, task))

		importantID, err := categories.GetIDByName(ctx, domain.CategoryImportant)
		require.NoError(t, err)
		require.NoError(t, categories.AddMembership(ctx, task.ID, importantID))
		require.NoError(t, categories.AddMembership(ctx, task.ID, importantID))

		listed, err := tasks.List(ctx, store.TaskFilter{UserID: userID, CategoryID: &importantID, Sort: store.SortBoard})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, task.ID, listed[0].ID)
		assert.Nil(t, listed[0].Description)

		_, err = tasks.GetByID(ctx, task.ID, uuid.New())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)

		due, err := tasks.FindActiveWithDeadlineBefore(ctx, deadline.Add(time.Minute))
		require.NoError(t, err)
		assert.NotEmpty(t, due)

		completed, err := tasks.CompleteIfActive(ctx, task.ID)
		require.NoError(t, err)
		assert.True(t, completed)
		completed, err = tasks.CompleteIfActive(ctx, task.ID)
		require.NoError(t, err)
		assert.False(t, completed)

		n, err := tasks.DeleteAllForUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestApproachingAlertRecordedOnce(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		tasks := postgres.NewPostgresTaskStore(tx, nil)
		notifications := postgres.NewPostgresNotificationStore(tx, nil)

		deadline := time.Now().Add(time.Hour)
		task, err := domain.NewTask(uuid.New(), "Оплатити рахунок", "", &deadline, false)
		require.NoError(t, err)
		require.NoError(t, tasks.Create(ctx, task))

		first, err := domain.NewApproachingNotification(task, 1)
		require.NoError(t, err)
		require.NoError(t, notifications.Create(ctx, first))

		second, err := domain.NewApproachingNotification(task, 1)
		require.NoError(t, err)
		assert.ErrorIs(t, notifications.Create(ctx, second), store.ErrDuplicateAlert)

		exists, err := notifications.ExistsApproaching(ctx, task.ID, 1)
		require.NoError(t, err)
		assert.True(t, exists)

		unread, err := notifications.CountUnread(ctx, task.UserID)
		require.NoError(t, err)
		assert.Equal(t, 1, unread)

		require.NoError(t, notifications.MarkAllRead(ctx, task.UserID))
		unread, err = notifications.CountUnread(ctx, task.UserID)
		require.NoError(t, err)
		assert.Zero(t, unread)
	})
}

type board struct {
	tasks         store.TaskStore
	categories    store.CategoryStore
	notifications store.NotificationStore
	tagger        *tagging.Tagger
	notifier      *notify.Notifier
	svc           service.TaskService
}

// newBoard wires the services over committed transactions, the way the
// server does. Rows written for userID are removed on cleanup.
func newBoard(t *testing.T, db *sql.DB, userID uuid.UUID) *board {
	t.Helper()
	b := &board{
		tasks:         postgres.NewPostgresTaskStore(db, nil),
		categories:    postgres.NewPostgresCategoryStore(db, nil),
		notifications: postgres.NewPostgresNotificationStore(db, nil),
	}
	b.notifier = notify.NewNotifier(b.notifications, nil, nil)
	b.tagger = tagging.NewTagger(b.categories, b.notifier, nil)

	var err error
	b.svc, err = service.NewTaskService(db, b.tasks, b.categories, b.tagger, b.notifier, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = db.ExecContext(ctx, "DELETE FROM notifications WHERE user_id = $1", userID)
		_, _ = db.ExecContext(ctx, "DELETE FROM tasks WHERE user_id = $1", userID)
	})
	return b
}

func (b *board) categoryNames(t *testing.T, taskID, userID uuid.UUID) []domain.CategoryName {
	t.Helper()
	list, err := b.categories.ListForTask(context.Background(), taskID, userID)
	require.NoError(t, err)
	names := make([]domain.CategoryName, 0, len(list))
	for _, c := range list {
		names = append(names, c.Name)
	}
	return names
}

func (b *board) countOfType(t *testing.T, userID uuid.UUID, typ domain.NotificationType) int {
	t.Helper()
	list, err := b.notifications.ListForUser(context.Background(), userID, 100)
	require.NoError(t, err)
	n := 0
	for _, item := range list {
		if item.Type == typ {
			n++
		}
	}
	return n
}

func TestToggleCompleteCommits(t *testing.T) {
	db := testdb.Open(t)
	userID := uuid.New()
	b := newBoard(t, db, userID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	task, err := b.svc.Create(ctx, userID, service.TaskInput{Title: "Підготувати звіт"})
	require.NoError(t, err)

	completed, err := b.svc.ToggleComplete(ctx, userID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, completed.Status)
	assert.Contains(t, b.categoryNames(t, task.ID, userID), domain.CategoryCompleted)
	assert.Equal(t, 1, b.countOfType(t, userID, domain.NotificationTaskCompleted))

	reopened, err := b.svc.ToggleComplete(ctx, userID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusActive, reopened.Status)
	assert.NotContains(t, b.categoryNames(t, task.ID, userID), domain.CategoryCompleted)

	stored, err := b.tasks.GetByID(ctx, task.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusActive, stored.Status)
}

func TestEditRacingSweepKeepsTaskExpired(t *testing.T) {
	db := testdb.Open(t)

	for i := 0; i < 10; i++ {
		userID := uuid.New()
		b := newBoard(t, db, userID)
		sw := sweeper.New(b.tasks, b.tagger, b.notifier, nil, sweeper.WithDB(db))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		deadline := time.Now().Add(time.Hour).Truncate(time.Second)
		task, err := b.svc.Create(ctx, userID, service.TaskInput{Title: "Оплатити рахунок", Deadline: &deadline})
		require.NoError(t, err)

		var (
			wg       sync.WaitGroup
			editErr  error
			sweepErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, editErr = b.svc.Update(ctx, userID, task.ID, service.TaskInput{
				Title:    "Оплатити рахунок за світло",
				Deadline: &deadline,
			})
		}()
		go func() {
			defer wg.Done()
			_, sweepErr = sw.Tick(ctx, deadline.Add(time.Hour))
		}()
		wg.Wait()
		cancel()
		require.NoError(t, editErr)
		require.NoError(t, sweepErr)

		stored, err := b.tasks.GetByID(context.Background(), task.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, "Оплатити рахунок за світло", stored.Title)
		assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
		assert.Contains(t, b.categoryNames(t, task.ID, userID), domain.CategoryCompleted)
		assert.Equal(t, 1, b.countOfType(t, userID, domain.NotificationDeadlineExpired))
	}
}
