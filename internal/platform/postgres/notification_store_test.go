package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockNotificationStore(t *testing.T) (*PostgresNotificationStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresNotificationStore(db, nil), mock
}

func TestPostgresNotificationStore_Create(t *testing.T) {
	task := &domain.Task{ID: uuid.New(), UserID: uuid.New(), Title: "Звіт"}
	alert, err := domain.NewApproachingNotification(task, 3)
	require.NoError(t, err)

	t.Run("inserted", func(t *testing.T) {
		s, mock := newMockNotificationStore(t)
		mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (task_id, threshold_hours) WHERE type = 'deadline_approaching' DO NOTHING")).
			WithArgs(alert.ID, alert.UserID, task.ID, "deadline_approaching", alert.Message, 3, false, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(context.Background(), alert))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second alert for same threshold is a duplicate", func(t *testing.T) {
		s, mock := newMockNotificationStore(t)
		mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.Create(context.Background(), alert)
		assert.ErrorIs(t, err, store.ErrDuplicateAlert)
		assert.True(t, store.IsDuplicateError(err))
	})

	t.Run("notification without task stores null", func(t *testing.T) {
		s, mock := newMockNotificationStore(t)
		n, err := domain.NewNotification(task.UserID, domain.NotificationTaskDeleted, domain.TaskDeletedMessage("Звіт"), nil)
		require.NoError(t, err)

		mock.ExpectExec("INSERT INTO notifications").
			WithArgs(n.ID, n.UserID, nil, "task_deleted", n.Message, nil, false, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(context.Background(), n))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid notification never reaches the database", func(t *testing.T) {
		s, mock := newMockNotificationStore(t)
		err := s.Create(context.Background(), &domain.Notification{UserID: task.UserID, Type: domain.NotificationLogin})
		assert.ErrorIs(t, err, domain.ErrEmptyNotificationMessage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresNotificationStore_ExistsApproaching(t *testing.T) {
	s, mock := newMockNotificationStore(t)
	taskID := uuid.New()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(taskID, 12).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := s.ExistsApproaching(context.Background(), taskID, 12)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPostgresNotificationStore_ListForUser(t *testing.T) {
	s, mock := newMockNotificationStore(t)
	userID, taskID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "user_id", "task_id", "type", "message", "threshold_hours", "is_read", "created_at"}).
		AddRow(uuid.New().String(), userID.String(), taskID.String(), "deadline_approaching", "Увага!", int64(6), false, now).
		AddRow(uuid.New().String(), userID.String(), nil, "user_login", "Вхід", nil, true, now.Add(-time.Hour))

	mock.ExpectQuery(`ORDER BY created_at DESC\s+LIMIT \$2`).
		WithArgs(userID, 50).
		WillReturnRows(rows)

	list, err := s.ListForUser(context.Background(), userID, 50)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NotNil(t, list[0].TaskID)
	assert.Equal(t, taskID, *list[0].TaskID)
	require.NotNil(t, list[0].ThresholdHours)
	assert.Equal(t, 6, *list[0].ThresholdHours)

	assert.Nil(t, list[1].TaskID)
	assert.Nil(t, list[1].ThresholdHours)
	assert.True(t, list[1].IsRead)
}

func TestPostgresNotificationStore_ReadState(t *testing.T) {
	s, mock := newMockNotificationStore(t)
	id, userID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	count, err := s.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE WHERE id = \$1`).
		WithArgs(id, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.MarkRead(context.Background(), id, userID), store.ErrNotificationNotFound)

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE WHERE user_id = \$1`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	assert.NoError(t, s.MarkAllRead(context.Background(), userID))

	mock.ExpectExec(`DELETE FROM notifications WHERE user_id = \$1`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 7))
	n, err := s.DeleteAllForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
