package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// UnreadCache is evicted whenever a user's notifications change.
type UnreadCache interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// Notifier persists notifications through a store.NotificationStore.
type Notifier struct {
	store  store.NotificationStore
	unread UnreadCache
	logger *slog.Logger
}

// NewNotifier creates a Notifier. unread may be nil.
func NewNotifier(notifications store.NotificationStore, unread UnreadCache, logger *slog.Logger) *Notifier {
	if notifications == nil {
		panic("notification store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		store:  notifications,
		unread: unread,
		logger: logger.With(slog.String("component", "notifier")),
	}
}

// Record stores a notification. Failures are logged and swallowed.
func (n *Notifier) Record(
	ctx context.Context,
	userID uuid.UUID,
	notificationType domain.NotificationType,
	message string,
	taskID *uuid.UUID,
) {
	log := logger.FromContextOrDefault(ctx, n.logger)

	notification, err := domain.NewNotification(userID, notificationType, message, taskID)
	if err != nil {
		log.Error("invalid notification",
			slog.String("type", string(notificationType)),
			slog.String("error", err.Error()))
		return
	}

	if err := n.store.Create(ctx, notification); err != nil {
		log.Error("failed to record notification",
			slog.String("type", string(notificationType)),
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return
	}
	n.invalidate(ctx, userID)
}

// RecordApproaching stores a deadline_approaching alert for task at
// thresholdHours. It returns store.ErrDuplicateAlert when the alert was
// already recorded.
func (n *Notifier) RecordApproaching(ctx context.Context, task *domain.Task, thresholdHours int) error {
	notification, err := domain.NewApproachingNotification(task, thresholdHours)
	if err != nil {
		return err
	}
	if err := n.store.Create(ctx, notification); err != nil {
		if !errors.Is(err, store.ErrDuplicateAlert) {
			logger.FromContextOrDefault(ctx, n.logger).Error("failed to record approaching alert",
				slog.String("task_id", task.ID.String()),
				slog.Int("threshold_hours", thresholdHours),
				slog.String("error", err.Error()))
		}
		return err
	}
	n.invalidate(ctx, task.UserID)
	return nil
}

// ExistsApproaching reports whether the alert for (taskID, thresholdHours) was recorded.
func (n *Notifier) ExistsApproaching(ctx context.Context, taskID uuid.UUID, thresholdHours int) (bool, error) {
	return n.store.ExistsApproaching(ctx, taskID, thresholdHours)
}

// NotifyLogin records a user_login notification.
func (n *Notifier) NotifyLogin(ctx context.Context, userID uuid.UUID, username string) {
	n.Record(ctx, userID, domain.NotificationLogin, domain.LoginMessage(username), nil)
}

// NotifyTaskCreated records task_created for a new task.
func (n *Notifier) NotifyTaskCreated(ctx context.Context, task *domain.Task) {
	n.Record(ctx, task.UserID, domain.NotificationTaskCreated, domain.TaskCreatedMessage(task.Title), &task.ID)
}

// NotifyTaskUpdated records task_updated for task.
func (n *Notifier) NotifyTaskUpdated(ctx context.Context, task *domain.Task) {
	n.Record(ctx, task.UserID, domain.NotificationTaskUpdated, domain.TaskUpdatedMessage(task.Title), &task.ID)
}

// NotifyTaskCompleted records task_completed for task.
func (n *Notifier) NotifyTaskCompleted(ctx context.Context, task *domain.Task) {
	n.Record(ctx, task.UserID, domain.NotificationTaskCompleted, domain.TaskCompletedMessage(task.Title), &task.ID)
}

// NotifyTaskDeleted records the deletion without a task reference, since
// the row is already gone.
func (n *Notifier) NotifyTaskDeleted(ctx context.Context, task *domain.Task) {
	n.Record(ctx, task.UserID, domain.NotificationTaskDeleted, domain.TaskDeletedMessage(task.Title), nil)
}

// NotifyBulkDeleted records a bulk deletion. all distinguishes "delete all"
// from "delete selected".
func (n *Notifier) NotifyBulkDeleted(ctx context.Context, userID uuid.UUID, count int, all bool) {
	message := domain.SelectedTasksDeletedMessage(count)
	if all {
		message = domain.AllTasksDeletedMessage(count)
	}
	n.Record(ctx, userID, domain.NotificationTaskDeleted, message, nil)
}

// NotifyDeadlineExpired records deadline_expired for a task the sweeper completed.
func (n *Notifier) NotifyDeadlineExpired(ctx context.Context, task *domain.Task) {
	n.Record(ctx, task.UserID, domain.NotificationDeadlineExpired, domain.DeadlineExpiredMessage(task.Title), &task.ID)
}

// NotifyTasksExported records the size of an export.
func (n *Notifier) NotifyTasksExported(ctx context.Context, userID uuid.UUID, count int) {
	n.Record(ctx, userID, domain.NotificationTasksExported, domain.TasksExportedMessage(count), nil)
}

// NotifyTasksImported records how many tasks an import created.
func (n *Notifier) NotifyTasksImported(ctx context.Context, userID uuid.UUID, count int) {
	n.Record(ctx, userID, domain.NotificationTasksImported, domain.TasksImportedMessage(count), nil)
}

func (n *Notifier) invalidate(ctx context.Context, userID uuid.UUID) {
	if n.unread != nil {
		n.unread.Invalidate(ctx, userID)
	}
}
