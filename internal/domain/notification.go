package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies the domain event a notification was created for.
type NotificationType string

// Notification types. The string values are persisted.
const (
	NotificationLogin               NotificationType = "user_login"
	NotificationTaskCreated         NotificationType = "task_created"
	NotificationTaskUpdated         NotificationType = "task_updated"
	NotificationTaskCompleted       NotificationType = "task_completed"
	NotificationTaskDeleted         NotificationType = "task_deleted"
	NotificationDeadlineApproaching NotificationType = "deadline_approaching"
	NotificationDeadlineExpired     NotificationType = "deadline_expired"
	NotificationTasksExported       NotificationType = "tasks_exported"
	NotificationTasksImported       NotificationType = "tasks_imported"
)

// DeadlineThresholds are the lead times, in hours, at which a one-time
// "approaching deadline" alert fires. Ordered from the furthest out.
var DeadlineThresholds = []int{24, 12, 6, 3, 1}

// ThresholdWindow is the width of the scan window that precedes each
// threshold. A deadline is in the window for lead time L when it falls in
// (now+L-ThresholdWindow, now+L].
const ThresholdWindow = 30 * time.Minute

// Common validation errors for Notification
var (
	ErrEmptyNotificationUserID  = errors.New("notification user ID cannot be empty")
	ErrEmptyNotificationMessage = errors.New("notification message cannot be empty")
	ErrInvalidNotificationType  = errors.New("invalid notification type")
	ErrMissingThreshold         = errors.New("approaching notification requires a task and threshold")
)

// Notification is a message surfaced to a user about activity on their tasks.
// ThresholdHours is only set for deadline_approaching notifications and,
// together with TaskID, is the dedup key for those alerts.
type Notification struct {
	ID             uuid.UUID        `json:"id"`
	UserID         uuid.UUID        `json:"user_id"`
	TaskID         *uuid.UUID       `json:"task_id,omitempty"`
	Type           NotificationType `json:"type"`
	Message        string           `json:"message"`
	ThresholdHours *int             `json:"threshold_hours,omitempty"`
	IsRead         bool             `json:"is_read"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NewNotification creates an unread notification.
func NewNotification(
	userID uuid.UUID,
	notificationType NotificationType,
	message string,
	taskID *uuid.UUID,
) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		TaskID:    taskID,
		Type:      notificationType,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// NewApproachingNotification creates a deadline_approaching notification
// keyed on (taskID, thresholdHours).
func NewApproachingNotification(task *Task, thresholdHours int) (*Notification, error) {
	taskID := task.ID
	n := &Notification{
		ID:             uuid.New(),
		UserID:         task.UserID,
		TaskID:         &taskID,
		Type:           NotificationDeadlineApproaching,
		Message:        DeadlineApproachingMessage(task.Title, thresholdHours),
		ThresholdHours: &thresholdHours,
		CreatedAt:      time.Now().UTC(),
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.UserID == uuid.Nil {
		return ErrEmptyNotificationUserID
	}
	if n.Message == "" {
		return ErrEmptyNotificationMessage
	}
	if !n.Type.IsValid() {
		return ErrInvalidNotificationType
	}
	if n.Type == NotificationDeadlineApproaching && (n.TaskID == nil || n.ThresholdHours == nil) {
		return ErrMissingThreshold
	}
	return nil
}

// IsValid reports whether t is a known notification type.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationLogin, NotificationTaskCreated, NotificationTaskUpdated,
		NotificationTaskCompleted, NotificationTaskDeleted,
		NotificationDeadlineApproaching, NotificationDeadlineExpired,
		NotificationTasksExported, NotificationTasksImported:
		return true
	default:
		return false
	}
}

// Message templates shown to users.

// LoginMessage is recorded when a user signs in.
func LoginMessage(username string) string {
	return fmt.Sprintf("Ви увійшли в систему як %s.", username)
}

// TaskCreatedMessage announces a new task by its quoted title.
func TaskCreatedMessage(title string) string {
	return fmt.Sprintf("Створено нове завдання: %q.", title)
}

// TaskUpdatedMessage is used for edits and for reopening a completed task.
func TaskUpdatedMessage(title string) string {
	return fmt.Sprintf("Завдання %q було оновлено.", title)
}

// TaskCompletedMessage is used when the user marks a task done.
func TaskCompletedMessage(title string) string {
	return fmt.Sprintf("Завдання %q виконано.", title)
}

// TaskDeletedMessage names a single deleted task.
func TaskDeletedMessage(title string) string {
	return fmt.Sprintf("Завдання %q було видалено.", title)
}

// AllTasksDeletedMessage reports how many tasks "delete all" removed.
func AllTasksDeletedMessage(count int) string {
	return fmt.Sprintf("Видалено всі %d завдань.", count)
}

// SelectedTasksDeletedMessage reports how many selected tasks were removed.
func SelectedTasksDeletedMessage(count int) string {
	return fmt.Sprintf("Видалено вибрані %d завдань.", count)
}

// DeadlineApproachingMessage warns that hoursLeft hours remain before the deadline.
func DeadlineApproachingMessage(title string, hoursLeft int) string {
	return fmt.Sprintf("Увага! До завершення %q залишилось %d год.", title, hoursLeft)
}

// DeadlineExpiredMessage is recorded when the sweeper completes an overdue task.
// The title is not quoted.
func DeadlineExpiredMessage(title string) string {
	return fmt.Sprintf("Завдання %s автоматично завершено.", title)
}

// TasksExportedMessage reports the size of an export.
func TasksExportedMessage(count int) string {
	return fmt.Sprintf("Експортовано %d завдань.", count)
}

// TasksImportedMessage reports how many tasks an import created.
func TasksImportedMessage(count int) string {
	return fmt.Sprintf("Імпортовано %d завдань.", count)
}
