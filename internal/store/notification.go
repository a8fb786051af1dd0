package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
type NotificationStore interface {
	// Create saves a notification. For deadline_approaching notifications a
	// second insert for the same (task, threshold) returns ErrDuplicateAlert.
	Create(ctx context.Context, n *domain.Notification) error

	// ExistsApproaching reports whether a deadline_approaching notification
	// was already recorded for taskID at thresholdHours.
	ExistsApproaching(ctx context.Context, taskID uuid.UUID, thresholdHours int) (bool, error)

	// ListForUser returns up to limit notifications of userID, newest first.
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error)

	// CountUnread returns the number of unread notifications of userID.
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// MarkRead flags one notification as read.
	// Returns ErrNotificationNotFound if it does not exist or belongs to someone else.
	MarkRead(ctx context.Context, id, userID uuid.UUID) error

	// MarkAllRead flags every notification of userID as read.
	MarkAllRead(ctx context.Context, userID uuid.UUID) error

	// DeleteAllForUser removes every notification of userID and returns the count.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int, error)
}
