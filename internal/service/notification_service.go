package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// NotificationListLimit is the default cap on how many notifications List returns.
const NotificationListLimit = 50

// NotificationOption configures a NotificationService.
type NotificationOption func(*notificationServiceImpl)

// WithListLimit overrides NotificationListLimit. Non-positive values are ignored.
func WithListLimit(limit int) NotificationOption {
	return func(s *notificationServiceImpl) {
		if limit > 0 {
			s.listLimit = limit
		}
	}
}

// UnreadCounter caches per-user unread counts. SetIfCurrent skips the write
// when the cache was invalidated after Version returned version.
type UnreadCounter interface {
	Get(ctx context.Context, userID uuid.UUID) (int, bool)
	Version(ctx context.Context, userID uuid.UUID) int64
	SetIfCurrent(ctx context.Context, userID uuid.UUID, count int, version int64)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// LoginRecorder records the login notification.
type LoginRecorder interface {
	NotifyLogin(ctx context.Context, userID uuid.UUID, username string)
}

// NotificationService provides operations on a user's notification feed.
type NotificationService interface {
	// List returns the latest notifications, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	// ClearAll deletes the whole feed and returns how many entries were removed.
	ClearAll(ctx context.Context, userID uuid.UUID) (int, error)
	RecordLogin(ctx context.Context, userID uuid.UUID, username string)
}

type notificationServiceImpl struct {
	notifications store.NotificationStore
	unread        UnreadCounter
	login         LoginRecorder
	listLimit     int
	logger        *slog.Logger
}

var _ NotificationService = (*notificationServiceImpl)(nil)

// NewNotificationService creates a new NotificationService. unread may be nil.
func NewNotificationService(
	notifications store.NotificationStore,
	unread UnreadCounter,
	login LoginRecorder,
	logger *slog.Logger,
	opts ...NotificationOption,
) (NotificationService, error) {
	if notifications == nil {
		return nil, domain.NewValidationError("notifications", "cannot be nil", domain.ErrValidation)
	}
	if login == nil {
		return nil, domain.NewValidationError("login", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &notificationServiceImpl{
		notifications: notifications,
		unread:        unread,
		login:         login,
		listLimit:     NotificationListLimit,
		logger:        logger.With(slog.String("component", "notification_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *notificationServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	list, err := s.notifications.ListForUser(ctx, userID, s.listLimit)
	if err != nil {
		return nil, NewNotificationServiceError("list_notifications", "failed to list notifications", err)
	}
	return list, nil
}

// UnreadCount serves from the cache when possible and fills it on a miss.
func (s *notificationServiceImpl) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var version int64
	if s.unread != nil {
		if count, ok := s.unread.Get(ctx, userID); ok {
			return count, nil
		}
		version = s.unread.Version(ctx, userID)
	}

	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, NewNotificationServiceError("unread_count", "failed to count notifications", err)
	}

	if s.unread != nil {
		s.unread.SetIfCurrent(ctx, userID, count, version)
	}
	return count, nil
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := s.notifications.MarkRead(ctx, notificationID, userID); err != nil {
		return NewNotificationServiceError("mark_read", "failed to mark notification read", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return NewNotificationServiceError("mark_all_read", "failed to mark notifications read", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *notificationServiceImpl) ClearAll(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.notifications.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, NewNotificationServiceError("clear_notifications", "failed to clear notifications", err)
	}
	s.invalidate(ctx, userID)

	logger.FromContextOrDefault(ctx, s.logger).Info("notifications cleared",
		slog.String("user_id", userID.String()),
		slog.Int("count", n))
	return n, nil
}

func (s *notificationServiceImpl) RecordLogin(ctx context.Context, userID uuid.UUID, username string) {
	s.login.NotifyLogin(ctx, userID, username)
}

func (s *notificationServiceImpl) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.unread != nil {
		s.unread.Invalidate(ctx, userID)
	}
}
