package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// PostgresNotificationStore implements store.NotificationStore using PostgreSQL.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a notification store on top of db.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// Create implements store.NotificationStore. The conflict target matches the
// partial unique index on approaching alerts, so other types never conflict.
func (s *PostgresNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := n.Validate(); err != nil {
		log.Warn("notification validation failed",
			slog.String("error", err.Error()),
			slog.String("type", string(n.Type)))
		return err
	}

	query := `
		INSERT INTO notifications (id, user_id, task_id, type, message, threshold_hours, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (task_id, threshold_hours) WHERE type = 'deadline_approaching' DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		nullableUUID(n.TaskID),
		string(n.Type),
		n.Message,
		n.ThresholdHours,
		n.IsRead,
		n.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("type", string(n.Type)),
			slog.String("user_id", n.UserID.String()))
		return MapError(err)
	}

	if err := checkRowsAffected(result, store.ErrDuplicateAlert); err != nil {
		log.Debug("approaching alert already recorded",
			slog.String("type", string(n.Type)))
		return err
	}
	return nil
}

// ExistsApproaching implements store.NotificationStore.
func (s *PostgresNotificationStore) ExistsApproaching(
	ctx context.Context,
	taskID uuid.UUID,
	thresholdHours int,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE task_id = $1 AND threshold_hours = $2 AND type = 'deadline_approaching'
		)
	`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, taskID, thresholdHours).Scan(&exists); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to check approaching alert",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.Int("threshold_hours", thresholdHours))
		return false, MapError(err)
	}
	return exists, nil
}

// ListForUser implements store.NotificationStore.
func (s *PostgresNotificationStore) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, task_id, type, message, threshold_hours, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		log.Error("failed to list notifications",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		var (
			n         domain.Notification
			taskID    uuid.NullUUID
			threshold sql.NullInt32
			nType     string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &taskID, &nType, &n.Message, &threshold, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		if taskID.Valid {
			id := taskID.UUID
			n.TaskID = &id
		}
		if threshold.Valid {
			h := int(threshold.Int32)
			n.ThresholdHours = &h
		}
		n.Type = domain.NotificationType(nType)
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return notifications, nil
}

// CountUnread implements store.NotificationStore.
func (s *PostgresNotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count unread notifications",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}
	return count, nil
}

// MarkRead implements store.NotificationStore.
func (s *PostgresNotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to mark notification read",
			slog.String("error", err.Error()),
			slog.String("notification_id", id.String()))
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrNotificationNotFound)
}

// MarkAllRead implements store.NotificationStore.
func (s *PostgresNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to mark notifications read",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}
	return nil
}

// DeleteAllForUser implements store.NotificationStore.
func (s *PostgresNotificationStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to clear notifications",
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

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
