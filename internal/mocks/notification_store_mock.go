package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TestifyMockNotificationStore is a testify/mock implementation of store.NotificationStore.
type TestifyMockNotificationStore struct {
	mock.Mock
}

var _ store.NotificationStore = (*TestifyMockNotificationStore)(nil)

func (m *TestifyMockNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *TestifyMockNotificationStore) ExistsApproaching(
	ctx context.Context,
	taskID uuid.UUID,
	thresholdHours int,
) (bool, error) {
	args := m.Called(ctx, taskID, thresholdHours)
	return args.Bool(0), args.Error(1)
}

func (m *TestifyMockNotificationStore) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.Notification, error) {
	args := m.Called(ctx, userID, limit)
	if list, ok := args.Get(0).([]*domain.Notification); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TestifyMockNotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *TestifyMockNotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *TestifyMockNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *TestifyMockNotificationStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
