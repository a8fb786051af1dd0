package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// MockTaskService is a function-field service.TaskService.
type MockTaskService struct {
	CreateFn         func(ctx context.Context, userID uuid.UUID, input service.TaskInput) (*domain.Task, error)
	GetFn            func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	UpdateFn         func(ctx context.Context, userID, taskID uuid.UUID, input service.TaskInput) (*domain.Task, error)
	ToggleCompleteFn func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	TogglePriorityFn func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	TogglePinFn      func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	DeleteFn         func(ctx context.Context, userID, taskID uuid.UUID) error
	DeleteAllFn      func(ctx context.Context, userID uuid.UUID) (int, error)
	DeleteSelectedFn func(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error)
	ListFn           func(ctx context.Context, userID uuid.UUID, opts service.ListOptions) ([]*domain.Task, error)
	SearchFn         func(ctx context.Context, userID uuid.UUID, query string) ([]*domain.Task, error)
	SortedFn         func(ctx context.Context, userID uuid.UUID, sortKey, query string) ([]*domain.Task, error)
	CategoriesFn     func(ctx context.Context, userID, taskID uuid.UUID) ([]domain.Category, error)
	ExportFn         func(ctx context.Context, userID uuid.UUID) ([]service.ExportedTask, error)
	ImportFn         func(ctx context.Context, userID uuid.UUID, items []service.ExportedTask) (int, error)
}

var _ service.TaskService = (*MockTaskService)(nil)

func (m *MockTaskService) Create(ctx context.Context, userID uuid.UUID, input service.TaskInput) (*domain.Task, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, userID, input)
	}
	return nil, nil
}

func (m *MockTaskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, userID, taskID)
	}
	return nil, nil
}

func (m *MockTaskService) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	input service.TaskInput,
) (*domain.Task, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, userID, taskID, input)
	}
	return nil, nil
}

func (m *MockTaskService) ToggleComplete(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	if m.ToggleCompleteFn != nil {
		return m.ToggleCompleteFn(ctx, userID, taskID)
	}
	return nil, nil
}

func (m *MockTaskService) TogglePriority(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	if m.TogglePriorityFn != nil {
		return m.TogglePriorityFn(ctx, userID, taskID)
	}
	return nil, nil
}

func (m *MockTaskService) TogglePin(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	if m.TogglePinFn != nil {
		return m.TogglePinFn(ctx, userID, taskID)
	}
	return nil, nil
}

func (m *MockTaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, taskID)
	}
	return nil
}

func (m *MockTaskService) DeleteAll(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.DeleteAllFn != nil {
		return m.DeleteAllFn(ctx, userID)
	}
	return 0, nil
}

func (m *MockTaskService) DeleteSelected(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	if m.DeleteSelectedFn != nil {
		return m.DeleteSelectedFn(ctx, userID, ids)
	}
	return 0, nil
}

func (m *MockTaskService) List(
	ctx context.Context,
	userID uuid.UUID,
	opts service.ListOptions,
) ([]*domain.Task, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, userID, opts)
	}
	return nil, nil
}

func (m *MockTaskService) Search(ctx context.Context, userID uuid.UUID, query string) ([]*domain.Task, error) {
	if m.SearchFn != nil {
		return m.SearchFn(ctx, userID, query)
	}
	return nil, nil
}

func (m *MockTaskService) Sorted(ctx context.Context, userID uuid.UUID, sortKey, query string) ([]*domain.Task, error) {
	if m.SortedFn != nil {
		return m.SortedFn(ctx, userID, sortKey, query)
	}
	return nil, nil
}

func (m *MockTaskService) Categories(ctx context.Context, userID, taskID uuid.UUID) ([]domain.Category, error) {
	if m.CategoriesFn != nil {
		return m.CategoriesFn(ctx, userID, taskID)
	}
	return nil, nil
}

func (m *MockTaskService) Export(ctx context.Context, userID uuid.UUID) ([]service.ExportedTask, error) {
	if m.ExportFn != nil {
		return m.ExportFn(ctx, userID)
	}
	return nil, nil
}

func (m *MockTaskService) Import(ctx context.Context, userID uuid.UUID, items []service.ExportedTask) (int, error) {
	if m.ImportFn != nil {
		return m.ImportFn(ctx, userID, items)
	}
	return 0, nil
}
