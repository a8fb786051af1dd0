// Package mocks provides shared test doubles.
//
// MemoryDB backs in-memory implementations of store.TaskStore,
// store.CategoryStore and store.NotificationStore with fault injection
// hooks, and is what the tagging, sweeper and service tests run against.
// The function-field mocks follow the usual pattern:
//
//	taskService := &mocks.MockTaskService{
//	    GetFn: func(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
//	        return task, nil
//	    },
//	}
//
// Methods whose function field is nil return zero values.
package mocks
