package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskboard-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check them with errors.Is; the API layer maps them to status codes.
var (
	// ErrTaskNotFound indicates the task does not exist or belongs to another user.
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrNothingToExport is returned by Export when the user owns no tasks.
	// API layer should map this to HTTP 404 Not Found.
	ErrNothingToExport = errors.New("no tasks to export")

	// ErrInvalidImport is returned when an import payload holds no usable items.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidImport = errors.New("invalid import payload")

	// ErrEmptySelection is returned by DeleteSelected when no ids are given.
	ErrEmptySelection = errors.New("no tasks selected")
)

// TaskServiceError wraps errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task", "toggle_complete")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
// Known sentinel errors are returned directly without wrapping.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, store.ErrTaskNotFound):
		return ErrTaskNotFound
	case errors.Is(err, ErrNothingToExport):
		return ErrNothingToExport
	case errors.Is(err, ErrEmptySelection):
		return ErrEmptySelection
	}

	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// NotificationServiceError wraps errors from the notification service.
type NotificationServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for NotificationServiceError.
func (e *NotificationServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("notification service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("notification service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *NotificationServiceError) Unwrap() error {
	return e.Err
}

// NewNotificationServiceError creates a new NotificationServiceError.
func NewNotificationServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	return &NotificationServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
