package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// deadlineLayouts are the accepted deadline formats. Values without a zone
// are taken as UTC.
var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Deadline is a nullable timestamp that also accepts the zone-less values
// produced by HTML datetime-local inputs.
type Deadline struct {
	Time  time.Time
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler. null and "" clear the deadline.
func (d *Deadline) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Deadline{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("deadline must be a string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*d = Deadline{}
		return nil
	}

	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			*d = Deadline{Time: t.UTC(), Valid: true}
			return nil
		}
	}
	return fmt.Errorf("unsupported deadline format %q", raw)
}

// Ptr returns the deadline or nil.
func (d Deadline) Ptr() *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

// TaskRequest is the payload of POST /tasks and PUT /tasks/{id}.
type TaskRequest struct {
	Title       string   `json:"title"       validate:"required,notblank,max=255"`
	Description string   `json:"description" validate:"max=10000"`
	Deadline    Deadline `json:"deadline"`
	Priority    bool     `json:"priority"`
}

func (r TaskRequest) toInput() service.TaskInput {
	return service.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Deadline:    r.Deadline.Ptr(),
		Priority:    r.Priority,
	}
}

// DeleteSelectedRequest is the payload of POST /tasks/delete-selected.
type DeleteSelectedRequest struct {
	TaskIDs []uuid.UUID `json:"task_ids" validate:"required,min=1"`
}

// TaskTransfer is one element of the export and import payloads.
type TaskTransfer struct {
	Title       string     `json:"title"       validate:"max=255"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Priority    bool       `json:"priority"`
	Status      string     `json:"status"      validate:"omitempty,oneof=active completed"`
}

// TaskResponse is the JSON form of a task.
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Priority    bool       `json:"priority"`
	Status      string     `json:"status"`
	Pinned      bool       `json:"pinned"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StatusResponse is returned by PUT /tasks/{id}/complete.
type StatusResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// PriorityResponse is returned by PUT /tasks/{id}/priority.
type PriorityResponse struct {
	ID       uuid.UUID `json:"id"`
	Priority bool      `json:"priority"`
}

// PinResponse is returned by PUT /tasks/{id}/pin.
type PinResponse struct {
	ID     uuid.UUID `json:"id"`
	Pinned bool      `json:"pinned"`
}

// CountResponse reports how many rows an operation touched.
type CountResponse struct {
	Count int `json:"count"`
}

// CategoryResponse is the JSON form of a category.
type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NotificationResponse is the JSON form of a notification.
type NotificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	TaskID    *uuid.UUID `json:"task_id,omitempty"`
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline,
		Priority:    t.Priority,
		Status:      string(t.Status),
		Pinned:      t.Pinned,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToResponse(t))
	}
	return out
}

func categoriesToResponse(categories []domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryResponse{ID: c.ID, Name: string(c.Name)})
	}
	return out
}

func notificationsToResponse(list []*domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, NotificationResponse{
			ID:        n.ID,
			TaskID:    n.TaskID,
			Type:      string(n.Type),
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}

func transfersFromExport(items []service.ExportedTask) []TaskTransfer {
	out := make([]TaskTransfer, 0, len(items))
	for _, item := range items {
		out = append(out, TaskTransfer(item))
	}
	return out
}

func transfersToImport(items []TaskTransfer) []service.ExportedTask {
	out := make([]service.ExportedTask, 0, len(items))
	for _, item := range items {
		out = append(out, service.ExportedTask{
			Title:       item.Title,
			Description: item.Description,
			Deadline:    item.Deadline,
			Priority:    item.Priority,
			Status:      item.Status,
		})
	}
	return out
}
