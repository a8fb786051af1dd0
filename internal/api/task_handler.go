package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/redact"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// ExportFilename is suggested to clients downloading an export.
const ExportFilename = "tasks_export.json"

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if tasks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tasks cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /tasks. Supports ?category_id= and ?pinned=true.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	categoryID, err := queryInt64(r, "category_id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, err := h.tasks.List(r.Context(), userID, service.ListOptions{
		CategoryID: categoryID,
		PinnedOnly: queryBool(r, "pinned"),
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// CreateTask handles POST /tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req TaskRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, req.toInput())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// GetTask handles GET /tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PUT /tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req TaskRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	task, err := h.tasks.Update(r.Context(), userID, taskID, req.toInput())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllTasks handles DELETE /tasks
func (h *TaskHandler) DeleteAllTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	n, err := h.tasks.DeleteAll(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{Count: n})
}

// DeleteSelectedTasks handles POST /tasks/delete-selected
func (h *TaskHandler) DeleteSelectedTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req DeleteSelectedRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	n, err := h.tasks.DeleteSelected(r.Context(), userID, req.TaskIDs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{Count: n})
}

// SearchTasks handles GET /tasks/search?q=
func (h *TaskHandler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	tasks, err := h.tasks.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to search tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// SortedTasks handles GET /tasks/sorted?sort=&q=
func (h *TaskHandler) SortedTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	query := r.URL.Query()
	tasks, err := h.tasks.Sorted(r.Context(), userID, query.Get("sort"), query.Get("q"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to sort tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// TaskCategories handles GET /tasks/{id}/categories
func (h *TaskHandler) TaskCategories(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	categories, err := h.tasks.Categories(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list task categories")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, categoriesToResponse(categories))
}

// ToggleComplete handles PUT /tasks/{id}/complete
func (h *TaskHandler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.tasks.ToggleComplete(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{ID: task.ID, Status: string(task.Status)})
}

// TogglePriority handles PUT /tasks/{id}/priority
func (h *TaskHandler) TogglePriority(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.tasks.TogglePriority(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PriorityResponse{ID: task.ID, Priority: task.Priority})
}

// TogglePin handles PUT /tasks/{id}/pin
func (h *TaskHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.tasks.TogglePin(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PinResponse{ID: task.ID, Pinned: task.Pinned})
}

// ExportTasks handles GET /tasks/export. The body is a JSON array offered
// as a file download.
func (h *TaskHandler) ExportTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	exported, err := h.tasks.Export(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to export tasks")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	shared.RespondWithJSON(w, r, http.StatusOK, transfersFromExport(exported))
}

// ImportTasks handles POST /tasks/import. The body is the array produced
// by ExportTasks.
func (h *TaskHandler) ImportTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var items []TaskTransfer
	if err := shared.DecodeJSON(r, &items); err != nil {
		log.Warn("invalid import payload", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid import data")
		return
	}
	if err := shared.Validate.Var(items, "required,min=1,dive"); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid import data", err)
		return
	}

	n, err := h.tasks.Import(r.Context(), userID, transfersToImport(items))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to import tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, CountResponse{Count: n})
}
