package api

import "github.com/go-chi/chi/v5"

// Handlers groups the authenticated handlers mounted under /api.
type Handlers struct {
	Tasks         *TaskHandler
	Notifications *NotificationHandler
	Categories    *CategoryHandler
}

// RegisterRoutes mounts the task board routes on r. Authentication is the
// caller's concern.
func (h Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.Tasks.ListTasks)
		r.Post("/", h.Tasks.CreateTask)
		r.Delete("/", h.Tasks.DeleteAllTasks)
		r.Post("/delete-selected", h.Tasks.DeleteSelectedTasks)
		r.Get("/export", h.Tasks.ExportTasks)
		r.Post("/import", h.Tasks.ImportTasks)
		r.Get("/search", h.Tasks.SearchTasks)
		r.Get("/sorted", h.Tasks.SortedTasks)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Tasks.GetTask)
			r.Put("/", h.Tasks.UpdateTask)
			r.Delete("/", h.Tasks.DeleteTask)
			r.Get("/categories", h.Tasks.TaskCategories)
			r.Put("/complete", h.Tasks.ToggleComplete)
			r.Put("/priority", h.Tasks.TogglePriority)
			r.Put("/pin", h.Tasks.TogglePin)
		})
	})

	r.Get("/categories", h.Categories.ListCategories)

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.Notifications.ListNotifications)
		r.Delete("/", h.Notifications.ClearNotifications)
		r.Get("/unread-count", h.Notifications.UnreadCount)
		r.Put("/mark-all-read", h.Notifications.MarkAllRead)
		r.Post("/login", h.Notifications.RecordLogin)
		r.Put("/{id}/read", h.Notifications.MarkRead)
	})
}
