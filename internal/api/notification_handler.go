package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// NotificationHandler handles the notification feed endpoints.
type NotificationHandler struct {
	notifications service.NotificationService
	logger        *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifications service.NotificationService, logger *slog.Logger) *NotificationHandler {
	if notifications == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("notifications cannot be nil for NotificationHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger.With(slog.String("component", "notification_handler")),
	}
}

// ListNotifications handles GET /notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	list, err := h.notifications.List(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notifications")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, notificationsToResponse(list))
}

// ClearNotifications handles DELETE /notifications
func (h *NotificationHandler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	n, err := h.notifications.ClearAll(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to clear notifications")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{Count: n})
}

// UnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to count notifications")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{Count: count})
}

// MarkAllRead handles PUT /notifications/mark-all-read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	if err := h.notifications.MarkAllRead(r.Context(), userID); err != nil {
		HandleAPIError(w, r, err, "Failed to update notifications")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkRead handles PUT /notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, notificationID, ok := handleUserIDAndPathUUID(w, r, "id",
		logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), userID, notificationID); err != nil {
		HandleAPIError(w, r, err, "Failed to update notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordLogin handles POST /notifications/login. Clients call it once after
// signing in; the display name comes from the bearer token.
func (h *NotificationHandler) RecordLogin(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	username := shared.Username(r.Context())
	if username == "" {
		username = userID.String()
	}
	h.notifications.RecordLogin(r.Context(), userID, username)
	w.WriteHeader(http.StatusNoContent)
}
