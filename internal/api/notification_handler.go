package api

import (
	"net/http"

	"github.com/taskloop/taskloop-api/internal/service"
)

// NotificationHandler handles notification API requests.
type NotificationHandler struct {
	notifications service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifications service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	notifications, err := h.notifications.ListNotifications(
		r.Context(), userID, queryLimit(r, defaultListLimit, maxListLimit))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, notifications)
}

// MarkRead handles POST /notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	notificationID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkNotificationRead(r.Context(), notificationID, userID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
