package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/store"
)

// NotificationService exposes the user-facing side of the notification
// inbox. Notifications are created by the fan-out reactor; this service
// only reads and acknowledges them.
type NotificationService interface {
	// ListNotifications retrieves the user's notifications, newest first.
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error)

	// MarkNotificationRead acknowledges one of the user's notifications.
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
}

// notificationServiceImpl implements the NotificationService interface
type notificationServiceImpl struct {
	notifications store.NotificationStore
	logger        *slog.Logger
}

// NewNotificationService creates a new NotificationService.
// It returns an error if any of the required dependencies are nil.
func NewNotificationService(
	notifications store.NotificationStore,
	logger *slog.Logger,
) (NotificationService, error) {
	if notifications == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "notifications cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &notificationServiceImpl{
		notifications: notifications,
		logger:        logger.With("component", "notification_service"),
	}, nil
}

// ListNotifications retrieves the user's notifications, newest first.
func (s *notificationServiceImpl) ListNotifications(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.Notification, error) {
	notifications, err := s.notifications.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, NewServiceError("list_notifications", "failed to list notifications", err)
	}
	return notifications, nil
}

// MarkNotificationRead acknowledges one of the user's notifications.
func (s *notificationServiceImpl) MarkNotificationRead(
	ctx context.Context,
	id, userID uuid.UUID,
) error {
	if err := s.notifications.MarkRead(ctx, id, userID); err != nil {
		if store.IsNotFoundError(err) {
			return ErrNotificationNotFound
		}
		return NewServiceError("mark_notification_read", "failed to mark notification", err)
	}
	return nil
}
