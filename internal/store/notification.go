package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
type NotificationStore interface {
	// Create saves a new notification.
	Create(ctx context.Context, notification *domain.Notification) error

	// ListByUser retrieves the user's notifications, most recent first,
	// up to limit.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error)

	// MarkRead marks the notification as read. The userID guards against
	// marking another user's notification.
	// Returns ErrNotificationNotFound if no matching notification exists.
	MarkRead(ctx context.Context, id, userID uuid.UUID) error

	// WithTx returns a NotificationStore bound to the given transaction.
	WithTx(tx *sql.Tx) NotificationStore
}
