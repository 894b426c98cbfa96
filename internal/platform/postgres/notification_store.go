package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/platform/logger"
	"github.com/taskloop/taskloop-api/internal/store"
)

// PostgresNotificationStore implements the store.NotificationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a new PostgreSQL implementation of the
// NotificationStore interface. If logger is nil, a default logger will be used.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

// Ensure PostgresNotificationStore implements store.NotificationStore interface
var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// Create implements store.NotificationStore.Create
func (s *PostgresNotificationStore) Create(
	ctx context.Context,
	notification *domain.Notification,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := notification.Validate(); err != nil {
		log.Warn("notification validation failed during create",
			slog.String("error", err.Error()),
			slog.String("notification_id", notification.ID.String()))
		return err
	}

	query := `
		INSERT INTO notifications (id, user_id, kind, title, body, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		notification.ID,
		notification.UserID,
		notification.Kind,
		notification.Title,
		notification.Body,
		notification.Read,
		notification.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, notification.UserID)
		}
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", notification.ID.String()))
		return MapError(err)
	}

	log.Debug("notification created",
		slog.String("notification_id", notification.ID.String()),
		slog.String("user_id", notification.UserID.String()),
		slog.String("kind", string(notification.Kind)))
	return nil
}

// ListByUser implements store.NotificationStore.ListByUser
func (s *PostgresNotificationStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, kind, title, body, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		log.Error("failed to list notifications", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Kind,
			&n.Title,
			&n.Body,
			&n.Read,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, MapError(err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return notifications, nil
}

// MarkRead implements store.NotificationStore.MarkRead
// Returns store.ErrNotificationNotFound if no matching notification exists.
func (s *PostgresNotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	result, err := s.db.ExecContext(
		ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		id,
		userID,
	)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "notification"); err != nil {
		return store.ErrNotificationNotFound
	}
	return nil
}

// WithTx implements store.NotificationStore.WithTx
func (s *PostgresNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return &PostgresNotificationStore{
		db:     tx,
		logger: s.logger,
	}
}
