package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskloop/taskloop-api/internal/events"
	"github.com/taskloop/taskloop-api/internal/platform/logger"
	"github.com/taskloop/taskloop-api/internal/store"
)

// PostgresOutboxStore implements the events.OutboxStore interface using the
// outbox_events table. Payloads are stored as JSONB.
type PostgresOutboxStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresOutboxStore creates a new PostgreSQL implementation of the
// OutboxStore interface. If logger is nil, a default logger will be used.
func NewPostgresOutboxStore(db store.DBTX, logger *slog.Logger) *PostgresOutboxStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresOutboxStore{
		db:     db,
		logger: logger.With(slog.String("component", "outbox_store")),
	}
}

// Ensure PostgresOutboxStore implements events.OutboxStore interface
var _ events.OutboxStore = (*PostgresOutboxStore)(nil)

// Enqueue implements events.OutboxStore.Enqueue
// The insert runs on the caller's transaction so the outbox row commits or
// rolls back together with the state change that produced the event.
func (s *PostgresOutboxStore) Enqueue(
	ctx context.Context,
	tx *sql.Tx,
	event *events.OutboxEvent,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	query := `
		INSERT INTO outbox_events (stream, event_type, event_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = tx.QueryRowContext(
		ctx,
		query,
		event.Stream,
		event.EventType,
		event.EventID,
		payload,
		event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		log.Error("failed to enqueue outbox event",
			slog.String("error", err.Error()),
			slog.String("stream", event.Stream),
			slog.String("event_type", event.EventType))
		return MapError(err)
	}

	log.Debug("outbox event enqueued",
		slog.Int64("outbox_id", event.ID),
		slog.String("stream", event.Stream),
		slog.String("event_type", event.EventType),
		slog.String("event_id", event.EventID.String()))
	return nil
}

// FetchUnpublished implements events.OutboxStore.FetchUnpublished
// Rows come back in insertion order so the relay preserves per-stream
// publish order.
func (s *PostgresOutboxStore) FetchUnpublished(
	ctx context.Context,
	limit int,
) ([]*events.OutboxEvent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, stream, event_type, event_id, payload, created_at, published_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		log.Error("failed to fetch unpublished outbox events",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var pending []*events.OutboxEvent
	for rows.Next() {
		var (
			event   events.OutboxEvent
			payload []byte
		)
		err := rows.Scan(
			&event.ID,
			&event.Stream,
			&event.EventType,
			&event.EventID,
			&payload,
			&event.CreatedAt,
			&event.PublishedAt,
		)
		if err != nil {
			return nil, MapError(err)
		}
		if err := json.Unmarshal(payload, &event.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outbox payload for row %d: %w",
				event.ID, err)
		}
		pending = append(pending, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return pending, nil
}

// MarkPublished implements events.OutboxStore.MarkPublished
func (s *PostgresOutboxStore) MarkPublished(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(
		ctx,
		`UPDATE outbox_events SET published_at = $2 WHERE id = $1 AND published_at IS NULL`,
		id,
		time.Now().UTC(),
	)
	if err != nil {
		return MapError(err)
	}
	// Marking an already-published row is a no-op, not an error: the relay
	// may retry after a crash between publish and mark.
	_, err = result.RowsAffected()
	return err
}
