package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/events"
	"github.com/taskloop/taskloop-api/internal/platform/logger"
	"github.com/taskloop/taskloop-api/internal/store"
)

// PostgresReceiptStore implements the events.ReceiptStore interface using the
// processed_events table, keyed by (consumer, event_id). Receipts are the
// dedup record behind at-least-once delivery: a redelivered event whose ID
// already has a receipt is skipped instead of reapplied.
type PostgresReceiptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReceiptStore creates a new PostgreSQL implementation of the
// ReceiptStore interface. If logger is nil, a default logger will be used.
func NewPostgresReceiptStore(db store.DBTX, logger *slog.Logger) *PostgresReceiptStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReceiptStore{
		db:     db,
		logger: logger.With(slog.String("component", "receipt_store")),
	}
}

// Ensure PostgresReceiptStore implements events.ReceiptStore interface
var _ events.ReceiptStore = (*PostgresReceiptStore)(nil)

// Seen implements events.ReceiptStore.Seen
func (s *PostgresReceiptStore) Seen(
	ctx context.Context,
	consumer string,
	eventID uuid.UUID,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM processed_events
			WHERE consumer = $1 AND event_id = $2
		)
	`
	var seen bool
	err := s.db.QueryRowContext(ctx, query, consumer, eventID).Scan(&seen)
	if err != nil {
		return false, MapError(err)
	}
	return seen, nil
}

// MarkProcessed implements events.ReceiptStore.MarkProcessed
// Conflicts are ignored: marking the same event twice is harmless and can
// happen when a consumer crashes between marking and committing its cursor.
func (s *PostgresReceiptStore) MarkProcessed(
	ctx context.Context,
	consumer string,
	eventID uuid.UUID,
) error {
	query := `
		INSERT INTO processed_events (consumer, event_id, processed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (consumer, event_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, consumer, eventID, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return nil
}

// Prune implements events.ReceiptStore.Prune
func (s *PostgresReceiptStore) Prune(
	ctx context.Context,
	consumer string,
	olderThan time.Duration,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := s.db.ExecContext(
		ctx,
		`DELETE FROM processed_events WHERE consumer = $1 AND processed_at < $2`,
		consumer,
		cutoff,
	)
	if err != nil {
		log.Error("failed to prune processed-event receipts",
			slog.String("error", err.Error()),
			slog.String("consumer", consumer))
		return 0, MapError(err)
	}

	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if pruned > 0 {
		log.Info("pruned processed-event receipts",
			slog.String("consumer", consumer),
			slog.Int64("pruned", pruned))
	}
	return pruned, nil
}
