package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/taskloop/taskloop-api/internal/events"
	"github.com/taskloop/taskloop-api/internal/platform/logger"
	"github.com/taskloop/taskloop-api/internal/store"
)

// PostgresCursorStore implements the events.CursorStore interface using the
// consumer_offsets table, keyed by (consumer, stream).
type PostgresCursorStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCursorStore creates a new PostgreSQL implementation of the
// CursorStore interface. If logger is nil, a default logger will be used.
func NewPostgresCursorStore(db store.DBTX, logger *slog.Logger) *PostgresCursorStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCursorStore{
		db:     db,
		logger: logger.With(slog.String("component", "cursor_store")),
	}
}

// Ensure PostgresCursorStore implements events.CursorStore interface
var _ events.CursorStore = (*PostgresCursorStore)(nil)

// Get implements events.CursorStore.Get
// A consumer that has never committed a cursor for the stream starts from
// events.CursorStart, i.e. the beginning of the stream.
func (s *PostgresCursorStore) Get(ctx context.Context, consumer, stream string) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT position
		FROM consumer_offsets
		WHERE consumer = $1 AND stream = $2
	`
	var position string
	err := s.db.QueryRowContext(ctx, query, consumer, stream).Scan(&position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return events.CursorStart, nil
		}
		log.Error("failed to load consumer cursor",
			slog.String("error", err.Error()),
			slog.String("consumer", consumer),
			slog.String("stream", stream))
		return "", MapError(err)
	}
	return position, nil
}

// Set implements events.CursorStore.Set
func (s *PostgresCursorStore) Set(ctx context.Context, consumer, stream, position string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO consumer_offsets (consumer, stream, position, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (consumer, stream) DO UPDATE
		SET position = EXCLUDED.position,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, consumer, stream, position, time.Now().UTC())
	if err != nil {
		log.Error("failed to persist consumer cursor",
			slog.String("error", err.Error()),
			slog.String("consumer", consumer),
			slog.String("stream", stream),
			slog.String("position", position))
		return MapError(err)
	}
	return nil
}
