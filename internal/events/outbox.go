package events

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is an announcement written in the same local transaction as
// the business mutation it describes. The relay moves unpublished rows to
// the broker; the stored EventID becomes the envelope's event ID, so a
// relay retry republishes the same occurrence rather than minting a new
// one.
type OutboxEvent struct {
	ID          int64             `json:"id"`
	Stream      string            `json:"stream"`
	EventType   string            `json:"event_type"`
	EventID     uuid.UUID         `json:"event_id"`
	Payload     map[string]string `json:"payload"`
	CreatedAt   time.Time         `json:"created_at"`
	PublishedAt *time.Time        `json:"published_at"`
}

// NewOutboxEvent creates an unpublished outbox row, minting the event ID
// that will travel on the wire.
func NewOutboxEvent(stream, eventType string, payload map[string]string) *OutboxEvent {
	if payload == nil {
		payload = map[string]string{}
	}
	return &OutboxEvent{
		Stream:    stream,
		EventType: eventType,
		EventID:   uuid.New(),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// Envelope builds the wire envelope for this outbox row.
func (o *OutboxEvent) Envelope() *Envelope {
	return &Envelope{
		Type:      o.EventType,
		ID:        o.EventID,
		Timestamp: o.CreatedAt,
		Payload:   o.Payload,
	}
}

// OutboxStore persists outbox rows. Enqueue runs inside the caller's
// transaction so the announcement commits or rolls back together with the
// business mutation.
type OutboxStore interface {
	// Enqueue inserts an unpublished outbox row within the transaction.
	Enqueue(ctx context.Context, tx *sql.Tx, event *OutboxEvent) error

	// FetchUnpublished returns up to limit unpublished rows in insertion
	// order.
	FetchUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	// MarkPublished stamps the row as moved to the broker.
	MarkPublished(ctx context.Context, id int64) error
}
