package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Reserved envelope keys. Every entry on a stream is a flat string map
// carrying these three keys plus the event-specific payload keys.
const (
	FieldEventType = "event_type"
	FieldEventID   = "event_id"
	FieldTimestamp = "timestamp"
)

// Envelope decode errors
var (
	ErrMissingEventType = errors.New("envelope is missing event_type")
	ErrMissingEventID   = errors.New("envelope is missing event_id")
	ErrMissingTimestamp = errors.New("envelope is missing timestamp")
)

// Envelope is the wire-level unit exchanged on every stream. The ID is
// minted by the publishing call itself and is never reused across distinct
// logical occurrences; it is the idempotency key consumers deduplicate on.
// Callers that need business-level idempotence must carry their own key
// (e.g. request_id) inside the payload.
type Envelope struct {
	Type      string            `json:"event_type"`
	ID        uuid.UUID         `json:"event_id"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// NewEnvelope creates an Envelope with a freshly minted event ID. Every
// call is a distinct occurrence, even when the same logical fact is
// republished by a retry.
func NewEnvelope(eventType string, payload map[string]string) *Envelope {
	if payload == nil {
		payload = map[string]string{}
	}
	return &Envelope{
		Type:      eventType,
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// Values flattens the envelope into the broker wire format: a single
// string-keyed map holding the reserved keys and the payload keys.
func (e *Envelope) Values() map[string]any {
	values := make(map[string]any, len(e.Payload)+3)
	for k, v := range e.Payload {
		values[k] = v
	}
	values[FieldEventType] = e.Type
	values[FieldEventID] = e.ID.String()
	values[FieldTimestamp] = e.Timestamp.Format(time.RFC3339Nano)
	return values
}

// EnvelopeFromValues rebuilds an Envelope from the broker wire format.
// Non-string values are rejected along with missing reserved keys.
func EnvelopeFromValues(values map[string]any) (*Envelope, error) {
	flat := make(map[string]string, len(values))
	for k, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("envelope field %q is not a string (got %T)", k, v)
		}
		flat[k] = s
	}

	eventType, ok := flat[FieldEventType]
	if !ok || eventType == "" {
		return nil, ErrMissingEventType
	}

	rawID, ok := flat[FieldEventID]
	if !ok || rawID == "" {
		return nil, ErrMissingEventID
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid event_id %q: %w", rawID, err)
	}

	rawTS, ok := flat[FieldTimestamp]
	if !ok || rawTS == "" {
		return nil, ErrMissingTimestamp
	}
	ts, err := time.Parse(time.RFC3339Nano, rawTS)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", rawTS, err)
	}

	payload := make(map[string]string, len(flat)-3)
	for k, v := range flat {
		if k == FieldEventType || k == FieldEventID || k == FieldTimestamp {
			continue
		}
		payload[k] = v
	}

	return &Envelope{
		Type:      eventType,
		ID:        id,
		Timestamp: ts,
		Payload:   payload,
	}, nil
}
