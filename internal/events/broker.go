package events

import (
	"context"
	"time"
)

// CursorStart is the position handed to the broker on a cold start: read
// the stream from the beginning.
const CursorStart = "0"

// StreamEnvelope is one entry read from a stream, carrying the
// broker-assigned position the consumer's cursor advances to.
type StreamEnvelope struct {
	Stream   string
	Position string
	Envelope *Envelope
}

// Broker abstracts the append-only log transport. Appends are durable and
// totally ordered per stream; reads are blocking polls that return entries
// after the supplied per-stream cursors.
type Broker interface {
	// Append adds one envelope to the end of the named stream.
	Append(ctx context.Context, stream string, env *Envelope) error

	// Read returns entries after the given cursors, in append order per
	// stream, blocking up to the given duration when nothing is available.
	// A nil result with a nil error means the poll timed out empty.
	Read(ctx context.Context, cursors map[string]string, block time.Duration) ([]StreamEnvelope, error)
}
