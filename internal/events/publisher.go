package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrPublishFailed marks a broker-unreachable condition at append time.
// It is a soft failure: the caller's business state has already committed
// and must not be rolled back. Callers log it and move on.
var ErrPublishFailed = errors.New("event publish failed")

// Publisher appends envelopes to named streams. The event ID is minted by
// the publish call itself, never supplied by the caller.
type Publisher interface {
	// Publish appends one envelope carrying the given type and payload to
	// the stream. The returned envelope carries the minted event ID even
	// when the append failed.
	Publish(ctx context.Context, stream, eventType string, payload map[string]string) (*Envelope, error)
}

// BrokerPublisher publishes directly against the broker, with no outbox
// behind it. A failed append loses the announcement; flows whose events
// must survive broker outages go through the transactional outbox instead.
type BrokerPublisher struct {
	broker Broker
	logger *slog.Logger
}

// NewBrokerPublisher creates a publisher that appends straight to the broker.
func NewBrokerPublisher(broker Broker, logger *slog.Logger) *BrokerPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrokerPublisher{
		broker: broker,
		logger: logger.With("component", "broker_publisher"),
	}
}

// Ensure BrokerPublisher implements Publisher
var _ Publisher = (*BrokerPublisher)(nil)

// Publish implements Publisher. A broker failure is logged and returned
// wrapped in ErrPublishFailed; it never aborts the caller's flow.
func (p *BrokerPublisher) Publish(
	ctx context.Context,
	stream, eventType string,
	payload map[string]string,
) (*Envelope, error) {
	env := NewEnvelope(eventType, payload)

	if err := p.broker.Append(ctx, stream, env); err != nil {
		p.logger.Error("failed to append event to stream",
			"error", err,
			"stream", stream,
			"event_type", eventType,
			"event_id", env.ID)
		return env, fmt.Errorf("%w: %s on %s: %v", ErrPublishFailed, eventType, stream, err)
	}

	p.logger.Debug("event published",
		"stream", stream,
		"event_type", eventType,
		"event_id", env.ID)
	return env, nil
}
