package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler processes one consumed envelope. Handlers must be idempotent in
// the business sense: the consumer's receipt set absorbs redelivery, but a
// handler may still see the same logical fact under two event IDs when a
// publisher retried.
type Handler interface {
	Handle(ctx context.Context, env *Envelope) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, env *Envelope) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, env *Envelope) error {
	return f(ctx, env)
}

// CursorStore persists per-consumer, per-stream watermarks so consumption
// resumes where it left off across restarts. Cursors never regress.
type CursorStore interface {
	// Get returns the stored cursor for (consumer, stream), or CursorStart
	// when none has been persisted yet.
	Get(ctx context.Context, consumer, stream string) (string, error)

	// Set persists the cursor for (consumer, stream).
	Set(ctx context.Context, consumer, stream, position string) error
}

// ReceiptStore is the per-consumer idempotency table keyed by event ID.
// Applying an envelope whose ID is already recorded must be a no-op.
type ReceiptStore interface {
	// Seen reports whether the consumer has already applied this event.
	Seen(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)

	// MarkProcessed records the event as applied by the consumer.
	MarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) error

	// Prune drops receipts older than the retention window. The window
	// must outlive the broker's redelivery horizon.
	Prune(ctx context.Context, consumer string, olderThan time.Duration) (int64, error)
}

// ConsumerConfig holds configuration for a Consumer.
type ConsumerConfig struct {
	// Name identifies the consumer; cursors and receipts are keyed by it.
	Name string

	// Streams is the fixed set of streams this consumer tails.
	Streams []string

	// BlockTimeout bounds each poll so the loop can notice cancellation.
	BlockTimeout time.Duration

	// ReceiptRetention is how long processed-event receipts are kept.
	ReceiptRetention time.Duration

	// ReceiptPruneInterval defines how often expired receipts are pruned.
	// If zero, defaults to 10 minutes.
	ReceiptPruneInterval time.Duration
}

// Consumer tails a fixed set of streams from durable cursors, deduplicates
// by event ID, and dispatches envelopes to the handlers registered for
// their event type. Exactly one instance per consumer name may run at a
// time; a second instance would race over the same cursor space.
type Consumer struct {
	config     ConsumerConfig
	broker     Broker
	cursors    CursorStore
	receipts   ReceiptStore
	handlers   map[string]map[string]Handler // stream -> event type -> handler
	positions  map[string]string             // in-memory cursor mirror
	logger     *slog.Logger
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewConsumer creates a Consumer. Handlers are registered with On before
// Start is called.
func NewConsumer(
	config ConsumerConfig,
	broker Broker,
	cursors CursorStore,
	receipts ReceiptStore,
	logger *slog.Logger,
) *Consumer {
	if config.BlockTimeout <= 0 {
		config.BlockTimeout = 2 * time.Second
	}
	if config.ReceiptPruneInterval <= 0 {
		config.ReceiptPruneInterval = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		config:     config,
		broker:     broker,
		cursors:    cursors,
		receipts:   receipts,
		handlers:   make(map[string]map[string]Handler),
		positions:  make(map[string]string),
		logger:     logger.With("component", "consumer", "consumer", config.Name),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// On registers a handler for an event type on a stream. Registering after
// Start is not supported.
func (c *Consumer) On(stream, eventType string, handler Handler) {
	if c.handlers[stream] == nil {
		c.handlers[stream] = make(map[string]Handler)
	}
	c.handlers[stream][eventType] = handler
}

// OnFunc registers a HandlerFunc for an event type on a stream.
func (c *Consumer) OnFunc(stream, eventType string, handler func(ctx context.Context, env *Envelope) error) {
	c.On(stream, eventType, HandlerFunc(handler))
}

// Start loads the persisted cursors and launches the consume loop plus the
// receipt janitor.
func (c *Consumer) Start() error {
	for _, stream := range c.config.Streams {
		position, err := c.cursors.Get(c.ctx, c.config.Name, stream)
		if err != nil {
			return fmt.Errorf("failed to load cursor for %s/%s: %w", c.config.Name, stream, err)
		}
		if position == "" {
			position = CursorStart
		}
		c.positions[stream] = position
	}

	c.logger.Info("starting consumer",
		"streams", c.config.Streams,
		"cursors", c.positions)

	c.wg.Add(1)
	go c.run()

	if c.config.ReceiptRetention > 0 {
		c.wg.Add(1)
		go c.receiptJanitor()
	}

	return nil
}

// Stop requests a cooperative shutdown and waits for the current poll to
// finish. The loop is never interrupted mid-handler, so the cursor and the
// receipt set stay consistent.
func (c *Consumer) Stop() {
	c.cancelFunc()
	c.wg.Wait()
}

// run is the consume loop: poll, deduplicate, dispatch, advance.
func (c *Consumer) run() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Debug("consumer stopping")
			return
		default:
		}

		batch, err := c.broker.Read(c.ctx, c.snapshotCursors(), c.config.BlockTimeout)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.logger.Error("failed to read from broker", "error", err)
			// Back off briefly so a dead broker doesn't spin the loop.
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(c.config.BlockTimeout):
			}
			continue
		}

		// A stream whose entry could not be finalized this batch must not
		// deliver its later entries either, or order would be violated.
		stalled := make(map[string]bool)

		for _, entry := range batch {
			if stalled[entry.Stream] {
				continue
			}
			if err := c.process(entry); err != nil {
				stalled[entry.Stream] = true
			}
		}
	}
}

// process applies one entry. A returned error means the cursor did not
// advance and the entry will be redelivered on the next poll; handler
// failures are not errors in that sense, they dead-letter and advance.
func (c *Consumer) process(entry StreamEnvelope) error {
	env := entry.Envelope
	log := c.logger.With(
		"stream", entry.Stream,
		"position", entry.Position,
		"event_type", env.Type,
		"event_id", env.ID)

	seen, err := c.receipts.Seen(c.ctx, c.config.Name, env.ID)
	if err != nil {
		log.Error("failed to check receipt set", "error", err)
		return err
	}
	if seen {
		// Redelivery of an already-applied envelope: skip, but still
		// advance the cursor so it is not re-read forever.
		log.Info("skipping duplicate delivery")
		return c.advance(entry.Stream, entry.Position)
	}

	handler := c.lookupHandler(entry.Stream, env.Type)
	if handler == nil {
		log.Debug("no handler registered for event type")
		return c.advance(entry.Stream, entry.Position)
	}

	if err := handler.Handle(c.ctx, env); err != nil {
		log.Error("handler failed, dead-lettering envelope", "error", err)
		if dlqErr := c.deadLetter(entry, err); dlqErr != nil {
			log.Error("failed to dead-letter envelope, will retry", "error", dlqErr)
			return dlqErr
		}
		// The envelope is preserved on the dead-letter stream; move on.
		return c.advance(entry.Stream, entry.Position)
	}

	if err := c.receipts.MarkProcessed(c.ctx, c.config.Name, env.ID); err != nil {
		log.Error("failed to record receipt", "error", err)
		return err
	}

	return c.advance(entry.Stream, entry.Position)
}

// deadLetter preserves a failed envelope on the stream's dead-letter
// stream, annotated with the handler error and its origin.
func (c *Consumer) deadLetter(entry StreamEnvelope, cause error) error {
	dead := &Envelope{
		Type:      entry.Envelope.Type,
		ID:        entry.Envelope.ID,
		Timestamp: entry.Envelope.Timestamp,
		Payload:   make(map[string]string, len(entry.Envelope.Payload)+2),
	}
	for k, v := range entry.Envelope.Payload {
		dead.Payload[k] = v
	}
	dead.Payload[FieldDeadLetterError] = cause.Error()
	dead.Payload[FieldDeadLetterStream] = entry.Stream

	return c.broker.Append(c.ctx, DeadLetterStream(entry.Stream), dead)
}

// advance persists the cursor and mirrors it in memory. The cursor only
// moves after the entry has been fully dealt with.
func (c *Consumer) advance(stream, position string) error {
	if err := c.cursors.Set(c.ctx, c.config.Name, stream, position); err != nil {
		c.logger.Error("failed to persist cursor",
			"error", err,
			"stream", stream,
			"position", position)
		return err
	}
	c.positions[stream] = position
	return nil
}

// lookupHandler returns the handler for an event type on a stream, or nil.
func (c *Consumer) lookupHandler(stream, eventType string) Handler {
	byType := c.handlers[stream]
	if byType == nil {
		return nil
	}
	return byType[eventType]
}

// snapshotCursors copies the in-memory cursor map for a broker read.
func (c *Consumer) snapshotCursors() map[string]string {
	cursors := make(map[string]string, len(c.positions))
	for stream, position := range c.positions {
		cursors[stream] = position
	}
	return cursors
}

// receiptJanitor periodically prunes receipts older than the retention
// window.
func (c *Consumer) receiptJanitor() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.ReceiptPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			pruned, err := c.receipts.Prune(c.ctx, c.config.Name, c.config.ReceiptRetention)
			if err != nil {
				c.logger.Error("failed to prune receipts", "error", err)
				continue
			}
			if pruned > 0 {
				c.logger.Debug("pruned expired receipts", "count", pruned)
			}
		}
	}
}
