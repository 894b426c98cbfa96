package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RelayConfig holds configuration for the outbox relay.
type RelayConfig struct {
	// PollInterval determines how often the relay checks for unpublished rows.
	PollInterval time.Duration

	// BatchSize caps how many rows are moved per poll.
	BatchSize int
}

// DefaultRelayConfig returns a RelayConfig with reasonable defaults.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		PollInterval: time.Second,
		BatchSize:    100,
	}
}

// OutboxRelay is the background process that decouples local durability
// from broker availability: it drains committed outbox rows to the broker
// and marks them published. Rows stay queued across broker outages and
// process restarts.
type OutboxRelay struct {
	store      OutboxStore
	broker     Broker
	config     RelayConfig
	logger     *slog.Logger
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewOutboxRelay creates a new OutboxRelay.
func NewOutboxRelay(store OutboxStore, broker Broker, config RelayConfig, logger *slog.Logger) *OutboxRelay {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &OutboxRelay{
		store:      store,
		broker:     broker,
		config:     config,
		logger:     logger.With("component", "outbox_relay"),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the relay loop.
func (r *OutboxRelay) Start() {
	r.wg.Add(1)
	go r.run()
}

// Stop shuts the relay down and waits for the current drain to finish.
func (r *OutboxRelay) Stop() {
	r.cancelFunc()
	r.wg.Wait()
}

// run polls for unpublished rows until the relay is stopped.
func (r *OutboxRelay) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.drain()
		}
	}
}

// drain moves one batch of unpublished rows to the broker, in insertion
// order. A failed append stops the batch so ordering is preserved; the
// row is retried on the next poll.
func (r *OutboxRelay) drain() {
	rows, err := r.store.FetchUnpublished(r.ctx, r.config.BatchSize)
	if err != nil {
		r.logger.Error("failed to fetch unpublished outbox rows", "error", err)
		return
	}

	for _, row := range rows {
		if err := r.broker.Append(r.ctx, row.Stream, row.Envelope()); err != nil {
			r.logger.Warn("broker append failed, outbox row will be retried",
				"error", err,
				"outbox_id", row.ID,
				"stream", row.Stream,
				"event_type", row.EventType,
				"event_id", row.EventID)
			return
		}

		if err := r.store.MarkPublished(r.ctx, row.ID); err != nil {
			// The append went through but the stamp did not: the row will
			// be appended again with the same event_id, and consumers
			// absorb the duplicate through their receipt sets.
			r.logger.Error("failed to mark outbox row published",
				"error", err,
				"outbox_id", row.ID,
				"event_id", row.EventID)
			return
		}

		r.logger.Debug("outbox row published",
			"outbox_id", row.ID,
			"stream", row.Stream,
			"event_type", row.EventType,
			"event_id", row.EventID)
	}
}
