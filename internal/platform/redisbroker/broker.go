// Package redisbroker implements the events.Broker interface on Redis
// Streams. Each logical stream maps to one Redis stream; XADD provides the
// durable totally-ordered append, XREAD the blocking cursor-based poll.
package redisbroker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskloop/taskloop-api/internal/events"
)

// defaultReadCount caps how many entries a single blocking read returns
// per stream.
const defaultReadCount = 64

// Broker is the Redis Streams implementation of events.Broker.
type Broker struct {
	client    *redis.Client
	logger    *slog.Logger
	readCount int64
}

// New creates a Broker on an existing Redis client. If logger is nil, a
// default logger will be used.
func New(client *redis.Client, logger *slog.Logger) *Broker {
	if client == nil {
		panic("client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Broker{
		client:    client,
		logger:    logger.With(slog.String("component", "redis_broker")),
		readCount: defaultReadCount,
	}
}

// NewFromOptions creates a Broker with its own Redis client from connection
// settings.
func NewFromOptions(addr, password string, db int, logger *slog.Logger) *Broker {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return New(client, logger)
}

// Ensure Broker implements events.Broker interface
var _ events.Broker = (*Broker)(nil)

// Append implements events.Broker.Append
// The envelope's flat string map becomes the entry's field-value pairs;
// Redis assigns the entry ID that consumers use as their cursor.
func (b *Broker) Append(ctx context.Context, stream string, env *events.Envelope) error {
	err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: env.Values(),
	}).Err()
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to append to stream",
			slog.String("stream", stream),
			slog.String("event_type", env.Type),
			slog.String("event_id", env.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("xadd to %s: %w", stream, err)
	}
	return nil
}

// Read implements events.Broker.Read
// A timed-out empty poll returns (nil, nil) per the Broker contract.
func (b *Broker) Read(
	ctx context.Context,
	cursors map[string]string,
	block time.Duration,
) ([]events.StreamEnvelope, error) {
	if len(cursors) == 0 {
		return nil, nil
	}

	// XREAD takes streams then positions, aligned by index.
	streams := make([]string, 0, 2*len(cursors))
	positions := make([]string, 0, len(cursors))
	for stream, cursor := range cursors {
		streams = append(streams, stream)
		positions = append(positions, cursor)
	}
	streams = append(streams, positions...)

	result, err := b.client.XRead(ctx, &redis.XReadArgs{
		Streams: streams,
		Count:   b.readCount,
		Block:   block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("xread: %w", err)
	}

	var entries []events.StreamEnvelope
	for _, stream := range result {
		for _, message := range stream.Messages {
			env, err := events.EnvelopeFromValues(message.Values)
			if err != nil {
				// A malformed entry cannot be represented as an
				// envelope. Surface it so the consumer can decide.
				return nil, fmt.Errorf("decode entry %s on %s: %w",
					message.ID, stream.Stream, err)
			}
			entries = append(entries, events.StreamEnvelope{
				Stream:   stream.Stream,
				Position: message.ID,
				Envelope: env,
			})
		}
	}
	return entries, nil
}

// Close releases the underlying Redis client.
func (b *Broker) Close() error {
	return b.client.Close()
}

// Ping verifies connectivity to the Redis server.
func (b *Broker) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
