package events

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryBroker is a Broker backed by in-process slices. It preserves
// per-stream append order and honors string cursors ("0" = beginning,
// otherwise the count of entries already consumed). Used in tests and for
// local development without a running broker.
type InMemoryBroker struct {
	mu      sync.Mutex
	streams map[string][]*Envelope
	wake    chan struct{}
}

// NewInMemoryBroker creates an empty InMemoryBroker.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		streams: make(map[string][]*Envelope),
		wake:    make(chan struct{}, 1),
	}
}

// Ensure InMemoryBroker implements Broker
var _ Broker = (*InMemoryBroker)(nil)

// Append implements Broker.
func (b *InMemoryBroker) Append(ctx context.Context, stream string, env *Envelope) error {
	b.mu.Lock()
	b.streams[stream] = append(b.streams[stream], env)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

// Read implements Broker. Positions are one-based entry counts encoded as
// strings, so CursorStart reads from the beginning.
func (b *InMemoryBroker) Read(
	ctx context.Context,
	cursors map[string]string,
	block time.Duration,
) ([]StreamEnvelope, error) {
	deadline := time.After(block)

	for {
		entries := b.collect(cursors)
		if len(entries) > 0 {
			return entries, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, nil
		case <-b.wake:
			// New entries were appended somewhere; re-collect.
		}
	}
}

// Entries returns a copy of a stream's contents, for assertions in tests.
func (b *InMemoryBroker) Entries(stream string) []*Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := make([]*Envelope, len(b.streams[stream]))
	copy(entries, b.streams[stream])
	return entries
}

// collect gathers all entries past the supplied cursors.
func (b *InMemoryBroker) collect(cursors map[string]string) []StreamEnvelope {
	b.mu.Lock()
	defer b.mu.Unlock()

	var entries []StreamEnvelope
	for stream, cursor := range cursors {
		offset, err := strconv.Atoi(cursor)
		if err != nil || offset < 0 {
			offset = 0
		}
		for i := offset; i < len(b.streams[stream]); i++ {
			entries = append(entries, StreamEnvelope{
				Stream:   stream,
				Position: strconv.Itoa(i + 1),
				Envelope: b.streams[stream][i],
			})
		}
	}
	return entries
}

// InMemoryCursorStore is a CursorStore held in process memory. Cursors do
// not survive restarts; production consumers use the postgres-backed store.
type InMemoryCursorStore struct {
	mu      sync.Mutex
	cursors map[string]string // consumer + "\x00" + stream
}

// NewInMemoryCursorStore creates an empty InMemoryCursorStore.
func NewInMemoryCursorStore() *InMemoryCursorStore {
	return &InMemoryCursorStore{cursors: make(map[string]string)}
}

// Ensure InMemoryCursorStore implements CursorStore
var _ CursorStore = (*InMemoryCursorStore)(nil)

// Get implements CursorStore.
func (s *InMemoryCursorStore) Get(ctx context.Context, consumer, stream string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	position, ok := s.cursors[consumer+"\x00"+stream]
	if !ok {
		return CursorStart, nil
	}
	return position, nil
}

// Set implements CursorStore.
func (s *InMemoryCursorStore) Set(ctx context.Context, consumer, stream, position string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[consumer+"\x00"+stream] = position
	return nil
}

// InMemoryReceiptStore is a ReceiptStore held in process memory.
type InMemoryReceiptStore struct {
	mu       sync.Mutex
	receipts map[string]time.Time // consumer + "\x00" + event id
}

// NewInMemoryReceiptStore creates an empty InMemoryReceiptStore.
func NewInMemoryReceiptStore() *InMemoryReceiptStore {
	return &InMemoryReceiptStore{receipts: make(map[string]time.Time)}
}

// Ensure InMemoryReceiptStore implements ReceiptStore
var _ ReceiptStore = (*InMemoryReceiptStore)(nil)

// Seen implements ReceiptStore.
func (s *InMemoryReceiptStore) Seen(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.receipts[consumer+"\x00"+eventID.String()]
	return ok, nil
}

// MarkProcessed implements ReceiptStore.
func (s *InMemoryReceiptStore) MarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[consumer+"\x00"+eventID.String()] = time.Now().UTC()
	return nil
}

// Prune implements ReceiptStore.
func (s *InMemoryReceiptStore) Prune(ctx context.Context, consumer string, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	prefix := consumer + "\x00"
	var pruned int64
	for key, recordedAt := range s.receipts {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix && recordedAt.Before(cutoff) {
			delete(s.receipts, key)
			pruned++
		}
	}
	return pruned, nil
}
