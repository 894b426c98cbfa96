package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerPublisherAppendsEnvelope(t *testing.T) {
	t.Parallel()

	broker := NewInMemoryBroker()
	publisher := NewBrokerPublisher(broker, testLogger())

	env, err := publisher.Publish(context.Background(), StreamUserLifecycle, TypeUserRegistered,
		map[string]string{"user_id": uuid.New().String()})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, env.ID)

	entries := broker.Entries(StreamUserLifecycle)
	require.Len(t, entries, 1)
	assert.Equal(t, env.ID, entries[0].ID)
}

func TestBrokerPublisherSoftFailure(t *testing.T) {
	t.Parallel()

	broker := &flakyBroker{inner: NewInMemoryBroker(), broken: true}
	publisher := NewBrokerPublisher(broker, testLogger())

	env, err := publisher.Publish(context.Background(), StreamPaymentLifecycle, TypePaymentFailed,
		map[string]string{"request_id": uuid.New().String(), "amount": "100"})

	// The failure is soft: it is reported, but the minted envelope is
	// still returned and nothing was appended.
	assert.ErrorIs(t, err, ErrPublishFailed)
	require.NotNil(t, env)
	assert.NotEqual(t, uuid.Nil, env.ID)
	assert.Empty(t, broker.inner.Entries(StreamPaymentLifecycle))
}

func TestPublisherMintsFreshIDPerAttempt(t *testing.T) {
	t.Parallel()

	broker := NewInMemoryBroker()
	publisher := NewBrokerPublisher(broker, testLogger())
	payload := map[string]string{"request_id": uuid.New().String(), "amount": "250"}

	first, err := publisher.Publish(context.Background(), StreamPaymentLifecycle, TypePaymentProcessed, payload)
	require.NoError(t, err)
	second, err := publisher.Publish(context.Background(), StreamPaymentLifecycle, TypePaymentProcessed, payload)
	require.NoError(t, err)

	// Same logical fact republished is a distinct occurrence; downstream
	// dedup on business keys is the caller's concern.
	assert.NotEqual(t, first.ID, second.ID)
}

func TestInMemoryBrokerBlocksUntilTimeout(t *testing.T) {
	t.Parallel()

	broker := NewInMemoryBroker()
	start := time.Now()

	entries, err := broker.Read(context.Background(),
		map[string]string{StreamServiceLifecycle: CursorStart}, 30*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, entries)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
