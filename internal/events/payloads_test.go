package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop-api/internal/domain"
)

func TestRequestCreatedPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	payload := RequestCreatedPayload{
		RequestID:     uuid.New(),
		RequesterID:   uuid.New(),
		Title:         "mount a TV",
		OfferedAmount: 7500,
	}

	decoded, err := DecodeRequestCreated(payload.Encode())
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestDecodeRequestCreatedMissingField(t *testing.T) {
	t.Parallel()

	encoded := RequestCreatedPayload{
		RequestID:     uuid.New(),
		RequesterID:   uuid.New(),
		OfferedAmount: 100,
	}.Encode()
	delete(encoded, "offered_amount")

	_, err := DecodeRequestCreated(encoded)
	assert.ErrorContains(t, err, "offered_amount")
}

func TestStatusChangedPayloadOptionalProvider(t *testing.T) {
	t.Parallel()

	withoutProvider := StatusChangedPayload{
		RequestID:   uuid.New(),
		RequesterID: uuid.New(),
		OldStatus:   domain.RequestStatusPending,
		NewStatus:   domain.RequestStatusCancelled,
	}

	encoded := withoutProvider.Encode()
	_, hasProvider := encoded["provider_id"]
	assert.False(t, hasProvider, "nil provider must not be encoded")

	decoded, err := DecodeStatusChanged(encoded)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, decoded.ProviderID)
	assert.Equal(t, domain.RequestStatusCancelled, decoded.NewStatus)

	withProvider := withoutProvider
	withProvider.ProviderID = uuid.New()
	decoded, err = DecodeStatusChanged(withProvider.Encode())
	require.NoError(t, err)
	assert.Equal(t, withProvider.ProviderID, decoded.ProviderID)
}

func TestRatingCreatedPayloadKeepsFractionalScores(t *testing.T) {
	t.Parallel()

	payload := RatingCreatedPayload{
		RatingID:     uuid.New(),
		AssignmentID: uuid.New(),
		RaterID:      uuid.New(),
		RateeID:      uuid.New(),
		Score:        3.5,
		Direction:    domain.RatesRequester,
	}

	decoded, err := DecodeRatingCreated(payload.Encode())
	require.NoError(t, err)
	assert.Equal(t, 3.5, decoded.Score)
	assert.Equal(t, domain.RatesRequester, decoded.Direction)
}

func TestDecodePaymentOutcome(t *testing.T) {
	t.Parallel()

	payload := PaymentOutcomePayload{
		RequestID: uuid.New(),
		Amount:    4500,
		Reason:    "card declined",
	}

	decoded, err := DecodePaymentOutcome(payload.Encode())
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)

	// Reason is optional on the wire.
	encoded := PaymentOutcomePayload{RequestID: uuid.New(), Amount: 1}.Encode()
	_, hasReason := encoded["reason"]
	assert.False(t, hasReason)
}
