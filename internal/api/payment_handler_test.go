package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop-api/internal/events"
)

func newPaymentFixture(t *testing.T) (*PaymentHandler, *events.InMemoryBroker) {
	t.Helper()
	broker := events.NewInMemoryBroker()
	publisher := events.NewBrokerPublisher(broker, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewPaymentHandler(publisher), broker
}

func TestPaymentWebhookProcessed(t *testing.T) {
	handler, broker := newPaymentFixture(t)
	requestID := uuid.New()

	rec := httptest.NewRecorder()
	handler.Webhook(rec, newJSONRequest(t, http.MethodPost, "/webhooks/payments", PaymentWebhookRequest{
		RequestID: requestID,
		Outcome:   "processed",
		Amount:    4500,
	}, nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp AcceptedResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, events.TypePaymentProcessed, resp.EventType)
	assert.NotEqual(t, uuid.Nil, resp.EventID)

	entries := broker.Entries(events.StreamPaymentLifecycle)
	require.Len(t, entries, 1)
	assert.Equal(t, events.TypePaymentProcessed, entries[0].Type)
	assert.Equal(t, requestID.String(), entries[0].Payload["request_id"])
}

func TestPaymentWebhookOutcomes(t *testing.T) {
	tests := []struct {
		outcome   string
		eventType string
	}{
		{"processed", events.TypePaymentProcessed},
		{"failed", events.TypePaymentFailed},
		{"refunded", events.TypePaymentRefunded},
	}
	for _, tc := range tests {
		t.Run(tc.outcome, func(t *testing.T) {
			handler, broker := newPaymentFixture(t)

			rec := httptest.NewRecorder()
			handler.Webhook(rec, newJSONRequest(t, http.MethodPost, "/webhooks/payments", PaymentWebhookRequest{
				RequestID: uuid.New(),
				Outcome:   tc.outcome,
				Amount:    100,
				Reason:    "card declined",
			}, nil))

			require.Equal(t, http.StatusAccepted, rec.Code)
			entries := broker.Entries(events.StreamPaymentLifecycle)
			require.Len(t, entries, 1)
			assert.Equal(t, tc.eventType, entries[0].Type)
		})
	}
}

func TestPaymentWebhookUnknownOutcome(t *testing.T) {
	handler, broker := newPaymentFixture(t)

	rec := httptest.NewRecorder()
	handler.Webhook(rec, newJSONRequest(t, http.MethodPost, "/webhooks/payments", PaymentWebhookRequest{
		RequestID: uuid.New(),
		Outcome:   "chargeback",
		Amount:    100,
	}, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, broker.Entries(events.StreamPaymentLifecycle))
}

func TestPaymentWebhookMissingRequestID(t *testing.T) {
	handler, _ := newPaymentFixture(t)

	rec := httptest.NewRecorder()
	handler.Webhook(rec, newJSONRequest(t, http.MethodPost, "/webhooks/payments", PaymentWebhookRequest{
		Outcome: "processed",
	}, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
