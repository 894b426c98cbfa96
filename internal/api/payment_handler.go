package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/taskloop/taskloop-api/internal/events"
)

// PaymentHandler accepts payment provider webhook deliveries and turns
// them into payment lifecycle events. The marketplace never talks to the
// payment provider synchronously; settlement outcomes arrive here and the
// payment saga picks them up off the stream.
type PaymentHandler struct {
	publisher events.Publisher
	validator *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(publisher events.Publisher) *PaymentHandler {
	return &PaymentHandler{
		publisher: publisher,
		validator: validator.New(),
	}
}

// outcomeEventTypes maps webhook outcomes to payment lifecycle event types.
var outcomeEventTypes = map[string]string{
	"processed": events.TypePaymentProcessed,
	"failed":    events.TypePaymentFailed,
	"refunded":  events.TypePaymentRefunded,
}

// Webhook handles POST /webhooks/payments.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req PaymentWebhookRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	eventType := outcomeEventTypes[req.Outcome]
	payload := events.PaymentOutcomePayload{
		RequestID: req.RequestID,
		Amount:    req.Amount,
		Reason:    req.Reason,
	}

	env, err := h.publisher.Publish(r.Context(), events.StreamPaymentLifecycle, eventType, payload.Encode())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record payment outcome")
		return
	}

	RespondWithJSON(w, r, http.StatusAccepted, AcceptedResponse{
		EventID:   env.ID,
		EventType: env.Type,
	})
}
