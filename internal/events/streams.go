package events

// Stream names. Streams are grouped by domain, so one stream carries
// several logical event types.
const (
	// StreamUserLifecycle carries account events (registration).
	StreamUserLifecycle = "user.lifecycle"

	// StreamServiceLifecycle carries the request saga: creation, status
	// changes, completion, and ratings.
	StreamServiceLifecycle = "service.lifecycle"

	// StreamPaymentLifecycle carries externally-driven payment outcomes:
	// processed, failed, refunded.
	StreamPaymentLifecycle = "payment.lifecycle"
)

// Event types carried on the streams above.
const (
	TypeUserRegistered        = "UserRegistered"
	TypeServiceRequestCreated = "ServiceRequestCreated"
	TypeRequestStatusChanged  = "RequestStatusChanged"
	TypeServiceCompleted      = "ServiceCompleted"
	TypeRatingCreated         = "RatingCreated"
	TypePaymentProcessed      = "PaymentProcessed"
	TypePaymentFailed         = "PaymentFailed"
	TypePaymentRefunded       = "PaymentRefunded"
)

// Payload keys attached to dead-lettered envelopes describing the failure.
const (
	FieldDeadLetterError  = "deadletter_error"
	FieldDeadLetterStream = "deadletter_stream"
)

// DeadLetterStream returns the dead-letter stream name for a stream.
// Envelopes whose handler fails are appended there before the consumer's
// cursor moves past them.
func DeadLetterStream(stream string) string {
	return stream + ".deadletter"
}
