package events

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/domain"
)

// Typed payloads, one per event type. The flat string map exists only at
// the broker edge: publishers call Encode, handlers call the matching
// Decode and work with typed fields.

// UserRegisteredPayload announces a new account on user.lifecycle.
type UserRegisteredPayload struct {
	UserID      uuid.UUID
	Email       string
	DisplayName string
}

// Encode flattens the payload into wire form.
func (p UserRegisteredPayload) Encode() map[string]string {
	return map[string]string{
		"user_id":      p.UserID.String(),
		"email":        p.Email,
		"display_name": p.DisplayName,
	}
}

// DecodeUserRegistered parses a UserRegistered envelope payload.
func DecodeUserRegistered(payload map[string]string) (UserRegisteredPayload, error) {
	userID, err := uuidField(payload, "user_id")
	if err != nil {
		return UserRegisteredPayload{}, err
	}
	return UserRegisteredPayload{
		UserID:      userID,
		Email:       payload["email"],
		DisplayName: payload["display_name"],
	}, nil
}

// RequestCreatedPayload announces a new service request on service.lifecycle.
type RequestCreatedPayload struct {
	RequestID     uuid.UUID
	RequesterID   uuid.UUID
	Title         string
	OfferedAmount int64
}

// Encode flattens the payload into wire form.
func (p RequestCreatedPayload) Encode() map[string]string {
	return map[string]string{
		"request_id":     p.RequestID.String(),
		"requester_id":   p.RequesterID.String(),
		"title":          p.Title,
		"offered_amount": strconv.FormatInt(p.OfferedAmount, 10),
	}
}

// DecodeRequestCreated parses a ServiceRequestCreated envelope payload.
func DecodeRequestCreated(payload map[string]string) (RequestCreatedPayload, error) {
	requestID, err := uuidField(payload, "request_id")
	if err != nil {
		return RequestCreatedPayload{}, err
	}
	requesterID, err := uuidField(payload, "requester_id")
	if err != nil {
		return RequestCreatedPayload{}, err
	}
	amount, err := int64Field(payload, "offered_amount")
	if err != nil {
		return RequestCreatedPayload{}, err
	}
	return RequestCreatedPayload{
		RequestID:     requestID,
		RequesterID:   requesterID,
		Title:         payload["title"],
		OfferedAmount: amount,
	}, nil
}

// StatusChangedPayload announces a request lifecycle transition on
// service.lifecycle. ProviderID is zero when no assignment exists yet.
type StatusChangedPayload struct {
	RequestID   uuid.UUID
	RequesterID uuid.UUID
	ProviderID  uuid.UUID
	OldStatus   domain.RequestStatus
	NewStatus   domain.RequestStatus
}

// Encode flattens the payload into wire form.
func (p StatusChangedPayload) Encode() map[string]string {
	values := map[string]string{
		"request_id":   p.RequestID.String(),
		"requester_id": p.RequesterID.String(),
		"old_status":   string(p.OldStatus),
		"new_status":   string(p.NewStatus),
	}
	if p.ProviderID != uuid.Nil {
		values["provider_id"] = p.ProviderID.String()
	}
	return values
}

// DecodeStatusChanged parses a RequestStatusChanged envelope payload.
func DecodeStatusChanged(payload map[string]string) (StatusChangedPayload, error) {
	requestID, err := uuidField(payload, "request_id")
	if err != nil {
		return StatusChangedPayload{}, err
	}
	requesterID, err := uuidField(payload, "requester_id")
	if err != nil {
		return StatusChangedPayload{}, err
	}
	decoded := StatusChangedPayload{
		RequestID:   requestID,
		RequesterID: requesterID,
		OldStatus:   domain.RequestStatus(payload["old_status"]),
		NewStatus:   domain.RequestStatus(payload["new_status"]),
	}
	if raw, ok := payload["provider_id"]; ok && raw != "" {
		providerID, err := uuid.Parse(raw)
		if err != nil {
			return StatusChangedPayload{}, fmt.Errorf("invalid provider_id %q: %w", raw, err)
		}
		decoded.ProviderID = providerID
	}
	return decoded, nil
}

// ServiceCompletedPayload announces a finished assignment on
// service.lifecycle. It is the trigger for the payment and rating flows.
type ServiceCompletedPayload struct {
	RequestID    uuid.UUID
	AssignmentID uuid.UUID
	RequesterID  uuid.UUID
	ProviderID   uuid.UUID
}

// Encode flattens the payload into wire form.
func (p ServiceCompletedPayload) Encode() map[string]string {
	return map[string]string{
		"request_id":    p.RequestID.String(),
		"assignment_id": p.AssignmentID.String(),
		"requester_id":  p.RequesterID.String(),
		"provider_id":   p.ProviderID.String(),
	}
}

// DecodeServiceCompleted parses a ServiceCompleted envelope payload.
func DecodeServiceCompleted(payload map[string]string) (ServiceCompletedPayload, error) {
	requestID, err := uuidField(payload, "request_id")
	if err != nil {
		return ServiceCompletedPayload{}, err
	}
	assignmentID, err := uuidField(payload, "assignment_id")
	if err != nil {
		return ServiceCompletedPayload{}, err
	}
	requesterID, err := uuidField(payload, "requester_id")
	if err != nil {
		return ServiceCompletedPayload{}, err
	}
	providerID, err := uuidField(payload, "provider_id")
	if err != nil {
		return ServiceCompletedPayload{}, err
	}
	return ServiceCompletedPayload{
		RequestID:    requestID,
		AssignmentID: assignmentID,
		RequesterID:  requesterID,
		ProviderID:   providerID,
	}, nil
}

// RatingCreatedPayload announces a stored rating on service.lifecycle.
type RatingCreatedPayload struct {
	RatingID     uuid.UUID
	AssignmentID uuid.UUID
	RaterID      uuid.UUID
	RateeID      uuid.UUID
	Score        float64
	Direction    domain.RatingDirection
}

// Encode flattens the payload into wire form.
func (p RatingCreatedPayload) Encode() map[string]string {
	return map[string]string{
		"rating_id":     p.RatingID.String(),
		"assignment_id": p.AssignmentID.String(),
		"rater_id":      p.RaterID.String(),
		"ratee_id":      p.RateeID.String(),
		"score":         strconv.FormatFloat(p.Score, 'f', -1, 64),
		"direction":     string(p.Direction),
	}
}

// DecodeRatingCreated parses a RatingCreated envelope payload.
func DecodeRatingCreated(payload map[string]string) (RatingCreatedPayload, error) {
	ratingID, err := uuidField(payload, "rating_id")
	if err != nil {
		return RatingCreatedPayload{}, err
	}
	assignmentID, err := uuidField(payload, "assignment_id")
	if err != nil {
		return RatingCreatedPayload{}, err
	}
	raterID, err := uuidField(payload, "rater_id")
	if err != nil {
		return RatingCreatedPayload{}, err
	}
	rateeID, err := uuidField(payload, "ratee_id")
	if err != nil {
		return RatingCreatedPayload{}, err
	}
	score, err := floatField(payload, "score")
	if err != nil {
		return RatingCreatedPayload{}, err
	}
	return RatingCreatedPayload{
		RatingID:     ratingID,
		AssignmentID: assignmentID,
		RaterID:      raterID,
		RateeID:      rateeID,
		Score:        score,
		Direction:    domain.RatingDirection(payload["direction"]),
	}, nil
}

// PaymentOutcomePayload carries PaymentProcessed, PaymentFailed, and
// PaymentRefunded events on payment.lifecycle. Reason is only set on
// failures.
type PaymentOutcomePayload struct {
	RequestID uuid.UUID
	Amount    int64
	Reason    string
}

// Encode flattens the payload into wire form.
func (p PaymentOutcomePayload) Encode() map[string]string {
	values := map[string]string{
		"request_id": p.RequestID.String(),
		"amount":     strconv.FormatInt(p.Amount, 10),
	}
	if p.Reason != "" {
		values["reason"] = p.Reason
	}
	return values
}

// DecodePaymentOutcome parses a payment lifecycle envelope payload.
func DecodePaymentOutcome(payload map[string]string) (PaymentOutcomePayload, error) {
	requestID, err := uuidField(payload, "request_id")
	if err != nil {
		return PaymentOutcomePayload{}, err
	}
	amount, err := int64Field(payload, "amount")
	if err != nil {
		return PaymentOutcomePayload{}, err
	}
	return PaymentOutcomePayload{
		RequestID: requestID,
		Amount:    amount,
		Reason:    payload["reason"],
	}, nil
}

// uuidField parses a required UUID payload field.
func uuidField(payload map[string]string, key string) (uuid.UUID, error) {
	raw, ok := payload[key]
	if !ok || raw == "" {
		return uuid.Nil, fmt.Errorf("payload is missing %s", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return id, nil
}

// int64Field parses a required integer payload field.
func int64Field(payload map[string]string, key string) (int64, error) {
	raw, ok := payload[key]
	if !ok || raw == "" {
		return 0, fmt.Errorf("payload is missing %s", key)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

// floatField parses a required float payload field.
func floatField(payload map[string]string, key string) (float64, error) {
	raw, ok := payload[key]
	if !ok || raw == "" {
		return 0, fmt.Errorf("payload is missing %s", key)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return f, nil
}
