package api

import (
	"time"

	"github.com/google/uuid"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
	Password    string `json:"password"     validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Token       string    `json:"token"`
}

// UserResponse defines the public view of a user profile.
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateRequestRequest defines the payload for opening a service request.
type CreateRequestRequest struct {
	Title         string `json:"title"          validate:"required,min=1,max=200"`
	Description   string `json:"description"    validate:"max=2000"`
	OfferedAmount int64  `json:"offered_amount" validate:"gte=0"`
}

// SubmitRatingRequest defines the payload for submitting a rating.
type SubmitRatingRequest struct {
	AssignmentID uuid.UUID `json:"assignment_id" validate:"required"`
	Score        float64   `json:"score"         validate:"required,gte=1,lte=5"`
	Direction    string    `json:"direction"     validate:"required,oneof=rates_provider rates_requester"`
	Comment      string    `json:"comment"       validate:"max=1000"`
}

// PaymentWebhookRequest defines the payload delivered by the payment
// provider when a charge settles, fails, or is refunded.
type PaymentWebhookRequest struct {
	RequestID uuid.UUID `json:"request_id" validate:"required"`
	Outcome   string    `json:"outcome"    validate:"required,oneof=processed failed refunded"`
	Amount    int64     `json:"amount"     validate:"gte=0"`
	Reason    string    `json:"reason"     validate:"max=500"`
}

// AcceptedResponse acknowledges an accepted webhook delivery.
type AcceptedResponse struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType string    `json:"event_type"`
}
