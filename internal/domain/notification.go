package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotificationKind classifies a notification by the business event that
// produced it.
type NotificationKind string

// Possible notification kinds
const (
	NotificationRequestCreated   NotificationKind = "request_created"
	NotificationRequestClaimed   NotificationKind = "request_claimed"
	NotificationStatusChanged    NotificationKind = "status_changed"
	NotificationServiceCompleted NotificationKind = "service_completed"
	NotificationRatingReceived   NotificationKind = "rating_received"
	NotificationPaymentProcessed NotificationKind = "payment_processed"
	NotificationPaymentFailed    NotificationKind = "payment_failed"
	NotificationPaymentRefunded  NotificationKind = "payment_refunded"
	NotificationWelcome          NotificationKind = "welcome"
)

// Common validation errors for Notification
var (
	ErrEmptyNotificationID     = errors.New("notification ID cannot be empty")
	ErrEmptyNotificationUserID = errors.New("notification user ID cannot be empty")
	ErrEmptyNotificationKind   = errors.New("notification kind cannot be empty")
	ErrEmptyNotificationBody   = errors.New("notification body cannot be empty")
)

// Notification is a templated message addressed to a single user, produced
// by the notification fan-out reactor. Purely additive: creating one never
// blocks or fails the transition that caused it.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewNotification creates a new unread Notification for the given user.
// Returns an error if validation fails.
func NewNotification(userID uuid.UUID, kind NotificationKind, title, body string) (*Notification, error) {
	notification := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}

	if err := notification.Validate(); err != nil {
		return nil, err
	}

	return notification, nil
}

// Validate checks if the Notification has valid data.
// Returns an error if any field fails validation.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrEmptyNotificationID
	}

	if n.UserID == uuid.Nil {
		return ErrEmptyNotificationUserID
	}

	if n.Kind == "" {
		return ErrEmptyNotificationKind
	}

	if n.Body == "" {
		return ErrEmptyNotificationBody
	}

	return nil
}
