package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Payment
var (
	ErrEmptyPaymentID        = errors.New("payment ID cannot be empty")
	ErrEmptyPaymentRequestID = errors.New("payment request ID cannot be empty")
	ErrNegativePaymentAmount = errors.New("payment amount cannot be negative")
)

// Payment is the pending-payment record created by the payment saga when a
// service request is announced. No money moves when the record is created;
// its status is backfilled from externally-driven payment lifecycle events.
type Payment struct {
	ID        uuid.UUID     `json:"id"`
	RequestID uuid.UUID     `json:"request_id"`
	PayerID   uuid.UUID     `json:"payer_id"`
	Amount    int64         `json:"amount"` // smallest currency unit
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewPayment creates a new unpaid Payment sized to the request's offered
// amount. Returns an error if validation fails.
func NewPayment(requestID, payerID uuid.UUID, amount int64) (*Payment, error) {
	payment := &Payment{
		ID:        uuid.New(),
		RequestID: requestID,
		PayerID:   payerID,
		Amount:    amount,
		Status:    PaymentStatusUnpaid,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := payment.Validate(); err != nil {
		return nil, err
	}

	return payment, nil
}

// Validate checks if the Payment has valid data.
// Returns an error if any field fails validation.
func (p *Payment) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyPaymentID
	}

	if p.RequestID == uuid.Nil {
		return ErrEmptyPaymentRequestID
	}

	if p.Amount < 0 {
		return ErrNegativePaymentAmount
	}

	if !isValidPaymentStatus(p.Status) {
		return ErrInvalidPaymentStatus
	}

	return nil
}

// isValidPaymentStatus checks the status values a payment record may hold.
// Unlike a request row, a payment record may also be refunded.
func isValidPaymentStatus(status PaymentStatus) bool {
	switch status {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}
