package reactor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/events"
	"github.com/taskloop/taskloop-api/internal/store"
)

// PaymentReactor maintains payment records off the lifecycle streams. A new
// request gets an unpaid payment record; payment outcomes from the gateway
// update the record and backfill the request's denormalized payment status.
type PaymentReactor struct {
	payments store.PaymentStore
	requests store.RequestStore
	logger   *slog.Logger
}

// NewPaymentReactor creates a new PaymentReactor.
func NewPaymentReactor(
	payments store.PaymentStore,
	requests store.RequestStore,
	logger *slog.Logger,
) (*PaymentReactor, error) {
	if payments == nil {
		return nil, errors.New("payments cannot be nil")
	}
	if requests == nil {
		return nil, errors.New("requests cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PaymentReactor{
		payments: payments,
		requests: requests,
		logger:   logger.With("component", "payment_reactor"),
	}, nil
}

// Register subscribes the reactor's handlers on the consumer.
func (r *PaymentReactor) Register(consumer *events.Consumer) {
	consumer.OnFunc(events.StreamServiceLifecycle, events.TypeServiceRequestCreated, r.onRequestCreated)
	consumer.OnFunc(events.StreamPaymentLifecycle, events.TypePaymentProcessed, r.onPaymentOutcome)
	consumer.OnFunc(events.StreamPaymentLifecycle, events.TypePaymentFailed, r.onPaymentOutcome)
	consumer.OnFunc(events.StreamPaymentLifecycle, events.TypePaymentRefunded, r.onPaymentOutcome)
}

// onRequestCreated opens an unpaid payment record for the new request. A
// redelivered creation event hits the unique request constraint and is
// absorbed as a no-op.
func (r *PaymentReactor) onRequestCreated(ctx context.Context, env *events.Envelope) error {
	payload, err := events.DecodeRequestCreated(env.Payload)
	if err != nil {
		return err
	}

	payment, err := domain.NewPayment(payload.RequestID, payload.RequesterID, payload.OfferedAmount)
	if err != nil {
		return err
	}

	if err := r.payments.Create(ctx, payment); err != nil {
		if errors.Is(err, store.ErrDuplicatePayment) {
			r.logger.Debug("payment record already exists",
				"request_id", payload.RequestID,
				"event_id", env.ID)
			return nil
		}
		return err
	}

	r.logger.Info("payment record opened",
		"payment_id", payment.ID,
		"request_id", payload.RequestID,
		"amount", payload.OfferedAmount)
	return nil
}

// onPaymentOutcome applies a gateway outcome to the payment record and the
// request's payment status. Outcomes are last-applied-wins: a refund landing
// after a duplicate "processed" redelivery must leave the refund in place,
// which holds because receipts filter exact duplicates and distinct events
// apply in stream order.
func (r *PaymentReactor) onPaymentOutcome(ctx context.Context, env *events.Envelope) error {
	payload, err := events.DecodePaymentOutcome(env.Payload)
	if err != nil {
		return err
	}

	paymentStatus, requestStatus, err := outcomeStatuses(env.Type)
	if err != nil {
		return err
	}

	if err := r.ensurePaymentRecord(ctx, payload); err != nil {
		return err
	}

	if err := r.payments.UpdateStatusByRequestID(ctx, payload.RequestID, paymentStatus); err != nil {
		return err
	}
	if err := r.requests.SetPaymentStatus(ctx, payload.RequestID, requestStatus); err != nil {
		// The payment record exists even when the request has been
		// deleted; nothing left to backfill then.
		if store.IsNotFoundError(err) {
			r.logger.Warn("request gone, skipping payment status backfill",
				"request_id", payload.RequestID)
			return nil
		}
		return err
	}

	r.logger.Info("payment outcome applied",
		"request_id", payload.RequestID,
		"event_type", env.Type,
		"payment_status", paymentStatus,
		"reason", payload.Reason)
	return nil
}

// ensurePaymentRecord creates the payment record when an outcome arrives
// before the creation event has been processed.
func (r *PaymentReactor) ensurePaymentRecord(
	ctx context.Context,
	payload events.PaymentOutcomePayload,
) error {
	_, err := r.payments.GetByRequestID(ctx, payload.RequestID)
	if err == nil {
		return nil
	}
	if !store.IsNotFoundError(err) {
		return err
	}

	request, err := r.requests.GetByID(ctx, payload.RequestID)
	if err != nil {
		return err
	}

	payment, err := domain.NewPayment(payload.RequestID, request.RequesterID, payload.Amount)
	if err != nil {
		return err
	}
	if err := r.payments.Create(ctx, payment); err != nil &&
		!errors.Is(err, store.ErrDuplicatePayment) {
		return err
	}
	return nil
}

// outcomeStatuses maps a payment event type to the payment record status
// and the request's denormalized payment status. A refund releases the
// request back to unpaid; the refund itself stays on the payment record.
func outcomeStatuses(eventType string) (domain.PaymentStatus, domain.PaymentStatus, error) {
	switch eventType {
	case events.TypePaymentProcessed:
		return domain.PaymentStatusPaid, domain.PaymentStatusPaid, nil
	case events.TypePaymentFailed:
		return domain.PaymentStatusFailed, domain.PaymentStatusFailed, nil
	case events.TypePaymentRefunded:
		return domain.PaymentStatusRefunded, domain.PaymentStatusUnpaid, nil
	default:
		return "", "", errors.New("unknown payment event type: " + eventType)
	}
}
