package reactor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/events"
	"github.com/taskloop/taskloop-api/internal/store"
)

// NotificationReactor fans lifecycle events out into per-user notification
// inbox rows. It is a pure projection: it never publishes events of its own.
type NotificationReactor struct {
	notifications store.NotificationStore
	requests      store.RequestStore
	logger        *slog.Logger
}

// NewNotificationReactor creates a new NotificationReactor.
func NewNotificationReactor(
	notifications store.NotificationStore,
	requests store.RequestStore,
	logger *slog.Logger,
) (*NotificationReactor, error) {
	if notifications == nil {
		return nil, errors.New("notifications cannot be nil")
	}
	if requests == nil {
		return nil, errors.New("requests cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &NotificationReactor{
		notifications: notifications,
		requests:      requests,
		logger:        logger.With("component", "notification_reactor"),
	}, nil
}

// Register subscribes the reactor's handlers on the consumer.
func (r *NotificationReactor) Register(consumer *events.Consumer) {
	consumer.OnFunc(events.StreamUserLifecycle, events.TypeUserRegistered, r.onUserRegistered)
	consumer.OnFunc(events.StreamServiceLifecycle, events.TypeRequestStatusChanged, r.onStatusChanged)
	consumer.OnFunc(events.StreamServiceLifecycle, events.TypeServiceCompleted, r.onServiceCompleted)
	consumer.OnFunc(events.StreamServiceLifecycle, events.TypeRatingCreated, r.onRatingCreated)
	consumer.OnFunc(events.StreamPaymentLifecycle, events.TypePaymentProcessed, r.onPaymentOutcome)
	consumer.OnFunc(events.StreamPaymentLifecycle, events.TypePaymentFailed, r.onPaymentOutcome)
	consumer.OnFunc(events.StreamPaymentLifecycle, events.TypePaymentRefunded, r.onPaymentOutcome)
}

func (r *NotificationReactor) onUserRegistered(ctx context.Context, env *events.Envelope) error {
	payload, err := events.DecodeUserRegistered(env.Payload)
	if err != nil {
		return err
	}

	return r.deliver(ctx, payload.UserID, domain.NotificationWelcome,
		"Welcome to TaskLoop",
		fmt.Sprintf("Hi %s, your account is ready.", payload.DisplayName))
}

func (r *NotificationReactor) onStatusChanged(ctx context.Context, env *events.Envelope) error {
	payload, err := events.DecodeStatusChanged(env.Payload)
	if err != nil {
		return err
	}

	kind := domain.NotificationStatusChanged
	if payload.NewStatus == domain.RequestStatusAccepted {
		kind = domain.NotificationRequestClaimed
	}

	body := fmt.Sprintf("Your request moved from %s to %s.",
		payload.OldStatus, payload.NewStatus)
	if err := r.deliver(ctx, payload.RequesterID, kind, "Request update", body); err != nil {
		return err
	}

	// The provider hears about changes too, once there is one.
	if payload.ProviderID != uuid.Nil && payload.NewStatus == domain.RequestStatusCancelled {
		return r.deliver(ctx, payload.ProviderID, domain.NotificationStatusChanged,
			"Request cancelled",
			"A request you were assigned to has been cancelled.")
	}
	return nil
}

// onServiceCompleted notifies both parties: the requester that the work is
// done, the provider that rating is now open.
func (r *NotificationReactor) onServiceCompleted(ctx context.Context, env *events.Envelope) error {
	payload, err := events.DecodeServiceCompleted(env.Payload)
	if err != nil {
		return err
	}

	if err := r.deliver(ctx, payload.RequesterID, domain.NotificationServiceCompleted,
		"Service completed",
		"Your request has been completed. You can now rate the provider."); err != nil {
		return err
	}
	return r.deliver(ctx, payload.ProviderID, domain.NotificationServiceCompleted,
		"Service completed",
		"Nice work. You can now rate the requester.")
}

func (r *NotificationReactor) onRatingCreated(ctx context.Context, env *events.Envelope) error {
	payload, err := events.DecodeRatingCreated(env.Payload)
	if err != nil {
		return err
	}

	return r.deliver(ctx, payload.RateeID, domain.NotificationRatingReceived,
		"New rating",
		fmt.Sprintf("You received a %.1f star rating.", payload.Score))
}

func (r *NotificationReactor) onPaymentOutcome(ctx context.Context, env *events.Envelope) error {
	payload, err := events.DecodePaymentOutcome(env.Payload)
	if err != nil {
		return err
	}

	request, err := r.requests.GetByID(ctx, payload.RequestID)
	if err != nil {
		if store.IsNotFoundError(err) {
			r.logger.Warn("request gone, dropping payment notification",
				"request_id", payload.RequestID)
			return nil
		}
		return err
	}

	var (
		kind  domain.NotificationKind
		title string
		body  string
	)
	switch env.Type {
	case events.TypePaymentProcessed:
		kind = domain.NotificationPaymentProcessed
		title = "Payment processed"
		body = fmt.Sprintf("Your payment of %d was processed.", payload.Amount)
	case events.TypePaymentFailed:
		kind = domain.NotificationPaymentFailed
		title = "Payment failed"
		body = "Your payment could not be processed."
		if payload.Reason != "" {
			body = fmt.Sprintf("Your payment could not be processed: %s.", payload.Reason)
		}
	case events.TypePaymentRefunded:
		kind = domain.NotificationPaymentRefunded
		title = "Payment refunded"
		body = fmt.Sprintf("Your payment of %d was refunded.", payload.Amount)
	default:
		return errors.New("unknown payment event type: " + env.Type)
	}

	return r.deliver(ctx, request.RequesterID, kind, title, body)
}

func (r *NotificationReactor) deliver(
	ctx context.Context,
	userID uuid.UUID,
	kind domain.NotificationKind,
	title, body string,
) error {
	notification, err := domain.NewNotification(userID, kind, title, body)
	if err != nil {
		return err
	}
	if err := r.notifications.Create(ctx, notification); err != nil {
		return err
	}

	r.logger.Debug("notification delivered",
		"user_id", userID,
		"kind", kind)
	return nil
}
