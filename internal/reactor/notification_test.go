package reactor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/events"
)

func newNotificationFixture(t *testing.T) (*NotificationReactor, *fakeNotificationStore, *fakeRequestStore) {
	t.Helper()

	notifications := &fakeNotificationStore{}
	requests := newFakeRequestStore()
	reactor, err := NewNotificationReactor(notifications, requests, testLogger())
	require.NoError(t, err)
	return reactor, notifications, requests
}

func TestNotificationReactorWelcome(t *testing.T) {
	reactor, notifications, _ := newNotificationFixture(t)
	userID := uuid.New()

	payload := events.UserRegisteredPayload{
		UserID:      userID,
		Email:       "ada@example.com",
		DisplayName: "Ada",
	}
	env := events.NewEnvelope(events.TypeUserRegistered, payload.Encode())

	require.NoError(t, reactor.onUserRegistered(context.Background(), env))

	inbox := notifications.forUser(userID)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationWelcome, inbox[0].Kind)
	assert.Contains(t, inbox[0].Body, "Ada")
}

func TestNotificationReactorClaimNotifiesRequester(t *testing.T) {
	reactor, notifications, _ := newNotificationFixture(t)
	requesterID := uuid.New()
	providerID := uuid.New()

	payload := events.StatusChangedPayload{
		RequestID:   uuid.New(),
		RequesterID: requesterID,
		ProviderID:  providerID,
		OldStatus:   domain.RequestStatusPending,
		NewStatus:   domain.RequestStatusAccepted,
	}
	env := events.NewEnvelope(events.TypeRequestStatusChanged, payload.Encode())

	require.NoError(t, reactor.onStatusChanged(context.Background(), env))

	inbox := notifications.forUser(requesterID)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationRequestClaimed, inbox[0].Kind)

	// The provider is not notified about their own claim.
	assert.Empty(t, notifications.forUser(providerID))
}

func TestNotificationReactorCancellationNotifiesProvider(t *testing.T) {
	reactor, notifications, _ := newNotificationFixture(t)
	requesterID := uuid.New()
	providerID := uuid.New()

	payload := events.StatusChangedPayload{
		RequestID:   uuid.New(),
		RequesterID: requesterID,
		ProviderID:  providerID,
		OldStatus:   domain.RequestStatusAccepted,
		NewStatus:   domain.RequestStatusCancelled,
	}
	env := events.NewEnvelope(events.TypeRequestStatusChanged, payload.Encode())

	require.NoError(t, reactor.onStatusChanged(context.Background(), env))

	assert.Len(t, notifications.forUser(requesterID), 1)
	assert.Len(t, notifications.forUser(providerID), 1)
}

func TestNotificationReactorCompletionNotifiesBothParties(t *testing.T) {
	reactor, notifications, _ := newNotificationFixture(t)
	requesterID := uuid.New()
	providerID := uuid.New()

	payload := events.ServiceCompletedPayload{
		RequestID:    uuid.New(),
		AssignmentID: uuid.New(),
		RequesterID:  requesterID,
		ProviderID:   providerID,
	}
	env := events.NewEnvelope(events.TypeServiceCompleted, payload.Encode())

	require.NoError(t, reactor.onServiceCompleted(context.Background(), env))

	requesterInbox := notifications.forUser(requesterID)
	require.Len(t, requesterInbox, 1)
	assert.Equal(t, domain.NotificationServiceCompleted, requesterInbox[0].Kind)

	providerInbox := notifications.forUser(providerID)
	require.Len(t, providerInbox, 1)
	assert.Equal(t, domain.NotificationServiceCompleted, providerInbox[0].Kind)
}

func TestNotificationReactorRatingNotifiesRatee(t *testing.T) {
	reactor, notifications, _ := newNotificationFixture(t)
	rateeID := uuid.New()

	payload := events.RatingCreatedPayload{
		RatingID:     uuid.New(),
		AssignmentID: uuid.New(),
		RaterID:      uuid.New(),
		RateeID:      rateeID,
		Score:        4.5,
		Direction:    domain.RatesProvider,
	}
	env := events.NewEnvelope(events.TypeRatingCreated, payload.Encode())

	require.NoError(t, reactor.onRatingCreated(context.Background(), env))

	inbox := notifications.forUser(rateeID)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationRatingReceived, inbox[0].Kind)
	assert.Contains(t, inbox[0].Body, "4.5")
}

func TestNotificationReactorPaymentOutcomes(t *testing.T) {
	reactor, notifications, requests := newNotificationFixture(t)
	request, err := domain.NewServiceRequest(uuid.New(), "paint fence", "white", 8000)
	require.NoError(t, err)
	requests.add(request)

	for _, tc := range []struct {
		eventType string
		reason    string
		wantKind  domain.NotificationKind
	}{
		{events.TypePaymentProcessed, "", domain.NotificationPaymentProcessed},
		{events.TypePaymentFailed, "card declined", domain.NotificationPaymentFailed},
		{events.TypePaymentRefunded, "", domain.NotificationPaymentRefunded},
	} {
		payload := events.PaymentOutcomePayload{
			RequestID: request.ID,
			Amount:    request.OfferedAmount,
			Reason:    tc.reason,
		}
		env := events.NewEnvelope(tc.eventType, payload.Encode())
		require.NoError(t, reactor.onPaymentOutcome(context.Background(), env))
	}

	inbox := notifications.forUser(request.RequesterID)
	require.Len(t, inbox, 3)
	assert.Equal(t, domain.NotificationPaymentProcessed, inbox[0].Kind)
	assert.Equal(t, domain.NotificationPaymentFailed, inbox[1].Kind)
	assert.Contains(t, inbox[1].Body, "card declined")
	assert.Equal(t, domain.NotificationPaymentRefunded, inbox[2].Kind)
}

func TestNotificationReactorDropsPaymentForUnknownRequest(t *testing.T) {
	reactor, notifications, _ := newNotificationFixture(t)

	payload := events.PaymentOutcomePayload{
		RequestID: uuid.New(),
		Amount:    100,
	}
	env := events.NewEnvelope(events.TypePaymentProcessed, payload.Encode())

	require.NoError(t, reactor.onPaymentOutcome(context.Background(), env))
	assert.Empty(t, notifications.notifications)
}
