package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/events"
)

type ratingFixture struct {
	svc         RatingService
	ratings     *fakeRatingStore
	aggregates  *fakeAggregateStore
	assignments *fakeAssignmentStore
	requests    *fakeRequestStore
	outbox      *fakeOutbox

	requesterID uuid.UUID
	providerID  uuid.UUID
	request     *domain.ServiceRequest
	assignment  *domain.Assignment
}

func newRatingFixture(t *testing.T, db *sql.DB, status domain.AssignmentStatus) *ratingFixture {
	t.Helper()

	f := &ratingFixture{
		ratings:     newFakeRatingStore(),
		aggregates:  newFakeAggregateStore(),
		assignments: newFakeAssignmentStore(),
		requests:    newFakeRequestStore(),
		outbox:      &fakeOutbox{},
		requesterID: uuid.New(),
		providerID:  uuid.New(),
	}

	svc, err := NewRatingService(
		db, f.ratings, f.aggregates, f.assignments, f.requests, f.outbox, testLogger())
	require.NoError(t, err)
	f.svc = svc

	request, err := domain.NewServiceRequest(f.requesterID, "assemble shelf", "flat pack", 3000)
	require.NoError(t, err)
	require.NoError(t, f.requests.Create(context.Background(), request))
	f.request = request

	assignment, err := domain.NewAssignment(request.ID, f.providerID)
	require.NoError(t, err)
	require.NoError(t, f.assignments.Create(context.Background(), assignment))
	require.NoError(t, f.assignments.UpdateStatus(context.Background(), assignment.ID, status))
	assignment.Status = status
	f.assignment = assignment

	return f
}

func TestSubmitRatingRequesterRatesProvider(t *testing.T) {
	f := newRatingFixture(t, newTxDB(t, 1), domain.AssignmentStatusCompleted)

	rating, err := f.svc.SubmitRating(
		context.Background(),
		f.assignment.ID, f.requesterID,
		4.5, domain.RatesProvider, "quick and tidy")
	require.NoError(t, err)

	assert.Equal(t, f.providerID, rating.RateeID)
	assert.Equal(t, 4.5, rating.Score)

	created := f.outbox.byType(events.TypeRatingCreated)
	require.Len(t, created, 1)
	assert.Equal(t, events.StreamServiceLifecycle, created[0].Stream)

	payload, err := events.DecodeRatingCreated(created[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, rating.ID, payload.RatingID)
	assert.Equal(t, f.providerID, payload.RateeID)
}

func TestSubmitRatingProviderRatesRequester(t *testing.T) {
	f := newRatingFixture(t, newTxDB(t, 1), domain.AssignmentStatusCompleted)

	rating, err := f.svc.SubmitRating(
		context.Background(),
		f.assignment.ID, f.providerID,
		3, domain.RatesRequester, "")
	require.NoError(t, err)
	assert.Equal(t, f.requesterID, rating.RateeID)
}

func TestSubmitRatingBeforeCompletion(t *testing.T) {
	f := newRatingFixture(t, newTxDB(t, 0), domain.AssignmentStatusInProgress)

	_, err := f.svc.SubmitRating(
		context.Background(),
		f.assignment.ID, f.requesterID,
		5, domain.RatesProvider, "")
	assert.ErrorIs(t, err, ErrServiceNotCompleted)
}

func TestSubmitRatingWrongParty(t *testing.T) {
	f := newRatingFixture(t, newTxDB(t, 0), domain.AssignmentStatusCompleted)

	// A stranger to the assignment cannot rate either side.
	_, err := f.svc.SubmitRating(
		context.Background(),
		f.assignment.ID, uuid.New(),
		5, domain.RatesProvider, "")
	assert.ErrorIs(t, err, ErrRatingNotAllowed)

	// The provider cannot rate in the requester's direction.
	_, err = f.svc.SubmitRating(
		context.Background(),
		f.assignment.ID, f.providerID,
		5, domain.RatesProvider, "")
	assert.ErrorIs(t, err, ErrRatingNotAllowed)
}

func TestSubmitRatingDuplicate(t *testing.T) {
	f := newRatingFixture(t, newTxDB(t, 1), domain.AssignmentStatusCompleted)

	_, err := f.svc.SubmitRating(
		context.Background(),
		f.assignment.ID, f.requesterID,
		4, domain.RatesProvider, "")
	require.NoError(t, err)

	_, err = f.svc.SubmitRating(
		context.Background(),
		f.assignment.ID, f.requesterID,
		2, domain.RatesProvider, "changed my mind")
	assert.ErrorIs(t, err, ErrDuplicateRating)
}

func TestSubmitRatingUnknownAssignment(t *testing.T) {
	f := newRatingFixture(t, newTxDB(t, 0), domain.AssignmentStatusCompleted)

	_, err := f.svc.SubmitRating(
		context.Background(),
		uuid.New(), f.requesterID,
		4, domain.RatesProvider, "")
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestSubmitRatingScoreOutOfRange(t *testing.T) {
	f := newRatingFixture(t, newTxDB(t, 0), domain.AssignmentStatusCompleted)

	_, err := f.svc.SubmitRating(
		context.Background(),
		f.assignment.ID, f.requesterID,
		6, domain.RatesProvider, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidRatingScore)
}

func TestGetAggregateDefaultsToZero(t *testing.T) {
	f := newRatingFixture(t, newTxDB(t, 0), domain.AssignmentStatusCompleted)

	userID := uuid.New()
	aggregate, err := f.svc.GetAggregate(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, aggregate.UserID)
	assert.Zero(t, aggregate.TotalRatings)
	assert.Zero(t, aggregate.AverageRating)
}
