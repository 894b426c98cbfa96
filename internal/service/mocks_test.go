package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/events"
	"github.com/taskloop/taskloop-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTxDB returns a sqlmock DB expecting the given number of committed
// transactions.
func newTxDB(t *testing.T, commits int) *sql.DB {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for i := 0; i < commits; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	return db
}

// newRollbackDB returns a sqlmock DB expecting one rolled-back transaction.
func newRollbackDB(t *testing.T) *sql.DB {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectRollback()
	return db
}

// fakeOutbox records enqueued events in order.
type fakeOutbox struct {
	mu     sync.Mutex
	events []*events.OutboxEvent
}

func (o *fakeOutbox) Enqueue(ctx context.Context, tx *sql.Tx, event *events.OutboxEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	event.ID = int64(len(o.events) + 1)
	o.events = append(o.events, event)
	return nil
}

func (o *fakeOutbox) FetchUnpublished(ctx context.Context, limit int) ([]*events.OutboxEvent, error) {
	return nil, nil
}

func (o *fakeOutbox) MarkPublished(ctx context.Context, id int64) error {
	return nil
}

func (o *fakeOutbox) byType(eventType string) []*events.OutboxEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	var matched []*events.OutboxEvent
	for _, event := range o.events {
		if event.EventType == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

// fakeUserStore is an in-memory store.UserStore.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (s *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	if user.Password != "" {
		user.HashedPassword = "hashed:" + user.Password
		user.Password = ""
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *fakeUserStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return s }

// fakeRequestStore is an in-memory store.RequestStore.
type fakeRequestStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*domain.ServiceRequest
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: make(map[uuid.UUID]*domain.ServiceRequest)}
}

func (s *fakeRequestStore) Create(ctx context.Context, request *domain.ServiceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *request
	s.requests[request.ID] = &copied
	return nil
}

func (s *fakeRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[id]
	if !ok {
		return nil, store.ErrRequestNotFound
	}
	copied := *request
	return &copied, nil
}

func (s *fakeRequestStore) ListByRequester(
	ctx context.Context,
	requesterID uuid.UUID,
) ([]*domain.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*domain.ServiceRequest
	for _, request := range s.requests {
		if request.RequesterID == requesterID {
			copied := *request
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeRequestStore) ListOpen(ctx context.Context, limit int) ([]*domain.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*domain.ServiceRequest
	for _, request := range s.requests {
		if request.Status == domain.RequestStatusPending && len(result) < limit {
			copied := *request
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeRequestStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.RequestStatus,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[id]
	if !ok {
		return store.ErrRequestNotFound
	}
	request.Status = status
	request.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeRequestStore) SetPaymentStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.PaymentStatus,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[id]
	if !ok {
		return store.ErrRequestNotFound
	}
	request.PaymentStatus = status
	return nil
}

func (s *fakeRequestStore) ClaimPending(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[id]
	if !ok || request.Status != domain.RequestStatusPending {
		return false, nil
	}
	request.Status = domain.RequestStatusAccepted
	return true, nil
}

func (s *fakeRequestStore) WithTx(tx *sql.Tx) store.RequestStore { return s }

// fakeAssignmentStore is an in-memory store.AssignmentStore.
type fakeAssignmentStore struct {
	mu          sync.Mutex
	assignments map[uuid.UUID]*domain.Assignment
}

func newFakeAssignmentStore() *fakeAssignmentStore {
	return &fakeAssignmentStore{assignments: make(map[uuid.UUID]*domain.Assignment)}
}

func (s *fakeAssignmentStore) Create(ctx context.Context, assignment *domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assignments {
		if existing.RequestID == assignment.RequestID &&
			existing.Status != domain.AssignmentStatusCancelled {
			return store.ErrDuplicateAssignment
		}
	}
	copied := *assignment
	s.assignments[assignment.ID] = &copied
	return nil
}

func (s *fakeAssignmentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignment, ok := s.assignments[id]
	if !ok {
		return nil, store.ErrAssignmentNotFound
	}
	copied := *assignment
	return &copied, nil
}

func (s *fakeAssignmentStore) GetActiveByRequestID(
	ctx context.Context,
	requestID uuid.UUID,
) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, assignment := range s.assignments {
		if assignment.RequestID == requestID &&
			assignment.Status != domain.AssignmentStatusCancelled {
			copied := *assignment
			return &copied, nil
		}
	}
	return nil, store.ErrAssignmentNotFound
}

func (s *fakeAssignmentStore) ListByProvider(
	ctx context.Context,
	providerID uuid.UUID,
) ([]*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*domain.Assignment
	for _, assignment := range s.assignments {
		if assignment.ProviderID == providerID {
			copied := *assignment
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeAssignmentStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.AssignmentStatus,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignment, ok := s.assignments[id]
	if !ok {
		return store.ErrAssignmentNotFound
	}
	assignment.Status = status
	assignment.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeAssignmentStore) AdvanceStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to domain.AssignmentStatus,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignment, ok := s.assignments[id]
	if !ok || assignment.Status != from {
		return false, nil
	}
	assignment.Status = to
	assignment.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *fakeAssignmentStore) WithTx(tx *sql.Tx) store.AssignmentStore { return s }

// fakeRatingStore is an in-memory store.RatingStore.
type fakeRatingStore struct {
	mu      sync.Mutex
	ratings map[uuid.UUID]*domain.Rating
}

func newFakeRatingStore() *fakeRatingStore {
	return &fakeRatingStore{ratings: make(map[uuid.UUID]*domain.Rating)}
}

func (s *fakeRatingStore) Create(ctx context.Context, rating *domain.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ratings {
		if existing.AssignmentID == rating.AssignmentID &&
			existing.RaterID == rating.RaterID &&
			existing.Direction == rating.Direction {
			return store.ErrDuplicateRating
		}
	}
	copied := *rating
	s.ratings[rating.ID] = &copied
	return nil
}

func (s *fakeRatingStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rating, ok := s.ratings[id]
	if !ok {
		return nil, store.ErrRatingNotFound
	}
	copied := *rating
	return &copied, nil
}

func (s *fakeRatingStore) ExistsFor(
	ctx context.Context,
	assignmentID, raterID uuid.UUID,
	direction domain.RatingDirection,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ratings {
		if existing.AssignmentID == assignmentID &&
			existing.RaterID == raterID &&
			existing.Direction == direction {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeRatingStore) ListByRatee(
	ctx context.Context,
	rateeID uuid.UUID,
) ([]*domain.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*domain.Rating
	for _, rating := range s.ratings {
		if rating.RateeID == rateeID {
			copied := *rating
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeRatingStore) WithTx(tx *sql.Tx) store.RatingStore { return s }

// fakeAggregateStore is an in-memory store.AggregateStore.
type fakeAggregateStore struct {
	mu         sync.Mutex
	aggregates map[uuid.UUID]*domain.RatingAggregate
}

func newFakeAggregateStore() *fakeAggregateStore {
	return &fakeAggregateStore{aggregates: make(map[uuid.UUID]*domain.RatingAggregate)}
}

func (s *fakeAggregateStore) Get(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.RatingAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	aggregate, ok := s.aggregates[userID]
	if !ok {
		return domain.NewRatingAggregate(userID), nil
	}
	copied := *aggregate
	return &copied, nil
}

func (s *fakeAggregateStore) Upsert(
	ctx context.Context,
	aggregate *domain.RatingAggregate,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *aggregate
	s.aggregates[aggregate.UserID] = &copied
	return nil
}

func (s *fakeAggregateStore) WithTx(tx *sql.Tx) store.AggregateStore { return s }

// fakeNotificationStore is an in-memory store.NotificationStore.
type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications map[uuid.UUID]*domain.Notification
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{notifications: make(map[uuid.UUID]*domain.Notification)}
}

func (s *fakeNotificationStore) Create(ctx context.Context, notification *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *notification
	s.notifications[notification.ID] = &copied
	return nil
}

func (s *fakeNotificationStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*domain.Notification
	for _, notification := range s.notifications {
		if notification.UserID == userID && len(result) < limit {
			copied := *notification
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeNotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	notification, ok := s.notifications[id]
	if !ok || notification.UserID != userID {
		return store.ErrNotificationNotFound
	}
	notification.Read = true
	return nil
}

func (s *fakeNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore { return s }
