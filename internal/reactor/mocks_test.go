package reactor

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePaymentStore is an in-memory store.PaymentStore keyed by request.
type fakePaymentStore struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*domain.Payment // by request ID
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[uuid.UUID]*domain.Payment)}
}

func (s *fakePaymentStore) Create(ctx context.Context, payment *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[payment.RequestID]; ok {
		return store.ErrDuplicatePayment
	}
	copied := *payment
	s.payments[payment.RequestID] = &copied
	return nil
}

func (s *fakePaymentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, payment := range s.payments {
		if payment.ID == id {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, store.ErrPaymentNotFound
}

func (s *fakePaymentStore) GetByRequestID(
	ctx context.Context,
	requestID uuid.UUID,
) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[requestID]
	if !ok {
		return nil, store.ErrPaymentNotFound
	}
	copied := *payment
	return &copied, nil
}

func (s *fakePaymentStore) UpdateStatusByRequestID(
	ctx context.Context,
	requestID uuid.UUID,
	status domain.PaymentStatus,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[requestID]
	if !ok {
		return store.ErrPaymentNotFound
	}
	payment.Status = status
	payment.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakePaymentStore) WithTx(tx *sql.Tx) store.PaymentStore { return s }

// fakeRequestStore is a minimal in-memory store.RequestStore.
type fakeRequestStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*domain.ServiceRequest
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: make(map[uuid.UUID]*domain.ServiceRequest)}
}

func (s *fakeRequestStore) add(request *domain.ServiceRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *request
	s.requests[request.ID] = &copied
}

func (s *fakeRequestStore) Create(ctx context.Context, request *domain.ServiceRequest) error {
	s.add(request)
	return nil
}

func (s *fakeRequestStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.ServiceRequest, error) {
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
	return nil, nil
}

func (s *fakeRequestStore) ListOpen(
	ctx context.Context,
	limit int,
) ([]*domain.ServiceRequest, error) {
	return nil, nil
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
	return false, nil
}

func (s *fakeRequestStore) WithTx(tx *sql.Tx) store.RequestStore { return s }

// fakeNotificationStore records created notifications.
type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications []*domain.Notification
}

func (s *fakeNotificationStore) Create(ctx context.Context, notification *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *notification
	s.notifications = append(s.notifications, &copied)
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
			result = append(result, notification)
		}
	}
	return result, nil
}

func (s *fakeNotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return nil
}

func (s *fakeNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore { return s }

func (s *fakeNotificationStore) forUser(userID uuid.UUID) []*domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*domain.Notification
	for _, notification := range s.notifications {
		if notification.UserID == userID {
			result = append(result, notification)
		}
	}
	return result
}

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
