package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/events"
	"github.com/taskloop/taskloop-api/internal/store"
)

// RequestService drives the service request lifecycle: creation, claiming,
// progress, completion, and cancellation. Every state change is persisted
// together with its lifecycle event in a single transaction; the outbox
// relay makes the event visible to the reactors afterwards.
type RequestService interface {
	// CreateRequest opens a new pending request offering the given amount.
	CreateRequest(
		ctx context.Context,
		requesterID uuid.UUID,
		title, description string,
		offeredAmount int64,
	) (*domain.ServiceRequest, error)

	// ClaimRequest lets a provider claim a pending request, creating an
	// assignment. Exactly one concurrent claimer wins; the rest get
	// domain.ErrRequestNotClaimable. Requesters cannot claim their own
	// request.
	ClaimRequest(
		ctx context.Context,
		requestID, providerID uuid.UUID,
	) (*domain.Assignment, error)

	// AcceptAssignment moves the provider's assignment from assigned to
	// accepted.
	AcceptAssignment(ctx context.Context, assignmentID, providerID uuid.UUID) error

	// StartWork moves the assignment to in_progress and the request with it.
	StartWork(ctx context.Context, assignmentID, providerID uuid.UUID) error

	// CompleteAssignment moves the assignment and request to completed and
	// announces the completion on the service lifecycle stream.
	CompleteAssignment(ctx context.Context, assignmentID, providerID uuid.UUID) error

	// CancelRequest cancels the requester's own request, along with any
	// active assignment.
	CancelRequest(ctx context.Context, requestID, requesterID uuid.UUID) error

	// GetRequest retrieves a request by ID.
	GetRequest(ctx context.Context, id uuid.UUID) (*domain.ServiceRequest, error)

	// ListOpenRequests retrieves pending requests available for claiming.
	ListOpenRequests(ctx context.Context, limit int) ([]*domain.ServiceRequest, error)

	// ListRequestsByRequester retrieves the user's own requests.
	ListRequestsByRequester(ctx context.Context, requesterID uuid.UUID) ([]*domain.ServiceRequest, error)

	// ListAssignmentsByProvider retrieves the provider's assignments.
	ListAssignmentsByProvider(ctx context.Context, providerID uuid.UUID) ([]*domain.Assignment, error)
}

// requestServiceImpl implements the RequestService interface
type requestServiceImpl struct {
	db          *sql.DB
	requests    store.RequestStore
	assignments store.AssignmentStore
	outbox      events.OutboxStore
	logger      *slog.Logger
}

// NewRequestService creates a new RequestService.
// It returns an error if any of the required dependencies are nil.
func NewRequestService(
	db *sql.DB,
	requests store.RequestStore,
	assignments store.AssignmentStore,
	outbox events.OutboxStore,
	logger *slog.Logger,
) (RequestService, error) {
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if requests == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "requests cannot be nil"}
	}
	if assignments == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "assignments cannot be nil"}
	}
	if outbox == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "outbox cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &requestServiceImpl{
		db:          db,
		requests:    requests,
		assignments: assignments,
		outbox:      outbox,
		logger:      logger.With("component", "request_service"),
	}, nil
}

// CreateRequest opens a new pending request and enqueues the creation event.
func (s *requestServiceImpl) CreateRequest(
	ctx context.Context,
	requesterID uuid.UUID,
	title, description string,
	offeredAmount int64,
) (*domain.ServiceRequest, error) {
	request, err := domain.NewServiceRequest(requesterID, title, description, offeredAmount)
	if err != nil {
		return nil, NewServiceError("create_request", "invalid request data", err)
	}

	err = store.RunInTransaction(ctx, s.db, s.logger, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.requests.WithTx(tx).Create(ctx, request); err != nil {
			return err
		}

		payload := events.RequestCreatedPayload{
			RequestID:     request.ID,
			RequesterID:   request.RequesterID,
			Title:         request.Title,
			OfferedAmount: request.OfferedAmount,
		}
		return s.outbox.Enqueue(ctx, tx, events.NewOutboxEvent(
			events.StreamServiceLifecycle,
			events.TypeServiceRequestCreated,
			payload.Encode(),
		))
	})
	if err != nil {
		return nil, NewServiceError("create_request", "failed to create request", err)
	}

	s.logger.Info("service request created",
		"request_id", request.ID,
		"requester_id", request.RequesterID)
	return request, nil
}

// ClaimRequest claims a pending request for the provider. The conditional
// status update in ClaimPending decides the winner among concurrent
// claimers; losers see no affected row and get ErrRequestNotClaimable.
func (s *requestServiceImpl) ClaimRequest(
	ctx context.Context,
	requestID, providerID uuid.UUID,
) (*domain.Assignment, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RequesterID == providerID {
		return nil, domain.ErrSelfClaim
	}

	assignment, err := domain.NewAssignment(requestID, providerID)
	if err != nil {
		return nil, NewServiceError("claim_request", "invalid assignment data", err)
	}

	err = store.RunInTransaction(ctx, s.db, s.logger, func(ctx context.Context, tx *sql.Tx) error {
		txRequests := s.requests.WithTx(tx)

		claimed, err := txRequests.ClaimPending(ctx, requestID)
		if err != nil {
			return err
		}
		if !claimed {
			return domain.ErrRequestNotClaimable
		}

		if err := s.assignments.WithTx(tx).Create(ctx, assignment); err != nil {
			if errors.Is(err, store.ErrDuplicateAssignment) {
				return domain.ErrRequestAlreadyAssigned
			}
			return err
		}

		payload := events.StatusChangedPayload{
			RequestID:   requestID,
			RequesterID: request.RequesterID,
			ProviderID:  providerID,
			OldStatus:   domain.RequestStatusPending,
			NewStatus:   domain.RequestStatusAccepted,
		}
		return s.outbox.Enqueue(ctx, tx, events.NewOutboxEvent(
			events.StreamServiceLifecycle,
			events.TypeRequestStatusChanged,
			payload.Encode(),
		))
	})
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotClaimable) ||
			errors.Is(err, domain.ErrRequestAlreadyAssigned) {
			return nil, err
		}
		return nil, NewServiceError("claim_request", "failed to claim request", err)
	}

	s.logger.Info("request claimed",
		"request_id", requestID,
		"provider_id", providerID,
		"assignment_id", assignment.ID)
	return assignment, nil
}

// AcceptAssignment moves the assignment from assigned to accepted. The
// request stays accepted, so no lifecycle event is produced.
func (s *requestServiceImpl) AcceptAssignment(
	ctx context.Context,
	assignmentID, providerID uuid.UUID,
) error {
	assignment, err := s.getProviderAssignment(ctx, assignmentID, providerID)
	if err != nil {
		return err
	}

	fromStatus := assignment.Status
	if err := assignment.Transition(domain.AssignmentStatusAccepted); err != nil {
		return err
	}

	advanced, err := s.assignments.AdvanceStatus(ctx, assignmentID, fromStatus, assignment.Status)
	if err != nil {
		return NewServiceError("accept_assignment", "failed to update assignment", err)
	}
	if !advanced {
		return &domain.InvalidTransitionError{
			Entity: "assignment",
			From:   string(fromStatus),
			To:     string(assignment.Status),
		}
	}

	s.logger.Info("assignment accepted",
		"assignment_id", assignmentID,
		"provider_id", providerID)
	return nil
}

// StartWork moves the assignment and its request to in_progress.
func (s *requestServiceImpl) StartWork(
	ctx context.Context,
	assignmentID, providerID uuid.UUID,
) error {
	return s.advanceAssignment(
		ctx,
		"start_work",
		assignmentID,
		providerID,
		domain.AssignmentStatusInProgress,
		domain.RequestStatusInProgress,
		false,
	)
}

// CompleteAssignment moves the assignment and its request to completed and
// announces the completion. The completion event is what triggers payment
// capture and unlocks rating submission downstream.
func (s *requestServiceImpl) CompleteAssignment(
	ctx context.Context,
	assignmentID, providerID uuid.UUID,
) error {
	return s.advanceAssignment(
		ctx,
		"complete_assignment",
		assignmentID,
		providerID,
		domain.AssignmentStatusCompleted,
		domain.RequestStatusCompleted,
		true,
	)
}

// advanceAssignment applies a paired assignment/request transition inside
// one transaction, emitting the request status change and, for completion,
// the service completed event.
func (s *requestServiceImpl) advanceAssignment(
	ctx context.Context,
	operation string,
	assignmentID, providerID uuid.UUID,
	assignmentStatus domain.AssignmentStatus,
	requestStatus domain.RequestStatus,
	completed bool,
) error {
	assignment, err := s.getProviderAssignment(ctx, assignmentID, providerID)
	if err != nil {
		return err
	}

	request, err := s.getRequest(ctx, assignment.RequestID)
	if err != nil {
		return err
	}

	fromStatus := assignment.Status
	if err := assignment.Transition(assignmentStatus); err != nil {
		return err
	}
	oldStatus := request.Status
	if err := request.Transition(requestStatus); err != nil {
		return err
	}

	err = store.RunInTransaction(ctx, s.db, s.logger, func(ctx context.Context, tx *sql.Tx) error {
		// The conditional update decides the winner when two calls race on
		// the same assignment. The loser rolls back without enqueueing its
		// lifecycle events.
		advanced, err := s.assignments.WithTx(tx).AdvanceStatus(ctx, assignmentID, fromStatus, assignment.Status)
		if err != nil {
			return err
		}
		if !advanced {
			return &domain.InvalidTransitionError{
				Entity: "assignment",
				From:   string(fromStatus),
				To:     string(assignment.Status),
			}
		}
		txRequests := s.requests.WithTx(tx)
		if err := txRequests.UpdateStatus(ctx, request.ID, request.Status); err != nil {
			return err
		}

		statusPayload := events.StatusChangedPayload{
			RequestID:   request.ID,
			RequesterID: request.RequesterID,
			ProviderID:  providerID,
			OldStatus:   oldStatus,
			NewStatus:   request.Status,
		}
		if err := s.outbox.Enqueue(ctx, tx, events.NewOutboxEvent(
			events.StreamServiceLifecycle,
			events.TypeRequestStatusChanged,
			statusPayload.Encode(),
		)); err != nil {
			return err
		}

		if !completed {
			return nil
		}
		completedPayload := events.ServiceCompletedPayload{
			RequestID:    request.ID,
			AssignmentID: assignment.ID,
			RequesterID:  request.RequesterID,
			ProviderID:   providerID,
		}
		return s.outbox.Enqueue(ctx, tx, events.NewOutboxEvent(
			events.StreamServiceLifecycle,
			events.TypeServiceCompleted,
			completedPayload.Encode(),
		))
	})
	if err != nil {
		if domain.IsInvalidTransition(err) {
			return err
		}
		return NewServiceError(operation, "failed to update lifecycle state", err)
	}

	s.logger.Info("assignment advanced",
		"assignment_id", assignmentID,
		"request_id", request.ID,
		"assignment_status", assignment.Status,
		"request_status", request.Status)
	return nil
}

// CancelRequest cancels the requester's own request and any active
// assignment on it.
func (s *requestServiceImpl) CancelRequest(
	ctx context.Context,
	requestID, requesterID uuid.UUID,
) error {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.RequesterID != requesterID {
		return ErrNotRequestOwner
	}

	oldStatus := request.Status
	if err := request.Transition(domain.RequestStatusCancelled); err != nil {
		return err
	}

	assignment, err := s.assignments.GetActiveByRequestID(ctx, requestID)
	if err != nil && !store.IsNotFoundError(err) {
		return NewServiceError("cancel_request", "failed to look up assignment", err)
	}

	err = store.RunInTransaction(ctx, s.db, s.logger, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.requests.WithTx(tx).UpdateStatus(ctx, requestID, request.Status); err != nil {
			return err
		}

		providerID := uuid.Nil
		if assignment != nil {
			if err := assignment.Transition(domain.AssignmentStatusCancelled); err != nil {
				return err
			}
			if err := s.assignments.WithTx(tx).UpdateStatus(ctx, assignment.ID, assignment.Status); err != nil {
				return err
			}
			providerID = assignment.ProviderID
		}

		payload := events.StatusChangedPayload{
			RequestID:   requestID,
			RequesterID: request.RequesterID,
			ProviderID:  providerID,
			OldStatus:   oldStatus,
			NewStatus:   domain.RequestStatusCancelled,
		}
		return s.outbox.Enqueue(ctx, tx, events.NewOutboxEvent(
			events.StreamServiceLifecycle,
			events.TypeRequestStatusChanged,
			payload.Encode(),
		))
	})
	if err != nil {
		return NewServiceError("cancel_request", "failed to cancel request", err)
	}

	s.logger.Info("request cancelled",
		"request_id", requestID,
		"requester_id", requesterID)
	return nil
}

// GetRequest retrieves a request by ID.
func (s *requestServiceImpl) GetRequest(
	ctx context.Context,
	id uuid.UUID,
) (*domain.ServiceRequest, error) {
	return s.getRequest(ctx, id)
}

// ListOpenRequests retrieves pending requests available for claiming.
func (s *requestServiceImpl) ListOpenRequests(
	ctx context.Context,
	limit int,
) ([]*domain.ServiceRequest, error) {
	requests, err := s.requests.ListOpen(ctx, limit)
	if err != nil {
		return nil, NewServiceError("list_open_requests", "failed to list requests", err)
	}
	return requests, nil
}

// ListRequestsByRequester retrieves the user's own requests.
func (s *requestServiceImpl) ListRequestsByRequester(
	ctx context.Context,
	requesterID uuid.UUID,
) ([]*domain.ServiceRequest, error) {
	requests, err := s.requests.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, NewServiceError("list_requests", "failed to list requests", err)
	}
	return requests, nil
}

// ListAssignmentsByProvider retrieves the provider's assignments.
func (s *requestServiceImpl) ListAssignmentsByProvider(
	ctx context.Context,
	providerID uuid.UUID,
) ([]*domain.Assignment, error) {
	assignments, err := s.assignments.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, NewServiceError("list_assignments", "failed to list assignments", err)
	}
	return assignments, nil
}

func (s *requestServiceImpl) getRequest(
	ctx context.Context,
	id uuid.UUID,
) (*domain.ServiceRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrRequestNotFound
		}
		return nil, NewServiceError("get_request", "failed to look up request", err)
	}
	return request, nil
}

func (s *requestServiceImpl) getProviderAssignment(
	ctx context.Context,
	assignmentID, providerID uuid.UUID,
) (*domain.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, NewServiceError("get_assignment", "failed to look up assignment", err)
	}
	if assignment.ProviderID != providerID {
		return nil, ErrNotAssignmentProvider
	}
	return assignment, nil
}
