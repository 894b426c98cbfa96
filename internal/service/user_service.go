package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/events"
	"github.com/taskloop/taskloop-api/internal/service/auth"
	"github.com/taskloop/taskloop-api/internal/store"
)

// UserService provides account registration, login, and profile lookup.
type UserService interface {
	// Register creates a new user account and returns the user together
	// with a signed access token. Returns ErrEmailTaken if the email is
	// already registered.
	Register(ctx context.Context, email, displayName, password string) (*domain.User, string, error)

	// Login verifies the credentials and returns the user together with a
	// signed access token. Returns ErrInvalidCredentials on any mismatch.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// userServiceImpl implements the UserService interface
type userServiceImpl struct {
	db       *sql.DB
	users    store.UserStore
	outbox   events.OutboxStore
	jwt      auth.JWTService
	verifier auth.PasswordVerifier
	logger   *slog.Logger
}

// NewUserService creates a new UserService.
// It returns an error if any of the required dependencies are nil.
func NewUserService(
	db *sql.DB,
	users store.UserStore,
	outbox events.OutboxStore,
	jwt auth.JWTService,
	verifier auth.PasswordVerifier,
	logger *slog.Logger,
) (UserService, error) {
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if users == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "users cannot be nil"}
	}
	if outbox == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "outbox cannot be nil"}
	}
	if jwt == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "jwt cannot be nil"}
	}
	if verifier == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "verifier cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &userServiceImpl{
		db:       db,
		users:    users,
		outbox:   outbox,
		jwt:      jwt,
		verifier: verifier,
		logger:   logger.With("component", "user_service"),
	}, nil
}

// Register creates the user and the user.lifecycle registration event in one
// transaction, then issues an access token.
func (s *userServiceImpl) Register(
	ctx context.Context,
	email, displayName, password string,
) (*domain.User, string, error) {
	user, err := domain.NewUser(email, displayName, password)
	if err != nil {
		return nil, "", NewServiceError("register", "invalid user data", err)
	}

	err = store.RunInTransaction(ctx, s.db, s.logger, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
			if errors.Is(err, store.ErrEmailExists) {
				return ErrEmailTaken
			}
			return err
		}

		payload := events.UserRegisteredPayload{
			UserID:      user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
		}
		return s.outbox.Enqueue(ctx, tx, events.NewOutboxEvent(
			events.StreamUserLifecycle,
			events.TypeUserRegistered,
			payload.Encode(),
		))
	})
	if err != nil {
		return nil, "", NewServiceError("register", "failed to create user", err)
	}

	token, err := s.jwt.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, "", NewServiceError("register", "failed to issue token", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login verifies the credentials against the stored bcrypt hash.
func (s *userServiceImpl) Login(
	ctx context.Context,
	email, password string,
) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", NewServiceError("login", "failed to look up user", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, "", NewServiceError("login", "failed to issue token", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// GetUser retrieves a user by ID.
func (s *userServiceImpl) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, NewServiceError("get_user", "failed to look up user", err)
	}
	return user, nil
}
