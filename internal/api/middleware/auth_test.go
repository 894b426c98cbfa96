package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop-api/internal/service/auth"
)

// fakeJWTService accepts exactly one token and returns claims for a fixed
// user.
type fakeJWTService struct {
	token  string
	userID uuid.UUID
	err    error
}

func (s *fakeJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.token, nil
}

func (s *fakeJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token != s.token {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: s.userID}, nil
}

func newAuthedHandler(t *testing.T, jwt auth.JWTService) (http.Handler, *uuid.UUID) {
	t.Helper()
	var seen uuid.UUID
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r)
		require.True(t, ok)
		seen = userID
		w.WriteHeader(http.StatusOK)
	})
	return NewAuthMiddleware(jwt).Authenticate(inner), &seen
}

func TestAuthenticateValidToken(t *testing.T) {
	userID := uuid.New()
	handler, seen := newAuthedHandler(t, &fakeJWTService{token: "good-token", userID: userID})

	req := httptest.NewRequest(http.MethodGet, "/requests", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, *seen)
}

func TestAuthenticateRejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
		svcErr error
	}{
		{"missing header", "", nil},
		{"not bearer", "Basic abc123", nil},
		{"wrong token", "Bearer bad-token", nil},
		{"expired token", "Bearer good-token", auth.ErrExpiredToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler, _ := newAuthedHandler(t, &fakeJWTService{
				token:  "good-token",
				userID: uuid.New(),
				err:    tc.svcErr,
			})

			req := httptest.NewRequest(http.MethodGet, "/requests", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
