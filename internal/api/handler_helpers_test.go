package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop-api/internal/api/shared"
)

// newJSONRequest builds a request with a JSON body and, when userID is
// non-nil, an authenticated context the way the auth middleware would
// leave it.
func newJSONRequest(t *testing.T, method, target string, body interface{}, userID *uuid.UUID) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != nil {
		ctx := context.WithValue(req.Context(), shared.UserIDContextKey, *userID)
		req = req.WithContext(ctx)
	}
	return req
}

// decodeBody unmarshals the recorded response body into v.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}
