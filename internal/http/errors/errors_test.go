package errors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	logctx "github.com/pribylovaa/go-profile-auth/internal/pkg/log"
	"github.com/pribylovaa/go-profile-auth/internal/service"
	"github.com/stretchr/testify/require"
)

func TestToHTTP_BaseMapping(t *testing.T) {
	tcs := []struct {
		name       string
		in         error
		wantStatus int
		wantCode   string
	}{
		{"invalid_argument", fmt.Errorf("%w: unexpected EOF", ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
		{"validation_bare", service.ErrValidationFailed, http.StatusBadRequest, "validation_failed"},
		{"duplicate", fmt.Errorf("op: %w", service.ErrDuplicateIdentity), http.StatusConflict, "duplicate_identity"},
		{"not_found", service.ErrNotFound, http.StatusNotFound, "not_found"},
		{"route_not_found", ErrRouteNotFound, http.StatusNotFound, "not_found"},
		{"method_not_allowed", ErrMethodNotAllowed, http.StatusMethodNotAllowed, "method_not_allowed"},
		{"invalid_credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{"missing_token", ErrMissingOrMalformedToken, http.StatusUnauthorized, "missing_token"},
		{"invalid_token", ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
		{"no_refresh", service.ErrNoRefreshToken, http.StatusUnauthorized, "no_refresh_token"},
		{"bad_refresh", service.ErrInvalidOrExpiredRefreshToken, http.StatusUnauthorized, "invalid_refresh_token"},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"avatars_disabled", service.ErrAvatarsDisabled, http.StatusNotImplemented, "not_implemented"},
		{"canceled", fmt.Errorf("op: %w", context.Canceled), StatusClientClosedRequest, "canceled"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded"},
		{"internal", fmt.Errorf("connection reset"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			gotStatus, resp := ToHTTP(tc.in)
			require.Equal(t, tc.wantStatus, gotStatus)
			require.Equal(t, tc.wantCode, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestToHTTP_NilError_Returns500Internal(t *testing.T) {
	gotStatus, resp := ToHTTP(nil)
	require.Equal(t, http.StatusInternalServerError, gotStatus)
	require.Equal(t, "internal", resp.Error.Code)
	require.Equal(t, "internal error", resp.Error.Message)
}

func TestToHTTP_ValidationErrorCarriesField(t *testing.T) {
	err := fmt.Errorf("service.auth.Register: %w", &service.ValidationError{Field: "age", Reason: "must be at least 18"})

	gotStatus, resp := ToHTTP(err)
	require.Equal(t, http.StatusBadRequest, gotStatus)
	require.Equal(t, "validation_failed", resp.Error.Code)
	require.Equal(t, "age", resp.Error.Field)
	require.Equal(t, "age: must be at least 18", resp.Error.Message)
}

// TestToHTTP_InternalDoesNotLeakCause — текст причины не попадает в ответ.
func TestToHTTP_InternalDoesNotLeakCause(t *testing.T) {
	_, resp := ToHTTP(fmt.Errorf("pq: password authentication failed for user admin"))
	require.Equal(t, "internal error", resp.Error.Message)
}

func TestWriteError_SetsJSONAndRequestID(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "rid-123")

	WriteError(rr, req, service.ErrNotFound)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var got map[string]map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, "not_found", got["error"]["code"])
	require.Equal(t, "rid-123", got["error"]["requestId"])
}

func TestWriteError_LogsInternalCauseServerSide(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(logctx.Into(req.Context(), logger))

	WriteError(rr, req, fmt.Errorf("db exploded"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "db exploded")
	require.Contains(t, buf.String(), "request_failed")
	require.Contains(t, buf.String(), "db exploded")
}
