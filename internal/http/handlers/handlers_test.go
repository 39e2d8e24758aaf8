package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	apierrors "github.com/pribylovaa/go-profile-auth/internal/http/errors"
	"github.com/pribylovaa/go-profile-auth/internal/models"
	"github.com/stretchr/testify/require"
)

func TestDecodeStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"ok", `{"email":"a@b.c","password":"x"}`, false},
		{"unknown_field", `{"email":"a@b.c","role":"admin"}`, true},
		{"trailing_object", `{"email":"a@b.c"}{"email":"d@e.f"}`, true},
		{"broken", `{"email":`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var in loginRequest
			err := decodeStrict(httptest.NewRecorder(), req, &in)
			if !tt.wantErr {
				require.NoError(t, err)
				require.Equal(t, "a@b.c", in.Email)
				return
			}
			require.ErrorIs(t, err, apierrors.ErrInvalidArgument)
		})
	}
}

func TestDecodeStrict_BodyTooLarge(t *testing.T) {
	t.Parallel()

	big := `{"email":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))

	var in loginRequest
	require.ErrorIs(t, decodeStrict(httptest.NewRecorder(), req, &in), apierrors.ErrInvalidArgument)
}

func TestUserFromModel_NeverExposesHash(t *testing.T) {
	t.Parallel()

	u := &models.User{
		ID:           uuid.New(),
		Username:     "johnDoe",
		PasswordHash: "$2a$10$secret",
		Preferences:  models.DefaultPreferences(),
		CreatedAt:    time.Now(),
	}

	out := userFromModel(u)
	require.Equal(t, []string{"male", "female"}, out.Preferences.Genders)
	require.NotNil(t, out.Interests)

	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, out)
	require.NotContains(t, rr.Body.String(), "$2a$10$secret")
	require.Contains(t, rr.Body.String(), `"profilePicture"`)
}

func TestNew_CookieDefaults(t *testing.T) {
	t.Parallel()

	h := New(nil, CookieOptions{})
	require.Equal(t, "refreshToken", h.cookie.Name)
	require.Equal(t, "/auth", h.cookie.Path)
}
