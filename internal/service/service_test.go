package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/go-profile-auth/internal/config"
	"github.com/pribylovaa/go-profile-auth/internal/password"
	"github.com/pribylovaa/go-profile-auth/internal/tokens"
	"github.com/pribylovaa/go-profile-auth/mocks"
	"github.com/stretchr/testify/require"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "unit-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Leeway:          5 * time.Second,
		Issuer:          "profile-auth",
		Audience:        []string{"profile-api"},
	}
}

// testHasher — минимальная стоимость bcrypt ускоряет тесты.
func testHasher() *password.Hasher {
	return password.New(4)
}

func newTokens(t *testing.T, opts ...tokens.Option) *tokens.Manager {
	t.Helper()
	tm, err := tokens.New(testCfg(), opts...)
	require.NoError(t, err)
	return tm
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	return New(st, testHasher(), newTokens(t)), st
}

func TestValidationError_IsValidationFailed(t *testing.T) {
	t.Parallel()

	err := invalid("age", "must be at least 18")
	require.ErrorIs(t, err, ErrValidationFailed)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "age", ve.Field)
	require.Contains(t, err.Error(), "age")
}
