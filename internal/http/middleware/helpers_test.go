package middleware

import (
	"testing"
	"time"

	"github.com/pribylovaa/go-profile-auth/internal/config"
	"github.com/pribylovaa/go-profile-auth/internal/tokens"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *tokens.Manager {
	t.Helper()
	m, err := tokens.New(config.AuthConfig{
		JWTSecret:       "unit-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Leeway:          5 * time.Second,
		Issuer:          "profile-auth",
		Audience:        []string{"profile-api"},
	})
	require.NoError(t, err)
	return m
}
