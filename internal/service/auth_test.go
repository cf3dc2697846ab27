package service_test

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vojaudio/voj-server/internal/auth"
	"github.com/vojaudio/voj-server/internal/ratelimit"
	"github.com/vojaudio/voj-server/internal/service"

	apperrors "github.com/vojaudio/voj-server/internal/errors"
)

func newTestAuthService(t *testing.T, rps float64, burst int) *service.AuthService {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	limiter := ratelimit.New(rps, burst)
	t.Cleanup(limiter.Stop)

	return service.NewAuthService(tokens, "admin", hash, limiter, testLogger())
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t, 100, 100)

	session, err := svc.Login(t.Context(), "admin", "correct horse battery staple", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Username)
	assert.NotEmpty(t, session.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

	username, err := svc.Verify(t.Context(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := newTestAuthService(t, 100, 100)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "guessing"},
		{"wrong username", "root", "correct horse battery staple"},
		{"both wrong", "root", "guessing"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(t.Context(), tt.username, tt.password, "10.0.0.1")
			assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		})
	}
}

func TestLogin_RateLimited(t *testing.T) {
	svc := newTestAuthService(t, 0.001, 2)

	for range 2 {
		_, err := svc.Login(t.Context(), "admin", "guessing", "203.0.113.9")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}

	_, err := svc.Login(t.Context(), "admin", "correct horse battery staple", "203.0.113.9")
	assert.ErrorIs(t, err, apperrors.ErrRateLimited)

	// Throttling is per client address.
	_, err = svc.Login(t.Context(), "admin", "correct horse battery staple", "203.0.113.10")
	require.NoError(t, err)
}

func TestVerify_Garbage(t *testing.T) {
	svc := newTestAuthService(t, 100, 100)

	_, err := svc.Verify(t.Context(), "v4.local.not-a-real-token")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
