// Package service provides the business logic layer for the admin console:
// authentication, catalog management, chapter ingestion, and log backups.
package service

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/vojaudio/voj-server/internal/auth"
	apperrors "github.com/vojaudio/voj-server/internal/errors"
	"github.com/vojaudio/voj-server/internal/ratelimit"
)

// Session describes an issued admin session.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthService authenticates the single admin account and issues session tokens.
type AuthService struct {
	tokens       *auth.TokenService
	username     string
	passwordHash string
	limiter      *ratelimit.KeyedRateLimiter
	logger       *slog.Logger
}

// NewAuthService creates an auth service for the configured admin account.
// passwordHash is the argon2id hash of the admin password.
func NewAuthService(tokens *auth.TokenService, username, passwordHash string, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *AuthService {
	return &AuthService{
		tokens:       tokens,
		username:     username,
		passwordHash: passwordHash,
		limiter:      limiter,
		logger:       logger,
	}
}

// Login verifies the admin credentials and issues a session token.
// Attempts are throttled per client IP.
func (s *AuthService) Login(_ context.Context, username, password, clientIP string) (*Session, error) {
	if s.limiter != nil && !s.limiter.Allow(clientIP) {
		if s.logger != nil {
			s.logger.Warn("login throttled", "ip", clientIP)
		}
		return nil, apperrors.RateLimited("too many login attempts, try again later")
	}

	// Verify both factors before returning so username and password
	// failures are indistinguishable in timing.
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passwordOK, err := auth.VerifyPassword(s.passwordHash, password)
	if err != nil {
		return nil, apperrors.Internal("verify password").WithCause(err)
	}

	if !usernameOK || !passwordOK {
		if s.logger != nil {
			s.logger.Warn("login failed", "ip", clientIP)
		}
		return nil, apperrors.InvalidCredentials("invalid username or password")
	}

	token, err := s.tokens.GenerateSessionToken(s.username)
	if err != nil {
		return nil, apperrors.Internal("generate session token").WithCause(err)
	}

	if s.logger != nil {
		s.logger.Info("admin logged in", "ip", clientIP)
	}

	return &Session{
		Token:     token,
		Username:  s.username,
		ExpiresAt: time.Now().Add(s.tokens.SessionDuration()),
	}, nil
}

// Verify checks a session token and returns the authenticated username.
func (s *AuthService) Verify(_ context.Context, token string) (string, error) {
	claims, err := s.tokens.VerifySessionToken(token)
	if err != nil {
		return "", apperrors.Unauthorized("invalid or expired session")
	}
	return claims.Username, nil
}
