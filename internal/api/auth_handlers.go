package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Admin login",
		Description: "Authenticates the admin account and returns a session token",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Ends the admin session. Tokens are stateless, so this is a client-side discard.",
		Tags:        []string{"Authentication"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current session",
		Description: "Returns the authenticated admin identity",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMe)
}

// === DTOs ===

// LoginRequest is the request body for admin login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100" doc:"Admin username"`
	Password string `json:"password" validate:"required,max=1024" doc:"Admin password"`
}

// LoginInput wraps the login request with headers for Huma.
type LoginInput struct {
	Body          LoginRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// SessionResponse contains the issued session token.
type SessionResponse struct {
	Token     string    `json:"token" doc:"PASETO session token"`
	TokenType string    `json:"token_type" doc:"Token type (Bearer)"`
	Username  string    `json:"username" doc:"Authenticated admin"`
	ExpiresAt time.Time `json:"expires_at" doc:"Token expiry"`
}

// SessionOutput wraps the session response for Huma.
type SessionOutput struct {
	Body SessionResponse
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// MeInput carries the Authorization header for Huma.
type MeInput struct {
	Authorization string `header:"Authorization"`
}

// MeResponse describes the current session.
type MeResponse struct {
	Username string `json:"username" doc:"Authenticated admin"`
}

// MeOutput wraps the me response for Huma.
type MeOutput struct {
	Body MeResponse
}

// === Handlers ===

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	clientIP := input.XRealIP
	if clientIP == "" && input.XForwardedFor != "" {
		clientIP = strings.TrimSpace(strings.SplitN(input.XForwardedFor, ",", 2)[0])
	}
	if clientIP == "" {
		clientIP = "unknown"
	}

	session, err := s.services.Auth.Login(ctx, input.Body.Username, input.Body.Password, clientIP)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: SessionResponse{
		Token:     session.Token,
		TokenType: "Bearer",
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt,
	}}, nil
}

func (s *Server) handleLogout(_ context.Context, _ *struct{}) (*MessageOutput, error) {
	// Session tokens are self-contained: there is no server-side session to
	// revoke. The client discards its token.
	return &MessageOutput{Body: MessageResponse{Message: "Logged out"}}, nil
}

func (s *Server) handleMe(ctx context.Context, input *MeInput) (*MeOutput, error) {
	username, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	return &MeOutput{Body: MeResponse{Username: username}}, nil
}

// authenticateRequest validates the Authorization header and returns the
// admin username.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (string, error) {
	if authHeader == "" {
		return "", huma.Error401Unauthorized("Missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", huma.Error401Unauthorized("Invalid authorization header format")
	}

	username, err := s.services.Auth.Verify(ctx, parts[1])
	if err != nil {
		return "", huma.Error401Unauthorized("Invalid or expired token", err)
	}

	return username, nil
}
