package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sufyan2618/project-management/pkg/types"
)

// AuthService covers /api/auth
type AuthService struct {
	client *Client
}

// Register creates an account; the server then emails a verification code
func (s *AuthService) Register(ctx context.Context, req types.RegisterRequest) (*types.User, error) {
	env, err := s.client.do(ctx, http.MethodPost, "/api/auth/register", nil, req)
	if err != nil {
		return nil, err
	}
	var user types.User
	if err := env.decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a profile and bearer token
func (s *AuthService) Login(ctx context.Context, creds types.Credentials) (*types.LoginResult, error) {
	env, err := s.client.do(ctx, http.MethodPost, "/api/auth/login", nil, creds)
	if err != nil {
		return nil, err
	}
	var user types.User
	if err := env.decode(&user); err != nil {
		return nil, err
	}
	return &types.LoginResult{User: user, Token: env.AccessToken, Message: env.Message}, nil
}

// Me fetches the current profile
func (s *AuthService) Me(ctx context.Context) (*types.User, error) {
	env, err := s.client.do(ctx, http.MethodGet, "/api/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}
	var user types.User
	if err := env.decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers lists all users (admin only, enforced server-side)
func (s *AuthService) ListUsers(ctx context.Context) ([]types.User, error) {
	env, err := s.client.do(ctx, http.MethodGet, "/api/auth/users", nil, nil)
	if err != nil {
		return nil, err
	}
	var users []types.User
	if err := env.decode(&users); err != nil {
		return nil, err
	}
	return users, nil
}

// VerifyOTP confirms an email address with the emailed one-time code
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	return s.post(ctx, "/api/auth/verify-otp", url.Values{"email": {email}, "otp": {otp}})
}

// ResendOTP asks for a new verification code. A 429 comes back as a
// *RateLimitError carrying the cooldown.
func (s *AuthService) ResendOTP(ctx context.Context, email string) (string, error) {
	return s.post(ctx, "/api/auth/resend-otp", url.Values{"email": {email}})
}

// ForgotPassword requests a password reset code
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	return s.post(ctx, "/api/auth/forgot-password", url.Values{"email": {email}})
}

// ResetPassword sets a new password using the emailed reset code
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error) {
	return s.post(ctx, "/api/auth/reset-password", url.Values{
		"email":        {email},
		"otp":          {otp},
		"new_password": {newPassword},
	})
}

// post sends a body-less POST with query parameters and returns the
// server's message
func (s *AuthService) post(ctx context.Context, path string, q url.Values) (string, error) {
	env, err := s.client.do(ctx, http.MethodPost, path, q, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}
