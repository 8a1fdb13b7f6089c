package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/sufyan2618/project-management/internal/access"
	"github.com/sufyan2618/project-management/internal/api"
	"github.com/sufyan2618/project-management/internal/otp"
	"github.com/sufyan2618/project-management/internal/query"
	"github.com/sufyan2618/project-management/pkg/types"
)

// Post-auth navigation targets
const (
	VerifyEmailPath   = "/verify-email"
	ResetPasswordPath = "/reset-password"
)

// Messages shown after auth flows
const (
	msgLoginSuccess  = "Login successful!"
	msgLoginFailed   = "Login failed. Please try again."
	msgLoggedOut     = "Logged out successfully"
	msgVerified      = "Email verified successfully! Please login."
	msgVerifyFailed  = "Verification failed. Please try again."
	msgOTPSent       = "OTP sent successfully! Please check your email."
	msgResendFailed  = "Failed to resend OTP"
	msgForgotFailed  = "Failed to send reset code"
	msgResetSuccess  = "Password reset successfully! Please login."
	msgResetFailed   = "Failed to reset password"
	msgRegisterOK    = "Registration successful! Please verify your email."
	msgRegisterError = "Registration failed. Please try again."
)

// ErrInvalidCode is returned when a one-time code is not exactly six digits
var ErrInvalidCode = errors.New("code must be exactly 6 digits")

// Login signs in, persists the profile and token, opens the socket and
// returns the dashboard path. Failures become an error notification; the
// session is left untouched.
func (c *Context) Login(ctx context.Context, creds types.Credentials) (string, error) {
	res, err := c.API.Auth.Login(ctx, creds)
	if err != nil {
		c.Notify.Error(api.Message(err, msgLoginFailed))
		return "", err
	}
	if res.Token == "" {
		err := fmt.Errorf("login response carried no access token")
		c.Notify.Error(msgLoginFailed)
		return "", err
	}

	if err := c.Session.SetCredentials(res.User, res.Token); err != nil {
		c.Notify.Error(msgLoginFailed)
		return "", fmt.Errorf("failed to persist session: %w", err)
	}
	profile := res.User
	c.Cache.Set(query.Key{query.UserProfile}, &profile)
	c.ConnectSocket(ctx)

	c.Notify.Success(msgLoginSuccess)
	return access.DashboardPath, nil
}

// Logout clears the session, cache and selection, closes the socket and
// returns the login path
func (c *Context) Logout() (string, error) {
	if c.Socket != nil {
		if err := c.Socket.Close(); err != nil {
			log.Printf("warning: failed to close socket: %v", err)
		}
	}
	c.Cache.Clear()
	c.clearSelection()

	if err := c.Session.Logout(); err != nil {
		return access.LoginPath, fmt.Errorf("failed to clear session: %w", err)
	}
	c.Notify.Success(msgLoggedOut)
	return access.LoginPath, nil
}

// Register creates an account; the next step is email verification
func (c *Context) Register(ctx context.Context, req types.RegisterRequest) (*types.User, string, error) {
	user, err := c.API.Auth.Register(ctx, req)
	if err != nil {
		c.Notify.Error(api.Message(err, msgRegisterError))
		return nil, "", err
	}
	c.Notify.Success(msgRegisterOK)
	return user, VerifyEmailPath, nil
}

// VerifyEmail submits the emailed code and returns the login path
func (c *Context) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	code = otp.SanitizeCode(code)
	if !otp.CanSubmit(code, false) {
		c.Notify.Error(ErrInvalidCode.Error())
		return "", ErrInvalidCode
	}

	if _, err := c.API.Auth.VerifyOTP(ctx, email, code); err != nil {
		c.Notify.Error(api.Message(err, msgVerifyFailed))
		return "", err
	}
	c.Notify.Success(msgVerified)
	return access.LoginPath, nil
}

// ResendOTP requests a new verification code, subject to the cooldown
func (c *Context) ResendOTP(ctx context.Context, email string) error {
	_, err := c.Cooldown.Request(ctx, func(ctx context.Context) (string, error) {
		return c.API.Auth.ResendOTP(ctx, email)
	})
	if err != nil {
		c.Notify.Error(cooldownMessage(err, msgResendFailed))
		return err
	}
	c.Notify.Success(msgOTPSent)
	return nil
}

// ForgotPassword requests a password reset code, subject to the cooldown,
// and returns the reset path
func (c *Context) ForgotPassword(ctx context.Context, email string) (string, error) {
	msg, err := c.Cooldown.Request(ctx, func(ctx context.Context) (string, error) {
		return c.API.Auth.ForgotPassword(ctx, email)
	})
	if err != nil {
		c.Notify.Error(cooldownMessage(err, msgForgotFailed))
		return "", err
	}
	if msg == "" {
		msg = msgOTPSent
	}
	c.Notify.Success(msg)
	return ResetPasswordPath, nil
}

// ResetPassword sets a new password using the emailed code
func (c *Context) ResetPassword(ctx context.Context, email, code, newPassword string) (string, error) {
	code = otp.SanitizeCode(code)
	if !otp.CanSubmit(code, false) {
		c.Notify.Error(ErrInvalidCode.Error())
		return "", ErrInvalidCode
	}

	if _, err := c.API.Auth.ResetPassword(ctx, email, code, newPassword); err != nil {
		c.Notify.Error(api.Message(err, msgResetFailed))
		return "", err
	}
	c.Notify.Success(msgResetSuccess)
	return access.LoginPath, nil
}

// Profile fetches the signed-in user and refreshes the stored copy
func (c *Context) Profile(ctx context.Context) (*types.User, error) {
	user, err := query.FetchAs(ctx, c.Cache, query.Key{query.UserProfile}, c.API.Auth.Me)
	if err != nil {
		return nil, err
	}
	if err := c.Session.UpdateUser(*user); err != nil {
		log.Printf("warning: failed to store profile: %v", err)
	}
	return user, nil
}

// Users lists every account (admin only)
func (c *Context) Users(ctx context.Context) ([]types.User, error) {
	return query.FetchAs(ctx, c.Cache, query.Key{query.Users}, c.API.Auth.ListUsers)
}

func cooldownMessage(err error, fallback string) string {
	if errors.Is(err, otp.ErrCoolingDown) {
		return err.Error()
	}
	return api.Message(err, fallback)
}
