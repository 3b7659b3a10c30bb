package api

import (
	"context"
	"net/http"
)

// LogoutUser notifies the backend that the user signed out so it can close
// the server-side session. Fire-and-forget: the caller logs failures and
// moves on, a dead backend must never block a local logout.
func (c *Client) LogoutUser(ctx context.Context, bearer string) error {
	env, err := c.do(ctx, "logout_user", http.MethodPost, "/api/auth/logout-user", bearer, nil)
	if err != nil {
		return err
	}
	if !env.Success {
		return opErr("logout user", env)
	}
	return nil
}

// RequestPasswordReset starts the password reset flow for email.
func (c *Client) RequestPasswordReset(ctx context.Context, email, captchaToken string) (string, error) {
	env, err := c.do(ctx, "request_password_reset", http.MethodPost, "/api/auth/request-password-reset", "", map[string]any{
		"email":        email,
		"captchaToken": captchaToken,
	})
	if err != nil {
		return "", err
	}
	if !env.Success {
		return "", opErr("request password reset", env)
	}
	return env.Message, nil
}

// VerifyResetToken checks a reset token before showing the new-password form.
func (c *Client) VerifyResetToken(ctx context.Context, token string) (bool, error) {
	env, err := c.do(ctx, "verify_reset_token", http.MethodGet, "/api/auth/verify-reset-token/"+token, "", nil)
	if err != nil {
		return false, err
	}
	return env.Success, nil
}

// UpdatePassword completes the reset flow.
func (c *Client) UpdatePassword(ctx context.Context, email, newPassword, token, captchaToken string) error {
	env, err := c.do(ctx, "update_password", http.MethodPost, "/api/auth/update-password", "", map[string]any{
		"email":        email,
		"newPassword":  newPassword,
		"token":        token,
		"captchaToken": captchaToken,
	})
	if err != nil {
		return err
	}
	if !env.Success {
		return opErr("update password", env)
	}
	return nil
}

// SendVerificationCode emails a code to confirm an address change.
func (c *Client) SendVerificationCode(ctx context.Context, userID, newEmail string) error {
	env, err := c.do(ctx, "send_verification_code", http.MethodPost, "/api/auth/send-verification-code", "", map[string]any{
		"userID":   userID,
		"newEmail": newEmail,
	})
	if err != nil {
		return err
	}
	if !env.Success {
		return opErr("send verification code", env)
	}
	return nil
}

// VerifyCodeAndUpdateEmail confirms the code and applies the address change.
func (c *Client) VerifyCodeAndUpdateEmail(ctx context.Context, userID, code, newEmail string) error {
	env, err := c.do(ctx, "verify_code_update_email", http.MethodPost, "/api/auth/verify-code-and-update-email", "", map[string]any{
		"userID":           userID,
		"verificationCode": code,
		"newEmail":         newEmail,
	})
	if err != nil {
		return err
	}
	if !env.Success {
		return opErr("verify code and update email", env)
	}
	return nil
}
