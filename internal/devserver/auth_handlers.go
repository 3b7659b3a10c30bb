package devserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adscity/dashboard/internal/httputil"
)

// Handler serves the dev stack's HTTP API.
type Handler struct {
	logger    *slog.Logger
	store     *Store
	tokens    *Tokens
	cookieCfg httputil.CookieConfig
}

// NewHandler creates the handler set.
func NewHandler(logger *slog.Logger, store *Store, tokens *Tokens, cookieCfg httputil.CookieConfig) *Handler {
	return &Handler{
		logger:    logger,
		store:     store,
		tokens:    tokens,
		cookieCfg: cookieCfg,
	}
}

// SignIn authenticates an email/password pair, issues an ID token and
// plants the cross-subdomain authToken cookie.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.store.Authenticate(req.Email, req.Password)
	if err != nil {
		httputil.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	idToken, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("token issuance failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "token issuance failed")
		return
	}
	refresh, _ := h.store.RefreshCredential(user.UID)

	httputil.SetAuthCookie(w, idToken, h.cookieCfg)
	httputil.Success(w, "signed in", map[string]any{
		"uid":          user.UID,
		"email":        user.Email,
		"role":         user.Role,
		"idToken":      idToken,
		"refreshToken": refresh,
	})
}

// Token redeems a refresh credential for a fresh ID token. The response is
// a bare OAuth-style body, not the API envelope.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}
	if r.PostFormValue("grant_type") != "refresh_token" {
		httputil.JSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	user, err := h.store.UserByRefresh(r.PostFormValue("refresh_token"))
	if err != nil {
		httputil.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_grant"})
		return
	}

	idToken, err := h.tokens.Issue(user)
	if err != nil {
		httputil.JSON(w, http.StatusInternalServerError, map[string]string{"error": "server_error"})
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]any{
		"id_token":   idToken,
		"expires_in": int(h.tokens.TTL().Seconds()),
		"token_type": "Bearer",
	})
}

// Revoke invalidates a user's refresh credential. Dev-only control knob
// for exercising the revoked-account path.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID string `json:"uid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.store.RevokeRefresh(req.UID); err != nil {
		httputil.Error(w, http.StatusNotFound, "unknown user")
		return
	}
	httputil.Success(w, "credential revoked", nil)
}

// LogoutUser closes the server-side session: marks the user offline and
// expires the authToken cookie.
func (h *Handler) LogoutUser(w http.ResponseWriter, r *http.Request) {
	uid, ok := GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}
	if err := h.store.SetOnline(uid, false, timeNow()); err != nil && !errors.Is(err, ErrNotFound) {
		h.logger.Warn("offline update failed", "error", err)
	}
	httputil.ClearAuthCookie(w, h.cookieCfg)
	httputil.Success(w, "logged out", nil)
}

// RequestPasswordReset starts the reset flow. The dev stack has no SMTP,
// so the token comes back in the response body.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		CaptchaToken string `json:"captchaToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.store.CreateResetToken(req.Email)
	if err != nil {
		// Do not reveal whether the address exists.
		httputil.Success(w, "if the address exists, a reset email was sent", nil)
		return
	}
	httputil.Success(w, "reset email sent", map[string]string{"token": token})
}

// VerifyResetToken checks a reset token without consuming it.
func (h *Handler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if _, ok := h.store.ConsumeResetToken(token, false); !ok {
		httputil.Error(w, http.StatusBadRequest, "invalid or expired token")
		return
	}
	httputil.Success(w, "token valid", nil)
}

// UpdatePassword completes the reset flow.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		NewPassword  string `json:"newPassword"`
		Token        string `json:"token"`
		CaptchaToken string `json:"captchaToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email, ok := h.store.ConsumeResetToken(req.Token, true)
	if !ok || email != req.Email {
		httputil.Error(w, http.StatusBadRequest, "invalid or expired token")
		return
	}
	if err := h.store.UpdatePassword(email, req.NewPassword); err != nil {
		httputil.Error(w, http.StatusInternalServerError, "password update failed")
		return
	}
	httputil.Success(w, "password updated", nil)
}

// SendVerificationCode issues a code for an email change. Returned in the
// body since there is no SMTP.
func (h *Handler) SendVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userID"`
		NewEmail string `json:"newEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.store.UserByUID(req.UserID); err != nil {
		httputil.Error(w, http.StatusNotFound, "unknown user")
		return
	}

	code, err := randomToken()
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "code generation failed")
		return
	}
	code = code[:6]
	h.store.SetEmailCode(req.UserID, code)
	httputil.Success(w, "verification code sent", map[string]string{"code": code})
}

// VerifyCodeAndUpdateEmail confirms the code and applies the change.
func (h *Handler) VerifyCodeAndUpdateEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID           string `json:"userID"`
		VerificationCode string `json:"verificationCode"`
		NewEmail         string `json:"newEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.store.CheckEmailCode(req.UserID, req.VerificationCode) {
		httputil.Error(w, http.StatusBadRequest, "invalid verification code")
		return
	}
	if err := h.store.UpdateEmail(req.UserID, req.NewEmail); err != nil {
		httputil.Error(w, http.StatusBadRequest, "email update failed")
		return
	}
	httputil.Success(w, "email updated", nil)
}
