// Package devserver is an in-memory stand-in for the AdsCity backend.
// It exists so the dashboard client can be run and exercised end to end
// without the production services: same routes, same envelope, same
// cookie and token semantics, none of the persistence.
package devserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adscity/dashboard/internal/httputil"
	"github.com/adscity/dashboard/internal/obs"
)

const maxRequestBodySize = 12 << 20 // uploads included

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger    *slog.Logger
	Store     *Store
	Tokens    *Tokens
	CookieCfg httputil.CookieConfig

	RateLimitEnabled      bool
	AuthRequestsPerMinute int
	APIRequestsPerMinute  int
}

// NewRouter creates the dev stack's HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(Recover(cfg.Logger))
	r.Use(Logging(cfg.Logger))
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimit(maxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	authLimit := NoRateLimit()
	apiLimit := NoRateLimit()
	if cfg.RateLimitEnabled {
		authLimit = RateLimit(cfg.AuthRequestsPerMinute, time.Minute, cfg.Logger)
		apiLimit = RateLimit(cfg.APIRequestsPerMinute, time.Minute, cfg.Logger)
	}

	h := NewHandler(cfg.Logger, cfg.Store, cfg.Tokens, cfg.CookieCfg)

	// Identity provider emulation
	r.Group(func(r chi.Router) {
		r.Use(authLimit)
		r.Post("/identity/signin", h.SignIn)
		r.Post("/identity/token", h.Token)
		r.Post("/identity/revoke", h.Revoke)
	})

	// Password and email flows
	r.Group(func(r chi.Router) {
		r.Use(authLimit)
		r.Post("/api/auth/request-password-reset", h.RequestPasswordReset)
		r.Get("/api/auth/verify-reset-token/{token}", h.VerifyResetToken)
		r.Post("/api/auth/update-password", h.UpdatePassword)
		r.Post("/api/auth/send-verification-code", h.SendVerificationCode)
		r.Post("/api/auth/verify-code-and-update-email", h.VerifyCodeAndUpdateEmail)
	})

	// Authenticated API
	r.Group(func(r chi.Router) {
		r.Use(Auth(cfg.Tokens))
		r.Use(apiLimit)
		r.Get("/api/users/me", h.Me)
		r.Post("/api/auth/logout-user", h.LogoutUser)
		r.Post("/api/users/user/status", h.Status)
		r.Get("/api/users/{userID}/notifications", h.Notifications)
		r.Patch("/api/users/{userID}/notifications/{notifID}", h.MarkNotificationRead)
		r.Post("/api/favorites/toggle", h.ToggleFavorite)
		r.Get("/api/payments/collect/{userID}", h.Payments)
		r.Put("/api/posts/{postID}/update", h.UpdatePost)
		r.Delete("/api/posts/{postID}/delete", h.DeletePost)
		r.Post("/api/posts/{postID}/mark/sold", h.MarkSold)
		r.Post("/api/storage/upload/image", h.UploadImage)
		r.Post("/api/storage/upload/{userID}/profile", h.UploadProfilePhoto)
	})

	// Public API
	r.Group(func(r chi.Router) {
		r.Use(apiLimit)
		r.Get("/api/posts/{postID}", h.FetchPost)
		r.Post("/api/posts/post/{postID}/report", h.ReportPost)
		r.Get("/api/do/get/view/{postID}", h.ViewCount)
		r.Post("/api/do/increment/{metric}/{postID}", h.Increment)
	})

	return r
}
