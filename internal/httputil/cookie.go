package httputil

import (
	"net/http"
	"time"
)

// AuthCookieName is the cross-subdomain session cookie.
const AuthCookieName = "authToken"

// CookieConfig holds cookie configuration.
type CookieConfig struct {
	Domain   string
	Path     string
	Secure   bool // must be true in production (SameSite=None requires it)
	SameSite http.SameSite
	TTL      time.Duration
}

// DefaultCookieConfig returns the production cookie configuration: the
// cookie rides on the parent domain so every adscity.net subdomain sees
// it, and SameSite=None lets the dashboard subdomain send it cross-site.
func DefaultCookieConfig(domain string) CookieConfig {
	return CookieConfig{
		Domain:   domain,
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		TTL:      7 * 24 * time.Hour,
	}
}

// SetAuthCookie sets the authToken cookie.
func SetAuthCookie(w http.ResponseWriter, token string, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

// ClearAuthCookie expires the authToken cookie.
func ClearAuthCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

// GetAuthTokenFromCookie extracts the session token from the cookie.
func GetAuthTokenFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(AuthCookieName)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}
