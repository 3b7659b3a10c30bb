package tokenstore

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// CookieConfig holds the attributes applied to the authToken cookie.
type CookieConfig struct {
	// Domain is the shared parent domain, e.g. ".adscity.net".
	Domain string
	// Path defaults to "/".
	Path string
	// Secure restricts the cookie to HTTPS transport.
	Secure bool
	// SameSite defaults to None: the dashboard, auth and home apps live on
	// sibling subdomains and the credential must travel between them.
	SameSite http.SameSite
}

// DefaultCookieConfig returns the production attributes for the credential.
func DefaultCookieConfig(domain string) CookieConfig {
	return CookieConfig{
		Domain:   domain,
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

// CookieStore keeps the authToken in an http.CookieJar. Sharing the jar with
// the API client's http.Client gives cookie-only recovery for free: requests
// sent without an explicit bearer still carry the ambient credential.
type CookieStore struct {
	jar http.CookieJar
	u   *url.URL
	cfg CookieConfig
}

// NewCookieStore builds a store over jar, scoped to the origin baseURL.
// If jar is nil a fresh cookiejar is created.
func NewCookieStore(jar http.CookieJar, baseURL string, cfg CookieConfig) (*CookieStore, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("tokenstore: base url %q missing scheme or host", baseURL)
	}
	if jar == nil {
		jar, err = cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteNoneMode
	}
	return &CookieStore{jar: jar, u: u, cfg: cfg}, nil
}

// Jar exposes the underlying jar so it can be shared with an http.Client.
func (s *CookieStore) Jar() http.CookieJar {
	return s.jar
}

// Set replaces the persisted token. The stale value is expired first so the
// jar never holds two authToken entries for overlapping scopes.
func (s *CookieStore) Set(token string, ttl time.Duration) error {
	if token == "" {
		return fmt.Errorf("tokenstore: empty token")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := s.Remove(); err != nil {
		return err
	}
	s.jar.SetCookies(s.u, []*http.Cookie{s.cookie(token, int(ttl.Seconds()))})
	return nil
}

// Get returns the persisted token. The jar drops expired cookies on read.
func (s *CookieStore) Get() (string, bool) {
	for _, c := range s.jar.Cookies(s.u) {
		if c.Name == CookieName && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// Remove expires the cookie under the exact domain/path used at set time.
func (s *CookieStore) Remove() error {
	c := s.cookie("", -1)
	c.Expires = time.Unix(1, 0)
	s.jar.SetCookies(s.u, []*http.Cookie{c})
	return nil
}

func (s *CookieStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Domain:   s.cfg.Domain,
		Path:     s.cfg.Path,
		MaxAge:   maxAge,
		Secure:   s.cfg.Secure,
		SameSite: s.cfg.SameSite,
	}
}
