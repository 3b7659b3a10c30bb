// Package tokenstore persists the cross-subdomain authToken credential.
//
// The store holds exactly one opaque bearer token. It is written only by the
// session controller; every other component reads through Get.
package tokenstore

import "time"

// CookieName is the credential cookie shared across adscity subdomains.
const CookieName = "authToken"

// DefaultTTL is the credential lifetime applied on Set.
const DefaultTTL = 7 * 24 * time.Hour

// Store persists a single bearer token with an expiry.
type Store interface {
	// Set replaces any existing token. The previous value must not be
	// retrievable afterwards, and there is no window where both are gone.
	Set(token string, ttl time.Duration) error

	// Get returns the current token, or false if absent or expired.
	Get() (string, bool)

	// Remove deletes the token using the same domain/path scoping that Set
	// used. A scope mismatch would silently leave the credential behind,
	// which is why the scope lives in the store and not at call sites.
	Remove() error
}
