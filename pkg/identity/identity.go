// Package identity adapts the external identity provider to the dashboard.
//
// The provider itself is opaque: the dashboard only consumes its auth-state
// stream, asks it for fresh ID tokens, and tells it to sign out. Everything
// else about the provider (its own persistence, its refresh machinery) stays
// behind the Provider interface.
package identity

import (
	"context"
	"errors"
)

// Principal is the provider's representation of a signed-in user.
type Principal struct {
	UID   string
	Email string
}

// ErrRevoked reports that the principal's provider session is no longer
// valid. Callers must treat this as a forced sign-out.
var ErrRevoked = errors.New("identity: principal session revoked")

// Provider is the surface the session controller needs from the identity
// provider.
type Provider interface {
	// Subscribe registers for auth-state changes. The callback fires once
	// immediately with the current state (principal or nil), then on every
	// subsequent sign-in or sign-out. The returned function detaches this
	// subscriber without affecting others.
	Subscribe(fn func(p *Principal)) (unsubscribe func())

	// IDToken returns a signed token for p. With forceRefresh the provider
	// must bypass any local cache and contact the identity service. Returns
	// ErrRevoked when the principal session is invalid.
	IDToken(ctx context.Context, p *Principal, forceRefresh bool) (string, error)

	// SignOut invalidates the local provider session. Idempotent.
	SignOut(ctx context.Context, p *Principal) error
}
