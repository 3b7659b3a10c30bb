// Package session owns the dashboard's authentication lifecycle.
//
// Exactly one Controller runs per client. It reconciles three sources of
// truth that can disagree: the identity provider's auth-state stream, the
// persisted cross-subdomain authToken, and the backend profile record. The
// resolved state is published to subscribers; nothing else in the
// application may mutate it directly.
package session

import (
	"context"

	"github.com/adscity/dashboard/pkg/api"
	"github.com/adscity/dashboard/pkg/identity"
)

// Status is the session state machine position.
type Status int

const (
	// StatusInitializing is the boot state before the first identity event.
	StatusInitializing Status = iota
	// StatusUnauthenticated means no usable session exists.
	StatusUnauthenticated
	// StatusResolvingProfile means an identity event is being processed.
	StatusResolvingProfile
	// StatusAuthenticated means a profile was resolved and a credential
	// (token or server-side cookie session) backs it.
	StatusAuthenticated
	// StatusError means the last resolution failed at the transport level.
	// Non-terminal: the next identity event or an explicit Refresh can
	// recover it.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusResolvingProfile:
		return "resolving_profile"
	case StatusAuthenticated:
		return "authenticated"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is the published session state. Principal may be nil while
// Profile is set: a session recovered purely from the ambient cookie is a
// supported degraded mode.
type Snapshot struct {
	Status    Status
	Principal *identity.Principal
	Token     string
	Profile   *api.Profile
	Role      string
	Err       error
}

// Loading reports whether consumers must hold off rendering protected
// content.
func (s Snapshot) Loading() bool {
	return s.Status == StatusInitializing || s.Status == StatusResolvingProfile
}

// Authenticated reports whether a usable profile is present. A transport
// failure keeps the previous profile alive under StatusError, and that
// degraded session still counts.
func (s Snapshot) Authenticated() bool {
	if s.Status == StatusAuthenticated {
		return true
	}
	return s.Status == StatusError && s.Profile != nil
}

// Result is the structured outcome of a logout, for UI feedback.
type Result struct {
	Success bool
	Message string
}

// Backend is the slice of the API client the controller needs.
type Backend interface {
	FetchMe(ctx context.Context, bearer string) (*api.Profile, error)
	LogoutUser(ctx context.Context, bearer string) error
	SetOnlineStatus(ctx context.Context, bearer, userID string, online bool) error
}
