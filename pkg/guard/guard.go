// Package guard decides whether a navigation may proceed for a given
// session snapshot. It is pure: no I/O, no clocks, just snapshot plus
// route requirement in, decision out.
package guard

import (
	"net/url"

	"github.com/adscity/dashboard/pkg/session"
)

// Action is what the caller must do with the navigation.
type Action int

const (
	// ActionWait means the session is still resolving. Hold the
	// navigation; never redirect off an unknown state.
	ActionWait Action = iota
	// ActionAllow lets the navigation through.
	ActionAllow
	// ActionRedirectSignIn sends the visitor to the sign-in page with the
	// requested path carried in the redirect query parameter.
	ActionRedirectSignIn
	// ActionRedirectDenied sends an authenticated visitor without the
	// required role to the access-denied page.
	ActionRedirectDenied
)

func (a Action) String() string {
	switch a {
	case ActionWait:
		return "wait"
	case ActionAllow:
		return "allow"
	case ActionRedirectSignIn:
		return "redirect_signin"
	case ActionRedirectDenied:
		return "redirect_denied"
	default:
		return "unknown"
	}
}

// Requirement is what a route demands of the session.
type Requirement struct {
	// Public routes skip the session entirely.
	Public bool
	// Roles restricts the route to the listed roles. Empty means any
	// authenticated session qualifies.
	Roles []string
}

// Decision is the guard's verdict. Location is set for the redirect
// actions only.
type Decision struct {
	Action   Action
	Location string
}

// Guard holds the two destinations redirects can land on.
type Guard struct {
	// SignInURL is the absolute sign-in page on the main site, for
	// example https://adscity.net/signin.
	SignInURL string
	// DeniedPath is the local access-denied route.
	DeniedPath string
}

// New creates a guard with the standard denied path when deniedPath is
// empty.
func New(signInURL, deniedPath string) *Guard {
	if deniedPath == "" {
		deniedPath = "/access-denied"
	}
	return &Guard{SignInURL: signInURL, DeniedPath: deniedPath}
}

// Decide evaluates one navigation. requested is the URL the visitor asked
// for; it is carried through a sign-in redirect so the flow can resume.
func (g *Guard) Decide(snap session.Snapshot, req Requirement, requested *url.URL) Decision {
	if req.Public {
		return Decision{Action: ActionAllow}
	}
	if snap.Loading() {
		return Decision{Action: ActionWait}
	}
	if !snap.Authenticated() {
		return Decision{Action: ActionRedirectSignIn, Location: g.signInLocation(requested)}
	}
	if len(req.Roles) > 0 && !contains(req.Roles, snap.Role) {
		return Decision{Action: ActionRedirectDenied, Location: g.DeniedPath}
	}
	return Decision{Action: ActionAllow}
}

func (g *Guard) signInLocation(requested *url.URL) string {
	if requested == nil {
		return g.SignInURL
	}
	target := requested.Path
	if requested.RawQuery != "" {
		target += "?" + requested.RawQuery
	}
	u, err := url.Parse(g.SignInURL)
	if err != nil || target == "" {
		return g.SignInURL
	}
	q := u.Query()
	q.Set("redirect", target)
	u.RawQuery = q.Encode()
	return u.String()
}

func contains(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Routes is the dashboard's route table. Every protected page accepts
// both roles; admin-only screens live on the admin subdomain, not here.
func Routes() map[string]Requirement {
	users := []string{"admin", "user"}
	return map[string]Requirement{
		"/access-denied": {Public: true},
		"/panel":         {Roles: users},
		"/posts":         {Roles: users},
		"/favoris":       {Roles: users},
		"/status":        {Roles: users},
		"/documents":     {Roles: users},
		"/notifications": {Roles: users},
		"/payments":      {Roles: users},
		"/profile":       {Roles: users},
	}
}
