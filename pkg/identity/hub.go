package identity

import (
	"context"
	"sync"
)

// TokenSource produces a signed ID token for a principal. forceRefresh must
// bypass any cached token.
type TokenSource func(ctx context.Context, p *Principal, forceRefresh bool) (string, error)

// Hub is an in-process Provider. The dev stack drives it from its fake
// identity endpoints, and tests drive it directly through SetPrincipal and
// Revoke.
type Hub struct {
	mu      sync.Mutex
	current *Principal
	revoked map[string]bool
	subs    map[int]func(*Principal)
	nextID  int
	tokens  TokenSource
}

// NewHub creates a hub with no signed-in principal. tokens is required.
func NewHub(tokens TokenSource) *Hub {
	return &Hub{
		revoked: make(map[string]bool),
		subs:    make(map[int]func(*Principal)),
		tokens:  tokens,
	}
}

// Subscribe implements Provider. Fires immediately with the current state.
func (h *Hub) Subscribe(fn func(p *Principal)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	current := h.current
	h.mu.Unlock()

	fn(current)

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// IDToken implements Provider.
func (h *Hub) IDToken(ctx context.Context, p *Principal, forceRefresh bool) (string, error) {
	h.mu.Lock()
	revoked := p == nil || h.revoked[p.UID]
	h.mu.Unlock()
	if revoked {
		return "", ErrRevoked
	}
	return h.tokens(ctx, p, forceRefresh)
}

// SignOut implements Provider. Signing out a principal that is not signed in
// is a no-op.
func (h *Hub) SignOut(ctx context.Context, p *Principal) error {
	h.mu.Lock()
	if h.current != nil && (p == nil || h.current.UID == p.UID) {
		h.current = nil
		h.mu.Unlock()
		h.notify(nil)
		return nil
	}
	h.mu.Unlock()
	return nil
}

// SetPrincipal records a sign-in (or sign-out with nil) and notifies all
// subscribers.
func (h *Hub) SetPrincipal(p *Principal) {
	h.mu.Lock()
	h.current = p
	if p != nil {
		delete(h.revoked, p.UID)
	}
	h.mu.Unlock()
	h.notify(p)
}

// Revoke marks the principal's provider session invalid: subsequent IDToken
// calls fail with ErrRevoked. It does not emit an auth-state event, matching
// providers that only discover revocation on the next token request.
func (h *Hub) Revoke(uid string) {
	h.mu.Lock()
	h.revoked[uid] = true
	h.mu.Unlock()
}

func (h *Hub) notify(p *Principal) {
	h.mu.Lock()
	fns := make([]func(*Principal), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}
