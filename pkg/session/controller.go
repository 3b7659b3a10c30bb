package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adscity/dashboard/internal/obs"
	"github.com/adscity/dashboard/pkg/api"
	"github.com/adscity/dashboard/pkg/identity"
	"github.com/adscity/dashboard/pkg/tokenstore"
)

// Config carries the controller's collaborators.
type Config struct {
	Provider identity.Provider
	Store    tokenstore.Store
	Backend  Backend
	// TokenTTL is the persistence window for refreshed tokens.
	// Defaults to tokenstore.DefaultTTL.
	TokenTTL time.Duration
	Logger   *slog.Logger
}

// Controller is the session state machine. Create it with New, start it
// with Run, and read state through Subscribe or Snapshot.
//
// Every identity event opens a numbered resolution pass. Passes may
// overlap when events arrive faster than the network answers; a pass may
// only commit its outcome if no later pass has committed first. That
// ordering rule is the whole concurrency story: late results from
// abandoned passes are dropped, never merged.
type Controller struct {
	provider identity.Provider
	store    tokenstore.Store
	backend  Backend
	tokenTTL time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	snap      Snapshot
	subs      map[int]func(Snapshot)
	nextSub   int
	seq       uint64 // last pass started
	committed uint64 // last pass committed
	unsub     func()
	closed    bool
}

// New builds a stopped controller. Provider, Store and Backend are
// required.
func New(cfg Config) (*Controller, error) {
	if cfg.Provider == nil {
		return nil, errors.New("session: identity provider is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("session: token store is required")
	}
	if cfg.Backend == nil {
		return nil, errors.New("session: backend is required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = tokenstore.DefaultTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		provider: cfg.Provider,
		store:    cfg.Store,
		backend:  cfg.Backend,
		tokenTTL: ttl,
		logger:   logger,
		snap:     Snapshot{Status: StatusInitializing},
		subs:     make(map[int]func(Snapshot)),
	}, nil
}

// Run attaches the controller to the identity provider's auth-state
// stream. The provider fires the current state immediately, so the first
// resolution pass starts before Run returns. Calling Run twice is a no-op.
func (c *Controller) Run() {
	c.mu.Lock()
	if c.closed || c.unsub != nil {
		c.mu.Unlock()
		return
	}
	c.unsub = func() {} // reserve before Subscribe's immediate callback runs
	c.mu.Unlock()

	unsub := c.provider.Subscribe(func(p *identity.Principal) {
		seq, prev := c.beginPass(p)
		if seq == 0 {
			return
		}
		go c.resolve(context.Background(), p, seq, prev)
	})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsub()
		return
	}
	c.unsub = unsub
	c.mu.Unlock()
}

// Close detaches from the provider and drops all subscribers. The
// terminal snapshot stays readable.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsub := c.unsub
	c.subs = make(map[int]func(Snapshot))
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Subscribe registers fn for state changes and invokes it once with the
// current snapshot before returning. The returned function detaches fn.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	snap := c.snap
	c.mu.Unlock()

	fn(snap)

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Refresh re-runs profile resolution for the current principal without
// waiting for an identity event. It blocks until the pass completes or is
// superseded.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	p := c.snap.Principal
	c.mu.Unlock()

	seq, prev := c.beginPass(p)
	if seq == 0 {
		return
	}
	c.resolve(ctx, p, seq, prev)
}

// beginPass allocates the next sequence number and publishes the
// resolving state. It returns 0 after Close.
func (c *Controller) beginPass(p *identity.Principal) (uint64, Snapshot) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, Snapshot{}
	}
	c.seq++
	seq := c.seq
	prev := c.snap
	c.snap.Status = StatusResolvingProfile
	c.snap.Principal = p
	c.snap.Err = nil
	snap := c.snap
	fns := c.subscriberList()
	c.mu.Unlock()

	if prev.Status != StatusResolvingProfile {
		obs.SessionTransition(prev.Status.String(), StatusResolvingProfile.String())
	}
	for _, fn := range fns {
		fn(snap)
	}
	return seq, prev
}

// resolve is the body of one pass: refresh the credential, persist it,
// fetch the profile, commit the outcome.
func (c *Controller) resolve(ctx context.Context, p *identity.Principal, seq uint64, prev Snapshot) {
	var token string
	if p != nil {
		tok, err := c.provider.IDToken(ctx, p, true)
		if err != nil {
			// A dead credential ends the session. Revoked accounts land
			// here on their next refresh.
			c.logger.Warn("token refresh failed, ending session",
				slog.String("uid", p.UID), slog.String("error", err.Error()))
			c.removeTokenIfLatest(seq)
			c.commit(seq, Snapshot{Status: StatusUnauthenticated})
			return
		}
		// A later pass may already have persisted a newer token. The check
		// and the write share the controller lock so a descheduled pass can
		// never resume and overwrite it with this pass's older one.
		if !c.setTokenIfLatest(seq, tok) {
			return
		}
		token = tok
	}

	// With no principal the fetch rides on the ambient cookie alone. A
	// valid cross-subdomain authToken recovers the session without any
	// provider state.
	profile, err := c.backend.FetchMe(ctx, token)
	switch {
	case err == nil:
		snap := Snapshot{
			Status:    StatusAuthenticated,
			Principal: p,
			Token:     token,
			Profile:   profile,
			Role:      profile.Role,
		}
		if c.commit(seq, snap) {
			c.reportOnline(ctx, seq, token, profile.UID)
		}

	case errors.Is(err, api.ErrAuthRejected):
		// The backend refused the credential. If this pass persisted a
		// token it is now known bad, so take it out of the store too.
		c.logger.Info("profile fetch rejected", slog.String("error", err.Error()))
		if token != "" {
			c.removeTokenIfLatest(seq)
		}
		c.commit(seq, Snapshot{Status: StatusUnauthenticated})

	default:
		// Transport failure. The backend never said the session is
		// invalid, so an existing profile stays usable while the error
		// is surfaced.
		c.logger.Warn("profile fetch failed", slog.String("error", err.Error()))
		snap := Snapshot{Status: StatusError, Err: err}
		if prev.Profile != nil {
			snap.Principal = prev.Principal
			snap.Token = prev.Token
			snap.Profile = prev.Profile
			snap.Role = prev.Role
		}
		c.commit(seq, snap)
	}
}

// Logout tears the session down locally no matter what the network does:
// backend notifications are best effort, credential removal and provider
// sign-out are not. Safe to call in any state.
func (c *Controller) Logout(ctx context.Context) (result Result) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Result{Success: false, Message: "session controller is closed"}
	}
	c.seq++
	seq := c.seq
	prev := c.snap
	c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			if err := c.provider.SignOut(ctx, prev.Principal); err != nil {
				c.logger.Error("sign-out during logout recovery failed", slog.String("error", err.Error()))
			}
			c.commit(seq, Snapshot{Status: StatusUnauthenticated})
			result = Result{Success: false, Message: fmt.Sprintf("logout failed: %v", r)}
		}
	}()

	if prev.Profile != nil {
		if err := c.backend.SetOnlineStatus(ctx, prev.Token, prev.Profile.UID, false); err != nil {
			c.logger.Warn("online status update during logout failed", slog.String("error", err.Error()))
		}
		if err := c.backend.LogoutUser(ctx, prev.Token); err != nil {
			c.logger.Warn("backend logout notification failed", slog.String("error", err.Error()))
		}
	}

	c.removeTokenIfLatest(seq)

	signOutErr := c.provider.SignOut(ctx, prev.Principal)

	c.commit(seq, Snapshot{Status: StatusUnauthenticated})

	if signOutErr != nil {
		return Result{Success: false, Message: "sign-out incomplete: " + signOutErr.Error()}
	}
	return Result{Success: true, Message: "signed out"}
}

// commit installs snap as the session state if no later pass got there
// first. It reports whether the commit happened.
func (c *Controller) commit(seq uint64, snap Snapshot) bool {
	c.mu.Lock()
	if c.closed || seq < c.committed {
		c.mu.Unlock()
		return false
	}
	from := c.snap.Status
	c.snap = snap
	c.committed = seq
	fns := c.subscriberList()
	c.mu.Unlock()

	if from != snap.Status {
		obs.SessionTransition(from.String(), snap.Status.String())
	}
	for _, fn := range fns {
		fn(snap)
	}
	return true
}

// setTokenIfLatest persists token for pass seq, but only while no later
// pass has started. The staleness check and the store write happen under
// one lock acquisition so they cannot interleave with another pass.
// It reports whether the pass is still current.
func (c *Controller) setTokenIfLatest(seq uint64, token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.seq {
		return false
	}
	if err := c.store.Set(token, c.tokenTTL); err != nil {
		c.logger.Error("token persistence failed", slog.String("error", err.Error()))
	}
	return true
}

// removeTokenIfLatest drops the persisted token for pass seq under the
// same staleness rule as setTokenIfLatest.
func (c *Controller) removeTokenIfLatest(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.seq {
		return
	}
	if err := c.store.Remove(); err != nil {
		c.logger.Error("token removal failed", slog.String("error", err.Error()))
	}
}

func (c *Controller) subscriberList() []func(Snapshot) {
	fns := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	return fns
}

// reportOnline marks the user online after a successful sign-in pass. A
// failure does not end the session, but it is surfaced on the snapshot so
// callers can show degraded presence instead of silently dropping it.
func (c *Controller) reportOnline(ctx context.Context, seq uint64, token, uid string) {
	err := c.backend.SetOnlineStatus(ctx, token, uid, true)
	if err == nil {
		return
	}
	c.logger.Warn("online status update failed", slog.String("error", err.Error()))

	c.mu.Lock()
	if c.closed || seq != c.committed {
		c.mu.Unlock()
		return
	}
	c.snap.Err = err
	snap := c.snap
	fns := c.subscriberList()
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
