package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func staticTokens(token string) TokenSource {
	return func(ctx context.Context, p *Principal, forceRefresh bool) (string, error) {
		return token, nil
	}
}

func TestHub_SubscribeFiresImmediately(t *testing.T) {
	h := NewHub(staticTokens("tok"))
	h.SetPrincipal(&Principal{UID: "abc"})

	var got *Principal
	fired := 0
	unsub := h.Subscribe(func(p *Principal) {
		got = p
		fired++
	})
	defer unsub()

	if fired != 1 {
		t.Fatalf("callback fired %d times on subscribe, want 1", fired)
	}
	if got == nil || got.UID != "abc" {
		t.Errorf("initial principal = %+v, want uid abc", got)
	}
}

func TestHub_SubscribeFiresOnChanges(t *testing.T) {
	h := NewHub(staticTokens("tok"))

	var events []*Principal
	unsub := h.Subscribe(func(p *Principal) {
		events = append(events, p)
	})
	defer unsub()

	h.SetPrincipal(&Principal{UID: "abc"})
	h.SetPrincipal(nil)

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3 (initial + sign-in + sign-out)", len(events))
	}
	if events[0] != nil {
		t.Errorf("initial event = %+v, want nil", events[0])
	}
	if events[1] == nil || events[1].UID != "abc" {
		t.Errorf("sign-in event = %+v, want uid abc", events[1])
	}
	if events[2] != nil {
		t.Errorf("sign-out event = %+v, want nil", events[2])
	}
}

func TestHub_UnsubscribeDetachesOnlyOne(t *testing.T) {
	h := NewHub(staticTokens("tok"))

	firstFired := 0
	secondFired := 0
	unsubFirst := h.Subscribe(func(p *Principal) { firstFired++ })
	unsubSecond := h.Subscribe(func(p *Principal) { secondFired++ })
	defer unsubSecond()

	unsubFirst()
	h.SetPrincipal(&Principal{UID: "abc"})

	if firstFired != 1 {
		t.Errorf("detached subscriber fired %d times, want 1 (initial only)", firstFired)
	}
	if secondFired != 2 {
		t.Errorf("remaining subscriber fired %d times, want 2", secondFired)
	}
}

func TestHub_IDTokenRevoked(t *testing.T) {
	h := NewHub(staticTokens("tok"))
	p := &Principal{UID: "abc"}
	h.SetPrincipal(p)

	if _, err := h.IDToken(context.Background(), p, true); err != nil {
		t.Fatalf("IDToken failed before revoke: %v", err)
	}

	h.Revoke("abc")
	if _, err := h.IDToken(context.Background(), p, true); !errors.Is(err, ErrRevoked) {
		t.Errorf("IDToken after revoke = %v, want ErrRevoked", err)
	}
}

func TestHub_IDTokenForceRefreshPassedThrough(t *testing.T) {
	var sawForce bool
	h := NewHub(func(ctx context.Context, p *Principal, forceRefresh bool) (string, error) {
		sawForce = forceRefresh
		return fmt.Sprintf("tok-%s", p.UID), nil
	})
	p := &Principal{UID: "abc"}
	h.SetPrincipal(p)

	tok, err := h.IDToken(context.Background(), p, true)
	if err != nil {
		t.Fatalf("IDToken failed: %v", err)
	}
	if tok != "tok-abc" {
		t.Errorf("token = %q, want tok-abc", tok)
	}
	if !sawForce {
		t.Error("forceRefresh was not passed to the token source")
	}
}

func TestHub_SignOutIdempotent(t *testing.T) {
	h := NewHub(staticTokens("tok"))
	p := &Principal{UID: "abc"}
	h.SetPrincipal(p)

	events := 0
	unsub := h.Subscribe(func(*Principal) { events++ })
	defer unsub()

	if err := h.SignOut(context.Background(), p); err != nil {
		t.Fatalf("first SignOut failed: %v", err)
	}
	if err := h.SignOut(context.Background(), p); err != nil {
		t.Fatalf("second SignOut failed: %v", err)
	}

	// initial fire + one sign-out notification; the second SignOut is a no-op
	if events != 2 {
		t.Errorf("got %d events, want 2", events)
	}
}
