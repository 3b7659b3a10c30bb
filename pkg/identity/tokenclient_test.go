package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signTestIDToken(t *testing.T, issuer, audience string, exp time.Time) string {
	t.Helper()
	claims := IDTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "abc",
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: "user@adscity.net",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return token
}

func TestTokenClient_Exchange(t *testing.T) {
	idToken := signTestIDToken(t, "dev-identity", "dashboard", time.Now().Add(time.Hour))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		switch r.PostForm.Get("refresh_token") {
		case "good-cred":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id_token":"` + idToken + `","expires_in":3600,"token_type":"Bearer"}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	c := NewTokenClient(TokenClientConfig{
		Endpoint: srv.URL,
		Issuer:   "dev-identity",
		Audience: "dashboard",
	})

	got, err := c.Exchange(context.Background(), "good-cred")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if got != idToken {
		t.Errorf("Exchange returned wrong token")
	}

	if _, err := c.Exchange(context.Background(), "revoked-cred"); !errors.Is(err, ErrRevoked) {
		t.Errorf("Exchange with revoked credential = %v, want ErrRevoked", err)
	}
}

func TestTokenClient_ValidateIDToken(t *testing.T) {
	c := NewTokenClient(TokenClientConfig{Issuer: "dev-identity", Audience: "dashboard"})

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{
			name:  "valid",
			token: signTestIDToken(t, "dev-identity", "dashboard", time.Now().Add(time.Hour)),
		},
		{
			name:    "wrong issuer",
			token:   signTestIDToken(t, "evil", "dashboard", time.Now().Add(time.Hour)),
			wantErr: true,
		},
		{
			name:    "wrong audience",
			token:   signTestIDToken(t, "dev-identity", "other-app", time.Now().Add(time.Hour)),
			wantErr: true,
		},
		{
			name:    "expired",
			token:   signTestIDToken(t, "dev-identity", "dashboard", time.Now().Add(-time.Hour)),
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   "not.a.jwt",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := c.ValidateIDToken(tt.token)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateIDToken failed: %v", err)
			}
			if claims.Email != "user@adscity.net" {
				t.Errorf("email = %q, want user@adscity.net", claims.Email)
			}
		})
	}
}

func TestTokenClient_SourceMissingCredential(t *testing.T) {
	c := NewTokenClient(TokenClientConfig{Endpoint: "http://127.0.0.1:0"})
	src := c.Source(func(uid string) (string, bool) { return "", false })

	_, err := src(context.Background(), &Principal{UID: "abc"}, true)
	if !errors.Is(err, ErrRevoked) {
		t.Errorf("missing credential = %v, want ErrRevoked", err)
	}
}
