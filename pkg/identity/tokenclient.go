package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClientConfig holds the token endpoint configuration.
type TokenClientConfig struct {
	// Endpoint is the identity service token URL.
	Endpoint string
	// Issuer is the expected iss claim of returned ID tokens.
	Issuer string
	// Audience is the expected aud claim.
	Audience string
	// Timeout bounds each token request. Defaults to 10s.
	Timeout time.Duration
}

// IDTokenClaims are the claims carried by a provider ID token.
type IDTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified,omitempty"`
}

// TokenClient redeems a long-lived refresh credential for signed ID tokens
// against an HTTP token endpoint. Wrap it in a TokenSource to back a Hub.
type TokenClient struct {
	config     TokenClientConfig
	httpClient *http.Client
}

// NewTokenClient creates a token client.
func NewTokenClient(config TokenClientConfig) *TokenClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TokenClient{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type tokenResponse struct {
	IDToken   string `json:"id_token"`
	ExpiresIn int    `json:"expires_in"`
	TokenType string `json:"token_type"`
}

// Exchange redeems refreshCredential for a fresh ID token. A 401-class
// response means the credential was revoked and maps to ErrRevoked.
func (c *TokenClient) Exchange(ctx context.Context, refreshCredential string) (string, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshCredential},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", ErrRevoked
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token exchange failed: %s", string(body))
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}

	if _, err := c.ValidateIDToken(tokenResp.IDToken); err != nil {
		return "", err
	}
	return tokenResp.IDToken, nil
}

// ValidateIDToken checks issuer, audience and expiry of an ID token and
// returns its claims. Signature verification stays with the backend, which
// holds the provider's keys; the client only refuses obviously stale or
// misdirected tokens.
func (c *TokenClient) ValidateIDToken(idToken string) (*IDTokenClaims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(idToken, &IDTokenClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse ID token: %w", err)
	}

	claims, ok := token.Claims.(*IDTokenClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	if c.config.Issuer != "" && claims.Issuer != c.config.Issuer {
		return nil, fmt.Errorf("invalid issuer: %s", claims.Issuer)
	}

	if c.config.Audience != "" {
		validAudience := false
		for _, aud := range claims.Audience {
			if aud == c.config.Audience {
				validAudience = true
				break
			}
		}
		if !validAudience {
			return nil, errors.New("invalid audience")
		}
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("token expired")
	}

	return claims, nil
}

// Source adapts the client into a TokenSource for a Hub. credentialFor maps
// a principal to its refresh credential; a missing credential reports
// ErrRevoked.
func (c *TokenClient) Source(credentialFor func(uid string) (string, bool)) TokenSource {
	return func(ctx context.Context, p *Principal, forceRefresh bool) (string, error) {
		// forceRefresh is implicit: Exchange always contacts the service.
		cred, ok := credentialFor(p.UID)
		if !ok {
			return "", ErrRevoked
		}
		return c.Exchange(ctx, cred)
	}
}
