package devserver

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken means the token failed validation.
var ErrInvalidToken = errors.New("devserver: invalid token")

// DefaultIDTokenTTL is how long issued ID tokens stay valid.
const DefaultIDTokenTTL = time.Hour

// TokenClaims are the claims in an issued ID token.
type TokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Role          string `json:"role,omitempty"`
}

// TokenConfig holds token issuance configuration.
type TokenConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Tokens signs and validates the dev stack's ID tokens.
type Tokens struct {
	config TokenConfig
}

// NewTokens creates a token signer.
func NewTokens(config TokenConfig) *Tokens {
	if config.TTL == 0 {
		config.TTL = DefaultIDTokenTTL
	}
	return &Tokens{config: config}
}

// TTL returns the configured token lifetime.
func (t *Tokens) TTL() time.Duration {
	return t.config.TTL
}

// Issue creates a signed ID token for the user.
func (t *Tokens) Issue(u *User) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.config.TTL)),
			Issuer:    t.config.Issuer,
			Audience:  jwt.ClaimStrings{t.config.Audience},
			ID:        uuid.NewString(),
		},
		Email:         u.Email,
		EmailVerified: true,
		Role:          u.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.config.Secret)
}

// Validate parses and verifies an ID token.
func (t *Tokens) Validate(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.config.Secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
