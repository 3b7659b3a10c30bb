package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Documents holds the verification uploads attached to a profile.
type Documents struct {
	IdentityDocument string `json:"identityDocument,omitempty"`
	Selfie           string `json:"selfie,omitempty"`
}

// Profile is the backend-resident user record. It is distinct from the
// identity provider's principal: the backend owns role, verification state
// and saved ads.
type Profile struct {
	UID                string     `json:"uid"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	DisplayName        string     `json:"displayName,omitempty"`
	FirstName          string     `json:"firstName,omitempty"`
	LastName           string     `json:"lastName,omitempty"`
	City               string     `json:"city,omitempty"`
	Country            string     `json:"country,omitempty"`
	ProfileURL         string     `json:"profilURL,omitempty"`
	ProfileType        string     `json:"profileType,omitempty"`
	Documents          *Documents `json:"documents,omitempty"`
	VerificationStatus string     `json:"verificationStatus,omitempty"`
	AdsSaved           []string   `json:"adsSaved,omitempty"`
	IsOnline           bool       `json:"isOnline,omitempty"`
}

// HasDocuments reports whether both verification uploads are present.
func (p *Profile) HasDocuments() bool {
	return p.Documents != nil && p.Documents.IdentityDocument != "" && p.Documents.Selfie != ""
}

// FetchMe resolves the current user's profile.
//
// With a bearer token the request authenticates via the Authorization
// header. With an empty bearer it relies on the ambient authToken cookie in
// the client's jar, which is how a session established on another device or
// tab is recovered.
//
// A profile missing uid or role is treated as rejected, not as a transport
// failure: the backend answered, the answer just isn't a usable session.
func (c *Client) FetchMe(ctx context.Context, bearer string) (*Profile, error) {
	env, err := c.do(ctx, "fetch_me", http.MethodGet, "/api/users/me", bearer, nil)
	if err != nil {
		return nil, err
	}
	if !env.Success || len(env.Data) == 0 {
		return nil, ErrAuthRejected
	}

	var profile Profile
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		return nil, fmt.Errorf("api: malformed profile payload (%v): %w", err, ErrAuthRejected)
	}
	if profile.UID == "" || profile.Role == "" {
		return nil, fmt.Errorf("api: profile missing uid or role: %w", ErrAuthRejected)
	}
	return &profile, nil
}
