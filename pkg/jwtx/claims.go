package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of a workspace access token. It is much
// longer than an auth code's lifetime because the token is the ongoing
// credential.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims are the workspace access-token claims. The subject is the user id,
// which is only meaningful inside Workspace.
type Claims struct {
	jwt.RegisteredClaims

	// Workspace is the tenant code the token is scoped to.
	Workspace string `json:"workspace"`

	// Email the code was verified for.
	Email string `json:"email,omitempty"`

	// AMR records how the user authenticated, e.g. ["otp"] for email codes.
	AMR []string `json:"amr,omitempty"`
}

// NewWorkspaceClaims builds claims for a user of a workspace.
func NewWorkspaceClaims(
	userID, workspace, email string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Workspace: workspace,
		Email:     email,
		AMR:       []string{"otp"},
	}
}

// UserID returns the subject.
func (c *Claims) UserID() string { return c.Subject }

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryWithLeeway(0)
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}

// ValidateScope requires a subject and a workspace. A token without a
// workspace cannot select a tenant store.
func (c *Claims) ValidateScope() error {
	if strings.TrimSpace(c.Subject) == "" || strings.TrimSpace(c.Workspace) == "" {
		return ErrInvalidClaim
	}
	return nil
}
