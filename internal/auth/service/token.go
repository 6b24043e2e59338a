package service

import (
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
	"github.com/qwanyx/qwanyx/pkg/jwtx"
)

// IssuedToken is a minted bearer token.
type IssuedToken struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	Claims      jwtx.Claims
}

// ExpiresIn is the remaining lifetime relative to now, in whole seconds.
func (t IssuedToken) ExpiresIn(now time.Time) int64 {
	return max(int64(t.ExpiresAt.Sub(now).Seconds()), 0)
}

type TokenService struct {
	KeyManager *jwtx.KeyManager
	TTL        time.Duration
}

// Mint signs a token whose claims select the user's workspace.
func (s *TokenService) Mint(u domain.User, workspace string, now time.Time) (IssuedToken, error) {
	raw, claims, err := s.KeyManager.Issue(u.ID, workspace, u.Email, s.TTL, now)
	if err != nil {
		return IssuedToken{}, internal("sign token", err)
	}
	return IssuedToken{
		AccessToken: raw,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
		Claims:      claims,
	}, nil
}
