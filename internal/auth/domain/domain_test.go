package domain_test

import (
	"testing"
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestAuthCodeConsumable(t *testing.T) {
	now := time.Now()
	c := domain.AuthCode{ExpiresAt: now.Add(time.Minute)}
	require.True(t, c.Consumable(now))
	require.False(t, c.Consumable(now.Add(time.Minute)), "expiry is exclusive")

	c.Used = true
	require.False(t, c.Consumable(now))
}

func TestProfileClone(t *testing.T) {
	p := domain.Profile{"role": "admin"}
	q := p.Clone()
	q["role"] = "member"

	require.Equal(t, "admin", p.Role())
	require.Equal(t, "member", q.Role())
	require.Empty(t, domain.Profile{"role": 3}.Role())
}

func TestWorkspaceDisplayName(t *testing.T) {
	require.Equal(t, "acme", domain.Workspace{Code: "acme"}.DisplayName())
	require.Equal(t, "Acme", domain.Workspace{Code: "acme", Name: "Acme"}.DisplayName())
}
