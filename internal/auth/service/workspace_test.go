package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/service"
	"github.com/stretchr/testify/require"
)

func TestCreateWorkspace(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ws, err := h.workspaces.Create(ctx, service.NewWorkspace{
		Code:       " Initech ",
		Name:       "Initech",
		AdminEmail: "Peter@Initech.com",
	})
	require.NoError(t, err)
	require.Equal(t, "initech", ws.Code)
	require.Equal(t, "peter@initech.com", ws.AdminEmail)

	admin, created, err := h.users.GetOrCreate(ctx, "initech", "peter@initech.com", nil, nil)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, service.RoleAdmin, admin.Profile.Role())

	_, err = h.workspaces.Create(ctx, service.NewWorkspace{Code: "initech"})
	require.ErrorIs(t, err, service.ErrConflict)

	list, err := h.workspaces.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, list, 3)
}

func TestWorkspaceCodeRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, code := range []string{"", "a", "-lead", "has space", "admin", "local", "config", "qwanyx_central"} {
		_, err := h.workspaces.Create(ctx, service.NewWorkspace{Code: code})
		require.ErrorIs(t, err, service.ErrValidation, "code %q", code)
	}
	for _, code := range []string{"ok", "dev_team", "team-42"} {
		_, err := h.workspaces.Create(ctx, service.NewWorkspace{Code: code})
		require.NoError(t, err, "code %q", code)
	}
}

func TestDeactivateWorkspace(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.workspaces.Deactivate(ctx, "acme"))
	require.ErrorIs(t, h.workspaces.Deactivate(ctx, "missing"), service.ErrWorkspaceNotFound)

	active, err := h.workspaces.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "globex", active[0].Code)
}

func TestHousekeepingPurgesExpiredCodes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, ws := range []string{"acme", "globex"} {
		_, _, err := h.codes.Register(ctx, service.Registration{Email: "ada@example.com", Workspace: ws})
		require.NoError(t, err)
	}

	hk := service.NewHousekeepingService(h.store, discardLogger(), h.metrics, time.Hour)
	require.Zero(t, hk.Cleanup(ctx, h.clock.Now()))
	require.Equal(t, int64(2), hk.Cleanup(ctx, h.clock.Now().Add(service.DefaultCodeTTL+time.Second)))
	require.Zero(t, hk.Cleanup(ctx, h.clock.Now().Add(service.DefaultCodeTTL+time.Second)))
}

func TestHousekeepingStartStop(t *testing.T) {
	h := newHarness(t)
	hk := service.NewHousekeepingService(h.store, discardLogger(), nil, 0)
	require.Equal(t, time.Hour, hk.Interval)

	hk.Start(context.Background())
	hk.Start(context.Background())
	hk.Stop()
	hk.Stop()
}

func TestSubmitContact(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c, err := h.contacts.Submit(ctx, service.ContactInput{
		Workspace: "acme",
		Name:      " Ada ",
		Email:     "Ada@Example.com",
		Subject:   "Hello",
		Message:   "I would like a quote.",
		IP:        "10.0.0.9",
	})
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)
	require.Equal(t, "Ada", c.Name)
	require.Equal(t, "ada@example.com", c.Email)

	_, err = h.contacts.Submit(ctx, service.ContactInput{Workspace: "acme", Email: "ada@example.com", Message: " "})
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = h.contacts.Submit(ctx, service.ContactInput{Workspace: "nope", Email: "ada@example.com", Message: "hi"})
	require.ErrorIs(t, err, service.ErrWorkspaceNotFound)
}
