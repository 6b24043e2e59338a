package auth_test

import (
	"errors"
	"testing"

	"github.com/qwanyx/qwanyx/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestAdminManagesUsers verifies the workspace admin created with the
// workspace can manage its users.
func TestAdminManagesUsers(t *testing.T) {
	svc, cleanup := setupAuthService(t)
	defer cleanup()

	ctx := t.Context()
	client := authsdk.NewSDKClient(svc.BaseURL, svc.Workspace)
	admin := performLogin(t, svc, client, svc.Workspace, "admin@acme.test")
	require.Equal(t, "admin", admin.User().Role())

	created, err := admin.CreateUser(ctx, authsdk.CreateUserRequest{
		Email:   "carol@example.com",
		Profile: map[string]any{"first_name": "Carol", "role": "editor"},
	})
	require.NoError(t, err)
	require.Equal(t, "editor", created.Role())

	_, err = admin.CreateUser(ctx, authsdk.CreateUserRequest{Email: "carol@example.com"})
	require.True(t, errors.Is(err, authsdk.ErrConflict), "duplicate email should conflict, got %v", err)

	list, err := admin.ListUsers(ctx, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)

	got, err := admin.GetUser(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "carol@example.com", got.Email)

	updated, err := admin.UpdateUser(ctx, created.ID, map[string]any{"job_title": "CFO"})
	require.NoError(t, err)
	require.Equal(t, "CFO", updated.Profile["job_title"])
	require.Equal(t, "Carol", updated.Profile["first_name"])

	require.NoError(t, admin.DeleteUser(ctx, created.ID))
	_, err = admin.GetUser(ctx, created.ID)
	assertAPIError(t, err, 404, "deleted user")
}

// TestNonAdminForbidden verifies ordinary users cannot reach admin routes
// or edit other profiles.
func TestNonAdminForbidden(t *testing.T) {
	svc, cleanup := setupAuthService(t)
	defer cleanup()

	ctx := t.Context()
	client := authsdk.NewSDKClient(svc.BaseURL, svc.Workspace)
	admin := performLogin(t, svc, client, svc.Workspace, "admin@acme.test")
	user := performLogin(t, svc, client, svc.Workspace, "bob@example.com")

	_, err := user.ListUsers(ctx, 10, 0)
	assertAPIError(t, err, 403, "list users as non-admin")

	_, err = user.UpdateProfile(ctx, admin.User().ID, map[string]any{"city": "Paris"})
	assertAPIError(t, err, 403, "edit another profile")
}
