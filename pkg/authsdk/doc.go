/*
Package authsdk provides a client SDK for the QWANYX workspace authentication service.

# Overview

Authentication is passwordless. A user asks for a 6-digit code for an email
address in a workspace, receives it by email, and exchanges it for a bearer
token. The token is scoped to that workspace and every authenticated call is
served from the workspace's own user store.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (codes, registration, contact form,
    health, JWKS) and operator calls guarded by X-Admin-Token
  - Session: calls made with a user's bearer token

Create an SDKClient bound to a default workspace:

	client := authsdk.NewSDKClient("https://auth.example.com", "acme")

	// Existing users
	_, err := client.RequestCode(ctx, "ada@example.com", "")

	// New or returning users
	_, created, err := client.Register(ctx, authsdk.RegisterRequest{
		Email:    "ada@example.com",
		Metadata: map[string]any{"first_name": "Ada"},
	})

	// Exchange the emailed code
	session, err := client.AuthenticateWithCode(ctx, "ada@example.com", code, "")

Use the Session for authenticated operations:

	me, err := session.Me(ctx)
	sessions, err := session.MySessions(ctx)
	me, err = session.UpdateProfile(ctx, me.ID, map[string]any{"city": "Lyon"})

Workspace admins (profile role "admin") can manage users:

	page, err := session.ListUsers(ctx, 50, 0)
	u, err := session.CreateUser(ctx, authsdk.CreateUserRequest{Email: "bob@example.com"})

# Tokens

Tokens last 7 days by default and cannot be refreshed. Once expired, Session
methods return ErrSessionExpired without calling the service; request a new
code to continue.

# Error Handling

Every non-2xx response is returned as an *APIError. Compare with errors.Is
against the predefined values:

	_, err := client.VerifyCode(ctx, email, code, "")
	if errors.Is(err, authsdk.ErrInvalidCode) {
		// wrong, used or expired code
	}

# Thread Safety

SDKClient and Session are safe for concurrent use.
*/
package authsdk
