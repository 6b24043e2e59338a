package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the QWANYX authentication service.
// It provides access to unauthenticated operations and creates Sessions
// from verified codes.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// Workspace is used when a request does not name one.
	Workspace string

	// AdminToken is sent as X-Admin-Token on workspace administration calls.
	AdminToken string
}

// NewSDKClient creates a new auth service client bound to workspace.
func NewSDKClient(baseURL, workspace string) *SDKClient {
	return &SDKClient{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		Workspace: workspace,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewSessionFromToken wraps an access token obtained earlier, for example
// one stored by a front end.
func (c *SDKClient) NewSessionFromToken(accessToken string, expiresIn int64) *Session {
	return &Session{
		client:      c,
		accessToken: accessToken,
		expiresAt:   time.Now().Add(time.Duration(expiresIn) * time.Second),
	}
}

func (c *SDKClient) workspace(ws string) string {
	if ws != "" {
		return ws
	}
	return c.Workspace
}
