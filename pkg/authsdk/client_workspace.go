package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

func (c *SDKClient) adminHeaders() map[string]string {
	return map[string]string{"X-Admin-Token": c.AdminToken}
}

// CreateWorkspace registers a new workspace. Requires AdminToken.
func (c *SDKClient) CreateWorkspace(ctx context.Context, req CreateWorkspaceRequest) (*WorkspaceResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/workspaces", req, c.adminHeaders())
	if err != nil {
		return nil, err
	}

	var out WorkspaceResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListWorkspaces returns every registered workspace. Requires AdminToken.
func (c *SDKClient) ListWorkspaces(ctx context.Context) ([]WorkspaceResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/workspaces", nil, c.adminHeaders())
	if err != nil {
		return nil, err
	}

	var out WorkspaceListResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Workspaces, nil
}

// DeactivateWorkspace disables code. Requires AdminToken.
func (c *SDKClient) DeactivateWorkspace(ctx context.Context, code string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/workspaces/"+url.PathEscape(code)+"/deactivate", nil, c.adminHeaders())
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// SubmitContact posts a contact form message.
func (c *SDKClient) SubmitContact(ctx context.Context, req ContactRequest) (*ContactResponse, error) {
	req.Workspace = c.workspace(req.Workspace)
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/contacts", req, nil)
	if err != nil {
		return nil, err
	}

	var out ContactResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}
