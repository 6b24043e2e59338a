package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RequestCode asks the service to email a login code. The user must already
// exist in the workspace.
func (c *SDKClient) RequestCode(ctx context.Context, email, workspace string) (*MessageResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/request-code", RequestCodeRequest{
		Email:     email,
		Workspace: c.workspace(workspace),
	}, nil)
	if err != nil {
		return nil, err
	}

	var out MessageResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates the user if needed and emails a code. created reports
// whether the user was new.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (out *MessageResponse, created bool, err error) {
	req.Workspace = c.workspace(req.Workspace)
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/register", req, nil)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, false, parseErrorResponse(resp, body)
	}

	out = &MessageResponse{}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, resp.StatusCode == http.StatusCreated, nil
}

// VerifyCode exchanges a code for a token.
func (c *SDKClient) VerifyCode(ctx context.Context, email, code, workspace string) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/verify-code", VerifyCodeRequest{
		Email:     email,
		Code:      code,
		Workspace: c.workspace(workspace),
	}, nil)
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthenticateWithCode verifies a code and returns a Session for the user.
func (c *SDKClient) AuthenticateWithCode(ctx context.Context, email, code, workspace string) (*Session, error) {
	tok, err := c.VerifyCode(ctx, email, code, workspace)
	if err != nil {
		return nil, err
	}
	s := c.NewSessionFromToken(tok.AccessToken, tok.ExpiresIn)
	s.user = tok.User
	return s, nil
}
