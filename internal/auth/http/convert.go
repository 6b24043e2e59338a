package http

import (
	"github.com/qwanyx/qwanyx/internal/auth/domain"
	"github.com/qwanyx/qwanyx/pkg/authsdk"
)

func toUserResponse(u domain.User) authsdk.UserResponse {
	profile := map[string]any(u.Profile.Clone())
	return authsdk.UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		IsActive:   u.IsActive,
		AuthMethod: u.AuthMethod,
		Profile:    profile,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func toUserResponses(users []domain.User) []authsdk.UserResponse {
	out := make([]authsdk.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toSessionResponses(sessions []domain.Session) []authsdk.SessionResponse {
	out := make([]authsdk.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, authsdk.SessionResponse{
			ID:         s.ID,
			LoginAt:    s.LoginAt,
			AuthMethod: s.AuthMethod,
			IP:         s.IP,
			UserAgent:  s.UserAgent,
		})
	}
	return out
}

func toWorkspaceResponse(ws domain.Workspace) authsdk.WorkspaceResponse {
	return authsdk.WorkspaceResponse{
		Code:       ws.Code,
		Name:       ws.Name,
		Domain:     ws.Domain,
		AdminEmail: ws.AdminEmail,
		IsActive:   ws.IsActive,
		CreatedAt:  ws.CreatedAt,
	}
}
