package http

import (
	"net/http"

	"github.com/qwanyx/qwanyx/internal/auth/service"
	"github.com/qwanyx/qwanyx/pkg/authsdk"
	"github.com/qwanyx/qwanyx/pkg/httpx"
)

const defaultSessionLimit = 20

// MeHandler serves the authenticated user's own record.
type MeHandler struct {
	UserService *service.UserService
}

// caller returns the workspace and user id from the verified token.
func caller(r *http.Request) (workspace, userID string, ok bool) {
	workspace, wok := httpx.WorkspaceFromContext(r.Context())
	userID, uok := httpx.UserIDFromContext(r.Context())
	return workspace, userID, wok && uok && workspace != "" && userID != ""
}

// HandleMe godoc
//
//	@Summary		Get the current user
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Failure		404	{object}	authsdk.ErrorResponse	"user was deleted"
//	@Router			/v1/me [get].
func (h *MeHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	workspace, userID, ok := caller(r)
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	u, err := h.UserService.Get(r.Context(), workspace, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// HandleSessions godoc
//
//	@Summary		List my recent sessions
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionListResponse
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Router			/v1/me/sessions [get].
func (h *MeHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	workspace, userID, ok := caller(r)
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	sessions, err := h.UserService.Sessions(r.Context(), workspace, userID, defaultSessionLimit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SessionListResponse{Sessions: toSessionResponses(sessions)})
}

// HandleUpdateProfile godoc
//
//	@Summary		Update my profile
//	@Description	Merges self-service profile attributes. Users may only edit their own record.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"User ID"
//	@Param			fields	body		map[string]any	true	"profile attributes"
//	@Success		200		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"no updatable fields"
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse	"not your profile"
//	@Router			/v1/users/{id}/profile [put].
func (h *MeHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	workspace, userID, ok := caller(r)
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	var fields map[string]any
	if !decodeBody(w, r, &fields) {
		return
	}

	u, err := h.UserService.UpdateOwnProfile(r.Context(), workspace, userID, r.PathValue("id"), fields)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}
