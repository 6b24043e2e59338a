package http

import (
	"net/http"

	"github.com/qwanyx/qwanyx/internal/auth/service"
	"github.com/qwanyx/qwanyx/pkg/authsdk"
	"github.com/qwanyx/qwanyx/pkg/cryptox"
	"github.com/qwanyx/qwanyx/pkg/httpx"
	"github.com/qwanyx/qwanyx/pkg/slogx"
)

// AdminTokenHeader carries the operator token for workspace administration.
const AdminTokenHeader = "X-Admin-Token"

// RequireAdminToken checks the operator token against an Argon2id hash.
// An empty hash disables the guarded endpoints entirely.
func RequireAdminToken(hash string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hash == "" {
				authsdk.ErrUnauthorized.WithDescription("workspace administration is disabled").WriteError(w)
				return
			}
			token := r.Header.Get(AdminTokenHeader)
			if token == "" || cryptox.VerifySecret(token, hash) != nil {
				slogx.FromContext(r.Context()).Warn("rejected operator token", "path", r.URL.Path)
				authsdk.ErrUnauthorized.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type WorkspacesHandler struct {
	WorkspaceService *service.WorkspaceService
}

// HandleCreate godoc
//
//	@Summary		Create a workspace
//	@Description	Registers the workspace and prepares its isolated store. When admin_email is set that user is created with the admin role.
//	@Tags			Workspaces
//	@Security		AdminToken
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateWorkspaceRequest	true	"workspace"
//	@Success		201		{object}	authsdk.WorkspaceResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid or reserved code"
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Failure		409		{object}	authsdk.ErrorResponse	"code already taken"
//	@Router			/v1/workspaces [post].
func (h *WorkspacesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreateWorkspaceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ws, err := h.WorkspaceService.Create(r.Context(), service.NewWorkspace{
		Code:       req.Code,
		Name:       req.Name,
		Domain:     req.Domain,
		AdminEmail: req.AdminEmail,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toWorkspaceResponse(ws))
}

// HandleList godoc
//
//	@Summary		List workspaces
//	@Tags			Workspaces
//	@Security		AdminToken
//	@Produce		json
//	@Param			active	query		bool	false	"only active workspaces"
//	@Success		200		{object}	authsdk.WorkspaceListResponse
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Router			/v1/workspaces [get].
func (h *WorkspacesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	list, err := h.WorkspaceService.List(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := authsdk.WorkspaceListResponse{Workspaces: make([]authsdk.WorkspaceResponse, 0, len(list))}
	for _, ws := range list {
		out.Workspaces = append(out.Workspaces, toWorkspaceResponse(ws))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleDeactivate godoc
//
//	@Summary		Deactivate a workspace
//	@Description	The workspace stops resolving. Its data is kept.
//	@Tags			Workspaces
//	@Security		AdminToken
//	@Param			code	path	string	true	"Workspace code"
//	@Success		204
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Failure		404	{object}	authsdk.ErrorResponse
//	@Router			/v1/workspaces/{code}/deactivate [post].
func (h *WorkspacesHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.WorkspaceService.Deactivate(r.Context(), r.PathValue("code")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
