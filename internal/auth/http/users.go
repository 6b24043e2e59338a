package http

import (
	"net/http"
	"strconv"

	"github.com/qwanyx/qwanyx/internal/auth/service"
	"github.com/qwanyx/qwanyx/pkg/authsdk"
	"github.com/qwanyx/qwanyx/pkg/httpx"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// UsersHandler is workspace user management for admins.
type UsersHandler struct {
	UserService *service.UserService
}

// RequireWorkspaceAdmin rejects callers without the admin role in the
// workspace named by their token. It must run after AuthnMiddleware.
func RequireWorkspaceAdmin(users *service.UserService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			workspace, userID, ok := caller(r)
			if !ok {
				authsdk.ErrUnauthorized.WriteError(w)
				return
			}
			if err := users.RequireAdmin(r.Context(), workspace, userID); err != nil {
				writeServiceError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func pageParams(r *http.Request) (limit, offset int, apiErr *authsdk.APIError) {
	limit = defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, authsdk.ErrValidation.WithDescription("limit must be a positive integer")
		}
		limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, authsdk.ErrValidation.WithDescription("offset must be a non-negative integer")
		}
		offset = n
	}
	return min(limit, maxPageSize), offset, nil
}

// HandleList godoc
//
//	@Summary		List workspace users
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int	false	"page size (default 50, max 200)"
//	@Param			offset	query		int	false	"offset"
//	@Success		200		{object}	authsdk.UserListResponse
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse	"caller is not a workspace admin"
//	@Router			/v1/users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	workspace, _, _ := caller(r)

	limit, offset, apiErr := pageParams(r)
	if apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	users, total, err := h.UserService.List(r.Context(), workspace, limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.UserListResponse{Users: toUserResponses(users), Total: total})
}

// HandleCreate godoc
//
//	@Summary		Create a workspace user
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateUserRequest	true	"email and admin-editable profile"
//	@Success		201		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse
//	@Failure		409		{object}	authsdk.ErrorResponse	"email already registered"
//	@Router			/v1/users [post].
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	workspace, _, _ := caller(r)

	var req authsdk.CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.UserService.Create(r.Context(), workspace, req.Email, req.Profile)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

// HandleGet godoc
//
//	@Summary		Get a workspace user
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		403	{object}	authsdk.ErrorResponse
//	@Failure		404	{object}	authsdk.ErrorResponse
//	@Router			/v1/users/{id} [get].
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	workspace, _, _ := caller(r)

	u, err := h.UserService.Get(r.Context(), workspace, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// HandleUpdate godoc
//
//	@Summary		Update a workspace user
//	@Description	Merges admin-editable attributes. A boolean is_active deactivates or reactivates the account. Email and audit fields cannot be changed.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"User ID"
//	@Param			fields	body		map[string]any	true	"profile attributes"
//	@Success		200		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"no updatable fields"
//	@Failure		403		{object}	authsdk.ErrorResponse
//	@Failure		404		{object}	authsdk.ErrorResponse
//	@Router			/v1/users/{id} [put].
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	workspace, _, _ := caller(r)

	var fields map[string]any
	if !decodeBody(w, r, &fields) {
		return
	}

	u, err := h.UserService.Update(r.Context(), workspace, r.PathValue("id"), fields)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// HandleDelete godoc
//
//	@Summary		Delete a workspace user
//	@Tags			Users
//	@Security		BearerAuth
//	@Param			id	path	string	true	"User ID"
//	@Success		204
//	@Failure		403	{object}	authsdk.ErrorResponse
//	@Failure		404	{object}	authsdk.ErrorResponse
//	@Router			/v1/users/{id} [delete].
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	workspace, _, _ := caller(r)

	if err := h.UserService.Delete(r.Context(), workspace, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
