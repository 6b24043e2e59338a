package http

import (
	"net/http"

	"github.com/qwanyx/qwanyx/internal/auth/service"
	"github.com/qwanyx/qwanyx/pkg/authsdk"
	"github.com/qwanyx/qwanyx/pkg/httpx"
)

type ContactsHandler struct {
	ContactService *service.ContactService
}

// ServeHTTP godoc
//
//	@Summary		Submit a contact message
//	@Description	Stores a message from a workspace's public contact form.
//	@Tags			Contacts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ContactRequest	true	"contact form"
//	@Success		201		{object}	authsdk.ContactResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		404		{object}	authsdk.ErrorResponse	"unknown workspace"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate limit exceeded"
//	@Router			/v1/contacts [post].
func (h *ContactsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ContactRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.ContactService.Submit(r.Context(), service.ContactInput{
		Workspace: firstNonEmpty(req.Workspace, req.Site),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Subject:   req.Subject,
		Message:   req.Message,
		IP:        httpx.IPKeyExtractor(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, authsdk.ContactResponse{ID: c.ID, Message: "Message received"})
}
