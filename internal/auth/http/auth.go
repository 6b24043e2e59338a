package http

import (
	"net/http"

	"github.com/qwanyx/qwanyx/internal/auth/service"
	"github.com/qwanyx/qwanyx/pkg/authsdk"
	"github.com/qwanyx/qwanyx/pkg/httpx"
)

const accountTypePro = "professionnel"

type AuthHandler struct {
	CodeService *service.CodeService
}

// HandleRequestCode godoc
//
//	@Summary		Request a login code
//	@Description	Emails a 6-digit code to an existing user of the workspace. The code expires after 10 minutes.
//	@Description	`site` is accepted as an alias of `workspace`. POST /v1/auth/login is an alias of this endpoint.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RequestCodeRequest	true	"email and workspace"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"missing or invalid email or workspace"
//	@Failure		403		{object}	authsdk.ErrorResponse	"user is deactivated"
//	@Failure		404		{object}	authsdk.ErrorResponse	"unknown workspace or user"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate limit exceeded"
//	@Router			/v1/auth/request-code [post].
func (h *AuthHandler) HandleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RequestCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	workspace := firstNonEmpty(req.Workspace, req.Site)
	if err := h.CodeService.RequestCode(r.Context(), req.Email, workspace, requestMeta(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Code sent"})
}

// HandleRegister godoc
//
//	@Summary		Register and request a code
//	@Description	Creates the user if absent, otherwise adds the metadata keys the user does not have yet. Stored values are never replaced. A code is emailed in both cases.
//	@Description	Identity, audit and privilege keys (email, role, status, is_active, ...) are dropped from the metadata.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"email, workspace and optional metadata"
//	@Success		201		{object}	authsdk.MessageResponse	"user created"
//	@Success		200		{object}	authsdk.MessageResponse	"existing user"
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse	"user is deactivated"
//	@Failure		404		{object}	authsdk.ErrorResponse	"unknown workspace"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate limit exceeded"
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, created, err := h.CodeService.Register(r.Context(), service.Registration{
		Email:     req.Email,
		Workspace: firstNonEmpty(req.Workspace, req.Site),
		Profile:   registrationProfile(req),
		Meta:      requestMeta(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	status, msg := http.StatusOK, "Code sent"
	if created {
		status, msg = http.StatusCreated, "Registration successful"
	}
	httpx.WriteJSON(w, status, authsdk.MessageResponse{Message: msg, UserID: u.ID})
}

// registrationProfile folds the legacy top-level fields into metadata.
// Professional fields only apply to professional accounts.
func registrationProfile(req authsdk.RegisterRequest) map[string]any {
	p := make(map[string]any, len(req.Metadata)+4)
	for k, v := range req.Metadata {
		p[k] = v
	}

	set := func(k, v string) {
		if v != "" {
			p[k] = v
		}
	}
	set("first_name", req.FirstName)
	set("last_name", req.LastName)
	set("phone", req.Phone)
	set("account_type", req.AccountType)

	if accountType, _ := p["account_type"].(string); accountType == accountTypePro {
		if len(req.ProTypes) > 0 {
			p["pro_types"] = req.ProTypes
		}
		set("company_name", req.CompanyName)
		set("vat_number", req.VatNumber)
	}
	return p
}

// HandleVerifyCode godoc
//
//	@Summary		Exchange a code for a token
//	@Description	Consumes the code and returns a bearer token scoped to the workspace, valid for 7 days.
//	@Description	Wrong, used and expired codes all fail with the same error.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyCodeRequest	true	"email, code and workspace"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_or_expired_code"
//	@Failure		403		{object}	authsdk.ErrorResponse	"user is deactivated"
//	@Failure		404		{object}	authsdk.ErrorResponse	"unknown workspace"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate limit exceeded"
//	@Router			/v1/auth/verify-code [post].
func (h *AuthHandler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.CodeService.Verify(r.Context(), req.Email, req.Code, firstNonEmpty(req.Workspace, req.Site), requestMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken: res.Token.AccessToken,
		TokenType:   res.Token.TokenType,
		ExpiresIn:   res.Token.ExpiresIn(res.Token.Claims.IssuedAt.Time),
		User:        toUserResponse(res.User),
	})
}
