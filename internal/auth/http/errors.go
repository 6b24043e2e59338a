package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/qwanyx/qwanyx/internal/auth/service"
	"github.com/qwanyx/qwanyx/pkg/authsdk"
	"github.com/qwanyx/qwanyx/pkg/httpx"
	"github.com/qwanyx/qwanyx/pkg/slogx"
)

// writeServiceError maps the service error taxonomy onto API errors.
// Internal causes are logged and never sent to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		authsdk.ErrValidation.WithDescription(describe(err, service.ErrValidation)).WriteError(w)
	case errors.Is(err, service.ErrWorkspaceNotFound):
		authsdk.ErrNotFound.WithDescription("workspace not found").WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		authsdk.ErrNotFound.WithDescription("user not found").WriteError(w)
	case errors.Is(err, service.ErrNotFound):
		authsdk.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrInvalidOrExpiredCode):
		authsdk.ErrInvalidCode.WriteError(w)
	case errors.Is(err, service.ErrConflict):
		authsdk.ErrConflict.WithDescription(describe(err, service.ErrConflict)).WriteError(w)
	case errors.Is(err, service.ErrForbidden):
		authsdk.ErrForbidden.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

// describe strips the sentinel prefix from err's message.
func describe(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}

// decodeBody decodes a JSON request body, writing a validation error on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		desc := "invalid JSON body"
		if errors.Is(err, httpx.ErrEmptyBody) {
			desc = "request body is required"
		}
		authsdk.ErrValidation.WithDescription(desc).WriteError(w)
		return false
	}
	return true
}

// requestMeta captures the caller's address and user agent for audit records.
func requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		IP:        httpx.IPKeyExtractor(r),
		UserAgent: r.UserAgent(),
	}
}

// firstNonEmpty returns the first argument that is not blank.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
