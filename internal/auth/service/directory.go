package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
	"github.com/qwanyx/qwanyx/internal/auth/store"
	"github.com/qwanyx/qwanyx/pkg/slogx"
)

var workspaceCodePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,47}$`)

// reservedCodes are database names a workspace may not shadow.
var reservedCodes = map[string]struct{}{
	"admin":  {},
	"local":  {},
	"config": {},
}

// Directory resolves a workspace code to its isolated storage. Lookups go to
// the registry on every call.
type Directory struct {
	Store     store.Store
	CentralDB string
}

// NormalizeWorkspaceCode trims and lower-cases code.
func NormalizeWorkspaceCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// ValidateWorkspaceCode checks a code that is about to be registered.
func (d *Directory) ValidateWorkspaceCode(code string) error {
	if !workspaceCodePattern.MatchString(code) {
		return validationf("workspace code %q must match %s", code, workspaceCodePattern)
	}
	if _, ok := reservedCodes[code]; ok || code == d.CentralDB {
		return validationf("workspace code %q is reserved", code)
	}
	return nil
}

// Resolve returns the tenant handle of an active workspace.
func (d *Directory) Resolve(ctx context.Context, code string) (store.Tenant, domain.Workspace, error) {
	code = NormalizeWorkspaceCode(code)
	if code == "" {
		return nil, domain.Workspace{}, validationf("workspace is required")
	}

	ws, err := d.Store.Workspaces().GetWorkspace(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.Workspace{}, ErrWorkspaceNotFound
		}
		return nil, domain.Workspace{}, internal("resolve workspace", err)
	}
	if !ws.IsActive {
		slogx.FromContext(ctx).Debug("workspace inactive", "workspace", code)
		return nil, domain.Workspace{}, ErrWorkspaceNotFound
	}

	return d.Store.Tenant(ws.Code), ws, nil
}
