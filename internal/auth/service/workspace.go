package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
	"github.com/qwanyx/qwanyx/internal/auth/store"
	"github.com/qwanyx/qwanyx/pkg/slogx"
)

// NewWorkspace is the input of WorkspaceService.Create.
type NewWorkspace struct {
	Code       string
	Name       string
	Domain     string
	AdminEmail string
}

// WorkspaceService is the operator-facing administration of tenants.
type WorkspaceService struct {
	Directory *Directory
	Users     *UserService
	Now       func() time.Time
}

func (s *WorkspaceService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create registers a workspace and prepares its storage. When AdminEmail is
// set, that user is created (or promoted) with the admin role.
func (s *WorkspaceService) Create(ctx context.Context, in NewWorkspace) (domain.Workspace, error) {
	code := NormalizeWorkspaceCode(in.Code)
	if err := s.Directory.ValidateWorkspaceCode(code); err != nil {
		return domain.Workspace{}, err
	}
	adminEmail := ""
	if strings.TrimSpace(in.AdminEmail) != "" {
		var err error
		if adminEmail, err = NormalizeEmail(in.AdminEmail); err != nil {
			return domain.Workspace{}, err
		}
	}

	now := s.now()
	ws := domain.Workspace{
		Code:       code,
		Name:       strings.TrimSpace(in.Name),
		Domain:     strings.TrimSpace(in.Domain),
		AdminEmail: adminEmail,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	st := s.Directory.Store
	if err := st.Workspaces().CreateWorkspace(ctx, ws); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Workspace{}, conflictf("workspace %q already exists", code)
		}
		return domain.Workspace{}, internal("create workspace", err)
	}
	if err := st.Tenant(code).EnsureIndexes(ctx); err != nil {
		return domain.Workspace{}, internal("ensure tenant indexes", err)
	}
	slogx.FromContext(ctx).Info("workspace created", "workspace", code, "name", ws.Name)

	if adminEmail != "" {
		if err := s.PromoteAdmin(ctx, code, adminEmail); err != nil {
			return domain.Workspace{}, err
		}
	}
	return ws, nil
}

// PromoteAdmin makes email an admin of workspace, creating the user if needed.
func (s *WorkspaceService) PromoteAdmin(ctx context.Context, workspace, email string) error {
	ctx = slogx.WithWorkspace(ctx, NormalizeWorkspaceCode(workspace))
	u, _, err := s.Users.GetOrCreate(ctx, workspace, email, nil, nil)
	if err != nil {
		return err
	}
	_, err = s.Users.Update(ctx, workspace, u.ID, map[string]any{"role": RoleAdmin})
	return err
}

func (s *WorkspaceService) List(ctx context.Context, activeOnly bool) ([]domain.Workspace, error) {
	out, err := s.Directory.Store.Workspaces().ListWorkspaces(ctx, activeOnly)
	if err != nil {
		return nil, internal("list workspaces", err)
	}
	return out, nil
}

// Deactivate hides a workspace from Resolve without deleting its data.
func (s *WorkspaceService) Deactivate(ctx context.Context, code string) error {
	return s.setActive(ctx, code, false)
}

func (s *WorkspaceService) Activate(ctx context.Context, code string) error {
	return s.setActive(ctx, code, true)
}

func (s *WorkspaceService) setActive(ctx context.Context, code string, active bool) error {
	code = NormalizeWorkspaceCode(code)
	if code == "" {
		return validationf("workspace is required")
	}
	err := s.Directory.Store.Workspaces().SetWorkspaceActive(ctx, code, active, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return ErrWorkspaceNotFound
	}
	if err != nil {
		return internal("set workspace active", err)
	}
	slogx.FromContext(ctx).Info("workspace state changed", "workspace", code, "active", active)
	return nil
}
