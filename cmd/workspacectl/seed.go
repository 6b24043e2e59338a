package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/qwanyx/qwanyx/internal/auth/service"
)

// seedFile is the document read by "workspacectl seed":
//
//	workspaces:
//	  - code: acme
//	    name: Acme Corp
//	    domain: acme.example
//	    admin_email: boss@acme.example
type seedFile struct {
	Workspaces []seedWorkspace `yaml:"workspaces"`
}

type seedWorkspace struct {
	Code       string `yaml:"code"`
	Name       string `yaml:"name"`
	Domain     string `yaml:"domain"`
	AdminEmail string `yaml:"admin_email"`
}

func loadSeed(path string) (seedFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return seedFile{}, err
	}
	var s seedFile
	if err := yaml.Unmarshal(b, &s); err != nil {
		return seedFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(s.Workspaces) == 0 {
		return seedFile{}, fmt.Errorf("%s declares no workspaces", path)
	}
	return s, nil
}

// applySeedWorkspace creates the workspace, or only promotes its admin when
// it already exists, so a seed file can be applied repeatedly.
func applySeedWorkspace(ctx context.Context, svc *service.WorkspaceService, in seedWorkspace) (bool, error) {
	_, err := svc.Create(ctx, service.NewWorkspace{
		Code:       in.Code,
		Name:       in.Name,
		Domain:     in.Domain,
		AdminEmail: in.AdminEmail,
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, service.ErrConflict):
		if in.AdminEmail == "" {
			return false, nil
		}
		return false, svc.PromoteAdmin(ctx, service.NormalizeWorkspaceCode(in.Code), in.AdminEmail)
	default:
		return false, err
	}
}
