package domain

import "time"

// Workspace is a tenant. Its Code doubles as the name of the backing
// database in the document store.
type Workspace struct {
	Code       string
	Name       string
	Domain     string
	AdminEmail string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DisplayName falls back to the code when no name was set.
func (w Workspace) DisplayName() string {
	if w.Name != "" {
		return w.Name
	}
	return w.Code
}
