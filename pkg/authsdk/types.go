package authsdk

import (
	"time"

	"github.com/qwanyx/qwanyx/pkg/jwtx"
)

// ============================================================================
// Error Response Types
// ============================================================================

// ErrorResponse is the wire form of every error.
// Client code should use the APIError type from errors.go instead.
type ErrorResponse struct {
	// Error is the machine-readable error code
	Error string `json:"error" example:"invalid_or_expired_code"`

	// ErrorDescription is a human-readable explanation
	ErrorDescription string `json:"error_description" example:"invalid or expired code"`
}

// ============================================================================
// Auth Code Types
// ============================================================================

// RequestCodeRequest asks for a login code. Site is accepted as a legacy
// alias of Workspace.
type RequestCodeRequest struct {
	Email     string `json:"email" example:"ada@example.com"`
	Workspace string `json:"workspace,omitempty" example:"acme"`
	Site      string `json:"site,omitempty"`
}

// RegisterRequest creates or updates a user and sends a code.
//
// Metadata is the preferred way to pass profile attributes. The top-level
// camelCase fields are accepted for older front ends.
type RegisterRequest struct {
	Email     string         `json:"email" example:"ada@example.com"`
	Workspace string         `json:"workspace,omitempty" example:"acme"`
	Site      string         `json:"site,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	AccountType string   `json:"accountType,omitempty" example:"particulier"`
	ProTypes    []string `json:"proTypes,omitempty"`
	CompanyName string   `json:"companyName,omitempty"`
	VatNumber   string   `json:"vatNumber,omitempty"`
}

// VerifyCodeRequest exchanges a code for a token.
type VerifyCodeRequest struct {
	Email     string `json:"email" example:"ada@example.com"`
	Code      string `json:"code" example:"042137"`
	Workspace string `json:"workspace,omitempty" example:"acme"`
	Site      string `json:"site,omitempty"`
}

// MessageResponse acknowledges request-code and register calls.
type MessageResponse struct {
	Message string `json:"message" example:"code sent"`
	UserID  string `json:"user_id,omitempty"`
}

// TokenResponse is returned by a successful code verification.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type" example:"Bearer"`
	ExpiresIn   int64        `json:"expires_in" example:"604800"`
	User        UserResponse `json:"user"`
}

// ============================================================================
// User Types
// ============================================================================

// UserResponse is the public view of a workspace user.
type UserResponse struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	IsActive   bool           `json:"is_active"`
	AuthMethod string         `json:"auth_method"`
	Profile    map[string]any `json:"profile"`
	LastLogin  *time.Time     `json:"last_login,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Role returns the profile role, if any.
func (u UserResponse) Role() string {
	s, _ := u.Profile["role"].(string)
	return s
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

// CreateUserRequest is used by workspace admins. Profile goes through the
// admin allow-list.
type CreateUserRequest struct {
	Email   string         `json:"email"`
	Profile map[string]any `json:"profile,omitempty"`
}

// SessionResponse is one login audit record.
type SessionResponse struct {
	ID         string    `json:"id"`
	LoginAt    time.Time `json:"login_at"`
	AuthMethod string    `json:"auth_method"`
	IP         string    `json:"ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
}

type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// ============================================================================
// Contact Types
// ============================================================================

type ContactRequest struct {
	Workspace string `json:"workspace"`
	Site      string `json:"site,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Message   string `json:"message"`
}

type ContactResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ============================================================================
// Workspace Types
// ============================================================================

type CreateWorkspaceRequest struct {
	Code       string `json:"code" example:"acme"`
	Name       string `json:"name" example:"Acme Corp"`
	Domain     string `json:"domain,omitempty" example:"acme.example.com"`
	AdminEmail string `json:"admin_email,omitempty"`
}

type WorkspaceResponse struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Domain     string    `json:"domain,omitempty"`
	AdminEmail string    `json:"admin_email,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

type WorkspaceListResponse struct {
	Workspaces []WorkspaceResponse `json:"workspaces"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the store connection status
	Database string `json:"database"`

	// Signer indicates the JWT signing capability status
	Signer string `json:"signer"`

	// Cache is the shared rate-limit store status, omitted when none is configured
	Cache string `json:"cache,omitempty"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse contains the JSON Web Key Set.
// This is returned from the GET /.well-known/jwks.json endpoint and contains
// public keys used to verify JWT signatures.
type JWKSResponse jwtx.JWKS
