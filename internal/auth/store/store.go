package store

import (
	"context"
	"errors"
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (mongo, sqlite)
// implement it. Workspace-owned data is only reachable through a Tenant, so
// a handler can never touch two workspaces with one handle.
//
// Every write is a single-document (or single-row) atomic operation, which is
// why there is no transaction API.
type Store interface {
	Workspaces() Workspaces

	// Tenant returns the handle for one workspace's isolated storage. It does
	// not check that the workspace is registered; that is the directory's job.
	Tenant(code string) Tenant

	// EnsureSchema prepares central storage (migrations, registry indexes).
	EnsureSchema(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Workspaces is the central registry of tenants.
type Workspaces interface {
	// CreateWorkspace returns ErrAlreadyExists for a duplicate code.
	CreateWorkspace(ctx context.Context, w domain.Workspace) error

	GetWorkspace(ctx context.Context, code string) (domain.Workspace, error)

	ListWorkspaces(ctx context.Context, activeOnly bool) ([]domain.Workspace, error)

	// SetWorkspaceActive flips the active flag and bumps updated_at.
	SetWorkspaceActive(ctx context.Context, code string, active bool, now time.Time) error
}

// Tenant groups the repositories of a single workspace.
type Tenant interface {
	Code() string
	Users() Users
	AuthCodes() AuthCodes
	Sessions() Sessions
	Contacts() Contacts

	// EnsureIndexes creates the per-tenant unique and TTL indexes.
	EnsureIndexes(ctx context.Context) error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail expects a normalized (trimmed, lower-cased) email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken in this workspace.
	CreateUser(ctx context.Context, u domain.User) error

	// MergeProfile sets the given profile keys, leaving the others untouched,
	// and bumps updated_at. Returns the updated user.
	MergeProfile(ctx context.Context, userID string, fields domain.Profile, now time.Time) (domain.User, error)

	// FillProfile sets only the keys the stored profile does not have yet.
	// updated_at moves only when a key was added. Returns the current user.
	FillProfile(ctx context.Context, userID string, fields domain.Profile, now time.Time) (domain.User, error)

	// SetUserActive flips the account flag and bumps updated_at.
	SetUserActive(ctx context.Context, userID string, active bool, now time.Time) error

	// TouchLogin sets last_login and appends a to the activity log, keeping
	// only the newest domain.MaxActivity entries.
	TouchLogin(ctx context.Context, userID string, a domain.Activity) error

	DeleteUser(ctx context.Context, userID string) error

	// ListUsers returns users ordered by creation, newest first.
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)

	CountUsers(ctx context.Context) (int, error)
}

type AuthCodes interface {
	CreateAuthCode(ctx context.Context, c domain.AuthCode) error

	// ConsumeAuthCode marks the code used in one conditional update matching
	// {email, code, used=false, expires_at > now}. Zero matches returns
	// ErrNotFound, so wrong, used and expired codes are indistinguishable.
	ConsumeAuthCode(ctx context.Context, email, code string, now time.Time) (domain.AuthCode, error)

	// DeleteExpiredAuthCodes removes codes with expires_at <= now.
	DeleteExpiredAuthCodes(ctx context.Context, now time.Time) (int64, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error

	// ListUserSessions returns the newest sessions first.
	ListUserSessions(ctx context.Context, userID string, limit int) ([]domain.Session, error)
}

type Contacts interface {
	CreateContact(ctx context.Context, c domain.Contact) error
}
